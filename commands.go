package models

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewCommand creates a Cobra command tree for model acquisition.
// The returned command should be added to a parent CLI's root command.
//
// Commands provided:
//   - models acquire [role...]
//   - models status
//   - models verify
//   - models path <role>
//   - models policy init [file]
//   - models clean [--yes]
//
// Global flags: --json, --quiet, --verbose
func NewCommand(cfg Config, opts ...ManagerOption) *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
		verbose    bool
	)

	// Manager will be created in PersistentPreRunE
	var mgr Manager

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Acquire diarization models",
		Long:  "Download, validate, and convert speaker-diarization models from a remote model hub.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip manager creation for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			var err error
			mgr, err = NewManager(cfg, opts...)
			if err != nil {
				return fmt.Errorf("failed to initialize manager: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Add subcommands
	cmd.AddCommand(acquireCmd(&mgr, &jsonOutput, &quiet))
	cmd.AddCommand(statusCmd(&mgr, &jsonOutput))
	cmd.AddCommand(verifyCmd(&mgr, &jsonOutput, &quiet))
	cmd.AddCommand(pathCmd(&mgr))
	cmd.AddCommand(policyCmd())
	cmd.AddCommand(cleanCmd(&mgr, &quiet))

	return cmd
}

func acquireCmd(mgr *Manager, jsonOutput, quiet *bool) *cobra.Command {
	var rawOnly bool

	cmd := &cobra.Command{
		Use:   "acquire [role...]",
		Short: "Fetch and prepare models",
		Long: "Resolve each logical model against its candidate sources, validate the " +
			"downloads, and attempt portable-graph conversion where needed. " +
			"With no arguments, all configured roles are acquired.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var opts []AcquireOption
			if rawOnly {
				opts = append(opts, WithoutExport())
			}
			if len(args) > 0 {
				roles := make([]Role, 0, len(args))
				for _, arg := range args {
					role, err := ParseRole(arg)
					if err != nil {
						return err
					}
					roles = append(roles, role)
				}
				opts = append(opts, WithRoles(roles...))
			}

			if !*quiet && !*jsonOutput {
				opts = append(opts, WithProgress(newProgressPrinter(cmd.OutOrStdout())))
			}

			result, err := (*mgr).Acquire(ctx, opts...)
			if err != nil {
				return err
			}

			if *jsonOutput {
				if err := outputJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else if !*quiet {
				outputResult(cmd.OutOrStdout(), result)
			}

			// Failed readiness becomes the process exit status.
			if result.Overall == Failed {
				return firstModelError(result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rawOnly, "raw-only", false, "Keep raw weights as-is, skipping graph export")
	return cmd
}

func statusCmd(mgr *Manager, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store contents",
		Long:  "Show which roles have an artifact in the store, and in which format.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := (*mgr).Status(cmd.Context())
			if err != nil {
				return err
			}

			if *jsonOutput {
				return outputJSON(cmd.OutOrStdout(), statuses)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ROLE\tFORMAT\tSIZE\tPATH")
			for _, s := range statuses {
				if !s.Present {
					fmt.Fprintf(tw, "%s\t-\t-\t(not acquired)\n", s.Role)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Role, s.Format, formatSize(s.ByteSize), s.Path)
			}
			return tw.Flush()
		},
	}
}

func verifyCmd(mgr *Manager, jsonOutput, quiet *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-check stored artifacts",
		Long:  "Re-run content sniffing on the stored artifacts against the current policy.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := (*mgr).Verify(cmd.Context())
			if err != nil {
				return err
			}

			if *jsonOutput {
				if err := outputJSON(cmd.OutOrStdout(), reports); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ROLE\tPRESENT\tGENUINE\tNOTE")
				for _, r := range reports {
					if !r.Status.Present {
						fmt.Fprintf(tw, "%s\tno\t-\t\n", r.Status.Role)
						continue
					}
					fmt.Fprintf(tw, "%s\tyes\t%v\t%s\n", r.Status.Role, r.Verdict.Genuine, r.Verdict.Reason)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			for _, r := range reports {
				if r.Status.Present && !r.Verdict.Genuine {
					return fmt.Errorf("%w: %s: %s", ErrValidityRejected, r.Status.Role, r.Verdict.Reason)
				}
			}
			return nil
		},
	}
}

func pathCmd(mgr *Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "path <role>",
		Short: "Print path to a stored artifact",
		Long:  "Print the filesystem path of the canonical artifact for a role.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ParseRole(args[0])
			if err != nil {
				return err
			}

			path, err := (*mgr).Path(cmd.Context(), role)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the sniff policy",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [file]",
		Short: "Write the default sniff policy",
		Long: "Write the built-in signature and denial-phrase sets to a YAML file, " +
			"as a starting point for a customized policy.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "sniff-policy.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := SaveSniffPolicy(path, DefaultSniffPolicy()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default sniff policy to %s\n", path)
			return nil
		},
	})

	return cmd
}

func cleanCmd(mgr *Manager, quiet *bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staged downloads",
		Long:  "Remove leftover staged downloads from aborted runs. Canonical artifacts are untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Confirmation prompt
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Remove staged downloads? [y/N]: ")
				if !confirmPrompt(cmd.InOrStdin()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := (*mgr).CleanStaging(cmd.Context()); err != nil {
				return err
			}

			if !*quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Staging area cleared.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

// confirmPrompt reads from stdin and returns true only if the user types 'y' or 'Y'.
// Returns false for empty input or any other response (default is no).
func confirmPrompt(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return response == "y" || response == "yes"
	}
	return false
}

// Output helpers

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputResult prints the per-model outcomes and the overall readiness.
func outputResult(w io.Writer, result PipelineResult) {
	roles := make([]string, 0, len(result.PerModel))
	for role := range result.PerModel {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	for _, roleName := range roles {
		mr := result.PerModel[Role(roleName)]
		if mr.Outcome == nil {
			fmt.Fprintf(w, "%s: FAILED\n", roleName)
			for i, f := range mr.Failures {
				fmt.Fprintf(w, "  [%d] %s: %s\n", i+1, f.Candidate, f.Reason)
			}
			continue
		}

		o := mr.Outcome
		if o.Degraded {
			fmt.Fprintf(w, "%s: %s (%s) - graph export not achieved: %s\n",
				roleName, o.Format, formatSize(o.ByteSize), o.DegradationReason)
		} else {
			fmt.Fprintf(w, "%s: %s (%s)\n", roleName, o.Format, formatSize(o.ByteSize))
		}
		for i, f := range mr.Failures {
			fmt.Fprintf(w, "  rejected [%d] %s: %s\n", i+1, f.Candidate, f.Reason)
		}
	}

	fmt.Fprintf(w, "Overall: %s\n", strings.ToUpper(strings.ReplaceAll(result.Overall.String(), "-", "_")))
}

// firstModelError returns the first per-model error, in role order, for the
// process exit status.
func firstModelError(result PipelineResult) error {
	roles := make([]string, 0, len(result.PerModel))
	for role := range result.PerModel {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	for _, roleName := range roles {
		if err := result.PerModel[Role(roleName)].Err; err != nil {
			return err
		}
	}
	return ErrAcquireFailed
}

// newProgressPrinter returns a progress callback that renders one updating
// line per fetch: bytes so far, percentage when the hub declared a size, and
// transfer speed.
func newProgressPrinter(w io.Writer) func(AcquireProgress) {
	var mu sync.Mutex
	var current SourceCandidate
	var started time.Time

	return func(p AcquireProgress) {
		mu.Lock()
		defer mu.Unlock()

		switch p.Phase {
		case "fetch":
			if current != p.Candidate {
				if current.RepoID != "" {
					fmt.Fprintln(w)
				}
				current = p.Candidate
				started = time.Now()
			}
			renderFetch(w, p, time.Since(started))
		case "export":
			if current.RepoID != "" {
				fmt.Fprintln(w)
				current = SourceCandidate{}
			}
			fmt.Fprintf(w, "%s: attempting graph export...\n", p.Role)
		case "done":
			if current.RepoID != "" {
				fmt.Fprintln(w)
				current = SourceCandidate{}
			}
		}
	}
}

// renderFetch renders the single-line fetch progress.
// Format: segmentation: pyannote/segmentation-3.0/model.onnx  42% 2.40 MB (1.2 MB/s)
func renderFetch(w io.Writer, p AcquireProgress, elapsed time.Duration) {
	var speed float64
	if elapsed.Seconds() > 0 {
		speed = float64(p.BytesFetched) / elapsed.Seconds()
	}

	if p.BytesTotal > 0 {
		pct := float64(p.BytesFetched) / float64(p.BytesTotal) * 100
		fmt.Fprintf(w, "\r\x1b[K%s: %s  %.0f%% %s (%s)",
			p.Role, p.Candidate, pct, formatSize(p.BytesFetched), formatSpeed(speed))
		return
	}
	fmt.Fprintf(w, "\r\x1b[K%s: %s  %s (%s)",
		p.Role, p.Candidate, formatSize(p.BytesFetched), formatSpeed(speed))
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatSpeed formats bytes per second as KB/s or MB/s.
func formatSpeed(bytesPerSec float64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	if bytesPerSec >= MB {
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/MB)
	}
	if bytesPerSec >= KB {
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/KB)
	}
	return fmt.Sprintf("%.0f B/s", bytesPerSec)
}
