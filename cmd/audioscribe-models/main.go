// Command audioscribe-models acquires the speaker-diarization models the
// AudioScribe pipeline needs and prepares them for local inference.
//
// Configuration is loaded from environment variables:
//   - AUDIOSCRIBE_HUB_URL: Base URL of the model hub (default https://huggingface.co)
//   - AUDIOSCRIBE_HUB_TOKEN: Bearer token for consent-gated repositories (optional)
//   - AUDIOSCRIBE_MODELS_DIR: Override for the artifact store directory (optional)
//   - AUDIOSCRIBE_EXPORTER: Path to the graph exporter executable (optional)
//   - AUDIOSCRIBE_SNIFF_POLICY: Path to a YAML sniff policy file (optional)
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	models "github.com/audioscribe/diar-models"
)

// DefaultHubURL is used when AUDIOSCRIBE_HUB_URL is unset.
const DefaultHubURL = "https://huggingface.co"

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed. Covers both fully
	// and partially ready acquisition outcomes.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments.
	ExitInvalidArgs = 2

	// ExitAcquireFailed indicates a required model could not be acquired.
	ExitAcquireFailed = 3

	// ExitConsentRequired indicates the hub requires a consent agreement.
	ExitConsentRequired = 4

	// ExitNetworkError indicates a network or connection failure.
	ExitNetworkError = 5

	// ExitValidityRejected indicates a stored artifact failed validation.
	ExitValidityRejected = 6

	// ExitStorageError indicates a filesystem operation failed.
	ExitStorageError = 7
)

func main() {
	hubURL := os.Getenv("AUDIOSCRIBE_HUB_URL")
	if hubURL == "" {
		hubURL = DefaultHubURL
	}

	cfg := models.Config{
		AppName:      "audioscribe",
		HubURL:       hubURL,
		ExporterPath: os.Getenv("AUDIOSCRIBE_EXPORTER"),
		PolicyPath:   os.Getenv("AUDIOSCRIBE_SNIFF_POLICY"),
		// DataDir can be set via AUDIOSCRIBE_MODELS_DIR (handled by the store)
	}

	logger := newLogger()

	cmd := models.NewCommand(cfg, models.WithLogger(logger))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFromError(err))
	}
}

// newLogger builds the CLI logger. Verbosity is handled inside the command
// tree; the level here gates what reaches stderr at all.
func newLogger() *slogAdapter {
	level := slog.LevelInfo
	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--verbose" {
			level = slog.LevelDebug
		}
		if arg == "-q" || arg == "--quiet" {
			level = slog.LevelError
		}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogAdapter{inner: slog.New(handler)}
}

// slogAdapter adapts *slog.Logger to the models.Logger interface.
type slogAdapter struct {
	inner *slog.Logger
}

func (a *slogAdapter) Debug(msg string, keysAndValues ...any) { a.inner.Debug(msg, keysAndValues...) }
func (a *slogAdapter) Info(msg string, keysAndValues ...any)  { a.inner.Info(msg, keysAndValues...) }
func (a *slogAdapter) Warn(msg string, keysAndValues ...any)  { a.inner.Warn(msg, keysAndValues...) }
func (a *slogAdapter) Error(msg string, keysAndValues ...any) { a.inner.Error(msg, keysAndValues...) }

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, models.ErrConsentRequired):
		return ExitConsentRequired
	case errors.Is(err, models.ErrAcquireFailed):
		return ExitAcquireFailed
	case errors.Is(err, models.ErrNoCandidates):
		return ExitAcquireFailed
	case errors.Is(err, models.ErrNotAcquired):
		return ExitAcquireFailed
	case errors.Is(err, models.ErrTransport):
		return ExitNetworkError
	case errors.Is(err, models.ErrValidityRejected):
		return ExitValidityRejected
	case errors.Is(err, models.ErrHashMismatch):
		return ExitValidityRejected
	case errors.Is(err, models.ErrStorage):
		return ExitStorageError
	case errors.Is(err, models.ErrInvalidRole):
		return ExitInvalidArgs
	case errors.Is(err, models.ErrInvalidPolicy):
		return ExitInvalidArgs
	default:
		return ExitGeneralError
	}
}
