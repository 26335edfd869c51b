package models

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newTestCommand builds the command tree against an httptest hub and a
// temporary store, returning the command and the store directory.
func newTestCommand(t *testing.T, handler http.Handler, opts ...ManagerOption) (*cobra.Command, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dataDir := t.TempDir()
	base := []ManagerOption{
		WithHTTPClient(server.Client()),
		WithCredentials(StaticCredential("")),
		WithExporter(&fakeExporter{err: &ExportError{Class: DegradationExportError, Detail: "unused"}}),
	}

	cmd := NewCommand(Config{
		AppName: "testapp",
		HubURL:  server.URL,
		DataDir: dataDir,
	}, append(base, opts...)...)
	return cmd, dataDir
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	cmd := NewCommand(Config{AppName: "testapp", HubURL: "https://hub.example.com"})

	want := []string{"acquire", "status", "verify", "path", "policy", "clean"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestAcquireCommand(t *testing.T) {
	models := []LogicalModel{
		{
			Role: RoleSegmentation, Required: true,
			Candidates: []SourceCandidate{{RepoID: "org/seg", Filename: "model.onnx", Kind: KindPortableGraph}},
		},
	}

	t.Run("success prints readiness", func(t *testing.T) {
		cmd, _ := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(onnxPayload(2048))
		}), WithModels(models))

		out, err := runCommand(t, cmd, "acquire", "-q")
		if err != nil {
			t.Fatalf("acquire error = %v (output: %s)", err, out)
		}
	})

	t.Run("failed run exits with the model error", func(t *testing.T) {
		cmd, _ := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}), WithModels(models))

		out, err := runCommand(t, cmd, "acquire", "-q")
		if err == nil {
			t.Fatalf("expected error (output: %s)", out)
		}
		if !errors.Is(err, ErrAcquireFailed) {
			t.Errorf("error = %v, want ErrAcquireFailed", err)
		}
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		cmd, _ := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		_, err := runCommand(t, cmd, "acquire", "transcription")
		if !errors.Is(err, ErrInvalidRole) {
			t.Errorf("error = %v, want ErrInvalidRole", err)
		}
	})

	t.Run("raw-only keeps weights without export", func(t *testing.T) {
		weights := []LogicalModel{
			{
				Role: RoleEmbedding, Required: true,
				Candidates: []SourceCandidate{{RepoID: "org/emb", Filename: "pytorch_model.bin", Kind: KindRawWeights}},
			},
		}
		exporter := &fakeExporter{output: onnxPayload(512)}
		cmd, dataDir := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(append([]byte{0x80, 0x02}, make([]byte, 1024)...))
		}), WithModels(weights), WithExporter(exporter))

		out, err := runCommand(t, cmd, "acquire", "--raw-only", "-q")
		if err != nil {
			t.Fatalf("acquire error = %v (output: %s)", err, out)
		}
		if exporter.calls != 0 {
			t.Errorf("exporter calls = %d, want 0", exporter.calls)
		}
		if _, err := os.Stat(filepath.Join(dataDir, "embedding.pt")); err != nil {
			t.Errorf("raw weights not persisted: %v", err)
		}
	})

	t.Run("readable summary names the outcome", func(t *testing.T) {
		cmd, _ := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(onnxPayload(2048))
		}), WithModels(models))

		out, err := runCommand(t, cmd, "acquire")
		if err != nil {
			t.Fatalf("acquire error = %v", err)
		}
		if !strings.Contains(out, "Overall: FULLY_READY") {
			t.Errorf("output missing readiness line:\n%s", out)
		}
		if !strings.Contains(out, "segmentation: portable-graph") {
			t.Errorf("output missing per-model line:\n%s", out)
		}
	})
}

func TestStatusCommand(t *testing.T) {
	cmd, dataDir := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Seed one canonical artifact directly.
	if err := os.WriteFile(filepath.Join(dataDir, "segmentation.onnx"), onnxPayload(1024), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, cmd, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "segmentation") || !strings.Contains(out, "portable-graph") {
		t.Errorf("output missing acquired role:\n%s", out)
	}
	if !strings.Contains(out, "(not acquired)") {
		t.Errorf("output missing absent role marker:\n%s", out)
	}
}

func TestVerifyCommand(t *testing.T) {
	t.Run("genuine store passes", func(t *testing.T) {
		cmd, dataDir := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		if err := os.WriteFile(filepath.Join(dataDir, "segmentation.onnx"), onnxPayload(1024), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := runCommand(t, cmd, "verify"); err != nil {
			t.Errorf("verify error = %v", err)
		}
	})

	t.Run("corrupt artifact fails", func(t *testing.T) {
		cmd, dataDir := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		if err := os.WriteFile(filepath.Join(dataDir, "segmentation.onnx"),
			[]byte("Access to model is restricted"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := runCommand(t, cmd, "verify")
		if !errors.Is(err, ErrValidityRejected) {
			t.Errorf("error = %v, want ErrValidityRejected", err)
		}
	})
}

func TestPathCommand(t *testing.T) {
	cmd, dataDir := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	artifact := filepath.Join(dataDir, "embedding.pt")
	if err := os.WriteFile(artifact, []byte("weights"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("present role", func(t *testing.T) {
		out, err := runCommand(t, cmd, "path", "embedding")
		if err != nil {
			t.Fatalf("path error = %v", err)
		}
		if strings.TrimSpace(out) != artifact {
			t.Errorf("output = %q, want %q", strings.TrimSpace(out), artifact)
		}
	})

	t.Run("absent role", func(t *testing.T) {
		_, err := runCommand(t, cmd, "path", "segmentation")
		if !errors.Is(err, ErrNotAcquired) {
			t.Errorf("error = %v, want ErrNotAcquired", err)
		}
	})
}

func TestPolicyInitCommand(t *testing.T) {
	cmd, _ := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	path := filepath.Join(t.TempDir(), "policy.yaml")

	if _, err := runCommand(t, cmd, "policy", "init", path); err != nil {
		t.Fatalf("policy init error = %v", err)
	}

	policy, err := LoadSniffPolicy(path)
	if err != nil {
		t.Fatalf("written policy does not load back: %v", err)
	}
	if len(policy.Signatures) == 0 {
		t.Error("written policy has no signatures")
	}
}

func TestCleanCommand(t *testing.T) {
	t.Run("with --yes", func(t *testing.T) {
		cmd, dataDir := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		staging := filepath.Join(dataDir, ".staging")
		if err := os.MkdirAll(staging, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(staging, "leftover"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := runCommand(t, cmd, "clean", "--yes"); err != nil {
			t.Fatalf("clean error = %v", err)
		}
		if _, err := os.Stat(staging); !os.IsNotExist(err) {
			t.Error("staging dir should be removed")
		}
	})

	t.Run("declined prompt aborts", func(t *testing.T) {
		cmd, dataDir := newTestCommand(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		staging := filepath.Join(dataDir, ".staging")
		if err := os.MkdirAll(staging, 0755); err != nil {
			t.Fatal(err)
		}

		cmd.SetIn(strings.NewReader("n\n"))
		out, err := runCommand(t, cmd, "clean")
		if err != nil {
			t.Fatalf("clean error = %v", err)
		}
		if !strings.Contains(out, "Aborted") {
			t.Errorf("output = %q, want abort notice", out)
		}
		if _, err := os.Stat(staging); err != nil {
			t.Error("staging dir should survive a declined prompt")
		}
	})
}

func TestConfirmPrompt(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := confirmPrompt(strings.NewReader(tt.input)); got != tt.want {
			t.Errorf("confirmPrompt(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{500, "500 B/s"},
		{2 * 1024, "2.0 KB/s"},
		{3 * 1024 * 1024, "3.0 MB/s"},
	}

	for _, tt := range tests {
		if got := formatSpeed(tt.speed); got != tt.want {
			t.Errorf("formatSpeed(%f) = %q, want %q", tt.speed, got, tt.want)
		}
	}
}

func TestOutputResult(t *testing.T) {
	var buf bytes.Buffer
	outputResult(&buf, PipelineResult{
		Overall: PartiallyReady,
		PerModel: map[Role]ModelResult{
			RoleSegmentation: {
				Role:    RoleSegmentation,
				Outcome: &ExportOutcome{Role: RoleSegmentation, Format: FormatPortableGraph, ByteSize: 6 * 1024 * 1024},
			},
			RoleEmbedding: {
				Role: RoleEmbedding,
				Outcome: &ExportOutcome{
					Role: RoleEmbedding, Format: FormatRawWeights, ByteSize: 70 * 1024 * 1024,
					Degraded: true, DegradationReason: string(DegradationNotTraceable),
				},
			},
		},
	})

	out := buf.String()
	if !strings.Contains(out, "segmentation: portable-graph") {
		t.Errorf("output missing segmentation line:\n%s", out)
	}
	if !strings.Contains(out, "graph export not achieved: architecture-not-traceable") {
		t.Errorf("output missing degradation note:\n%s", out)
	}
	if !strings.Contains(out, "Overall: PARTIALLY_READY") {
		t.Errorf("output missing overall line:\n%s", out)
	}
}

func TestFirstModelError(t *testing.T) {
	sentinel := errors.New("seg failed")
	result := PipelineResult{
		Overall: Failed,
		PerModel: map[Role]ModelResult{
			RoleEmbedding:    {Role: RoleEmbedding},
			RoleSegmentation: {Role: RoleSegmentation, Err: sentinel},
		},
	}

	if err := firstModelError(result); !errors.Is(err, sentinel) {
		t.Errorf("firstModelError() = %v, want the first per-model error", err)
	}

	empty := PipelineResult{Overall: Failed, PerModel: map[Role]ModelResult{}}
	if err := firstModelError(empty); !errors.Is(err, ErrAcquireFailed) {
		t.Errorf("firstModelError() on empty result = %v, want ErrAcquireFailed", err)
	}
}
