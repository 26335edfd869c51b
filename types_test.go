package models

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"segmentation", RoleSegmentation, false},
		{"embedding", RoleEmbedding, false},
		{"", "", true},
		{"Segmentation", "", true},
		{"diarization", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRole(%q) expected error", tt.input)
				}
				if !errors.Is(err, ErrInvalidRole) {
					t.Errorf("expected ErrInvalidRole, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"KindPortableGraph", KindPortableGraph.String(), "portable-graph"},
		{"KindRawWeights", KindRawWeights.String(), "raw-weights"},
		{"FetchSuccess", FetchSuccess.String(), "success"},
		{"FetchNotFound", FetchNotFound.String(), "not-found"},
		{"FetchConsentRequired", FetchConsentRequired.String(), "consent-required"},
		{"FetchTransportError", FetchTransportError.String(), "transport-error"},
		{"FormatPortableGraph", FormatPortableGraph.String(), "portable-graph"},
		{"FormatRawWeights", FormatRawWeights.String(), "raw-weights"},
		{"FullyReady", FullyReady.String(), "fully-ready"},
		{"PartiallyReady", PartiallyReady.String(), "partially-ready"},
		{"Failed", Failed.String(), "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("String() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSourceCandidateString(t *testing.T) {
	c := SourceCandidate{RepoID: "pyannote/segmentation-3.0", Filename: "model.onnx"}
	want := "pyannote/segmentation-3.0/model.onnx"
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDefaultModels(t *testing.T) {
	models := DefaultModels()

	if len(models) != 2 {
		t.Fatalf("expected 2 logical models, got %d", len(models))
	}

	byRole := make(map[Role]LogicalModel, len(models))
	for _, m := range models {
		byRole[m.Role] = m
	}

	for _, role := range []Role{RoleSegmentation, RoleEmbedding} {
		t.Run(string(role), func(t *testing.T) {
			m, ok := byRole[role]
			if !ok {
				t.Fatalf("missing logical model for role %s", role)
			}
			if !m.Required {
				t.Error("default models should be required")
			}
			if len(m.Candidates) == 0 {
				t.Fatal("candidate list must not be empty")
			}

			// The preferred source comes first and is already a portable
			// graph; the raw-weights fallback sits at the end.
			if m.Candidates[0].Kind != KindPortableGraph {
				t.Errorf("first candidate kind = %s, want portable-graph", m.Candidates[0].Kind)
			}
			last := m.Candidates[len(m.Candidates)-1]
			if last.Kind != KindRawWeights {
				t.Errorf("last candidate kind = %s, want raw-weights", last.Kind)
			}

			for i, c := range m.Candidates {
				if c.RepoID == "" || c.Filename == "" {
					t.Errorf("candidate %d incomplete: %+v", i, c)
				}
			}
		})
	}
}
