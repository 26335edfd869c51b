package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "ErrNotFound",
			err:     ErrNotFound,
			wantMsg: "models: artifact not found in hub",
		},
		{
			name:    "ErrConsentRequired",
			err:     ErrConsentRequired,
			wantMsg: "models: hub requires consent",
		},
		{
			name:    "ErrTransport",
			err:     ErrTransport,
			wantMsg: "models: network error",
		},
		{
			name:    "ErrValidityRejected",
			err:     ErrValidityRejected,
			wantMsg: "models: fetched content is not a genuine model",
		},
		{
			name:    "ErrExportUnsupported",
			err:     ErrExportUnsupported,
			wantMsg: "models: graph export not supported",
		},
		{
			name:    "ErrHashMismatch",
			err:     ErrHashMismatch,
			wantMsg: "models: hash verification failed",
		},
		{
			name:    "ErrStorage",
			err:     ErrStorage,
			wantMsg: "models: storage error",
		},
		{
			name:    "ErrInvalidRole",
			err:     ErrInvalidRole,
			wantMsg: "models: invalid model role",
		},
		{
			name:    "ErrNoCandidates",
			err:     ErrNoCandidates,
			wantMsg: "models: logical model has no source candidates",
		},
		{
			name:    "ErrNotAcquired",
			err:     ErrNotAcquired,
			wantMsg: "models: artifact not acquired",
		},
		{
			name:    "ErrAcquireFailed",
			err:     ErrAcquireFailed,
			wantMsg: "models: required model could not be acquired",
		},
		{
			name:    "ErrInvalidPolicy",
			err:     ErrInvalidPolicy,
			wantMsg: "models: invalid sniff policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !strings.HasPrefix(tt.err.Error(), "models: ") {
				t.Errorf("error message %q missing package prefix", tt.err.Error())
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: segmentation: no luck", ErrAcquireFailed)

	if !errors.Is(wrapped, ErrAcquireFailed) {
		t.Error("wrapped error should match ErrAcquireFailed")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error should not match unrelated sentinel")
	}
}

func TestExportErrorUnwrapsToSentinel(t *testing.T) {
	err := &ExportError{Class: DegradationNotTraceable, Detail: "recurrent layers"}

	if !errors.Is(err, ErrExportUnsupported) {
		t.Error("ExportError should unwrap to ErrExportUnsupported")
	}

	var exportErr *ExportError
	wrapped := fmt.Errorf("exporting segmentation: %w", err)
	if !errors.As(wrapped, &exportErr) {
		t.Fatal("errors.As should recover *ExportError through wrapping")
	}
	if exportErr.Class != DegradationNotTraceable {
		t.Errorf("Class = %q, want %q", exportErr.Class, DegradationNotTraceable)
	}
}
