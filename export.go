package models

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultExporterName is the graph exporter executable looked up on $PATH
// when Config.ExporterPath is empty.
const DefaultExporterName = "diar-graph-export"

// DegradationClass classifies why a graph export failed.
type DegradationClass string

const (
	// DegradationNotTraceable marks architectures that cannot be traced
	// into a straight-line tensor graph (recurrent layers, custom
	// signal-processing ops). The common case for diarization models.
	DegradationNotTraceable DegradationClass = "architecture-not-traceable"

	// DegradationExportError covers every other export failure.
	DegradationExportError DegradationClass = "export-error"
)

// DynamicAxis declares one dynamic dimension of the exported graph.
type DynamicAxis struct {
	// Name labels the axis, e.g. "batch" or "time".
	Name string

	// Dim is the input dimension index the axis applies to.
	Dim int
}

// ExportSignature is the declared input/output contract of a portable graph
// export. The shape is a static property of the model's role, not discovered
// at runtime.
type ExportSignature struct {
	// InputShape is the synthetic input shape used for tracing.
	InputShape []int

	// InputName and OutputName are the declared tensor names.
	InputName  string
	OutputName string

	// DynamicAxes are the dimensions left dynamic in the export, in
	// declaration order.
	DynamicAxes []DynamicAxis

	// Opset is the graph operator-set version to target.
	Opset int
}

// roleSignature returns the export signature for a role.
//
// Segmentation models consume mel-spectrogram frames (batch, channel, mels,
// frames) with dynamic batch and time axes; embedding models consume raw
// waveform (batch, samples) with a dynamic batch axis.
func roleSignature(role Role) ExportSignature {
	switch role {
	case RoleSegmentation:
		return ExportSignature{
			InputShape: []int{1, 1, 80, 300},
			InputName:  "input",
			OutputName: "output",
			DynamicAxes: []DynamicAxis{
				{Name: "batch", Dim: 0},
				{Name: "time", Dim: 3},
			},
			Opset: 11,
		}
	case RoleEmbedding:
		return ExportSignature{
			InputShape: []int{1, 16000},
			InputName:  "input",
			OutputName: "output",
			DynamicAxes: []DynamicAxis{
				{Name: "batch", Dim: 0},
			},
			Opset: 11,
		}
	}
	return ExportSignature{}
}

// ExportRequest asks an Exporter to convert framework-native weights into a
// portable graph at DestPath.
type ExportRequest struct {
	// Role is the logical model being exported.
	Role Role

	// WeightsPath is the framework-native weights file.
	WeightsPath string

	// DestPath is where the portable graph must be written.
	DestPath string

	// Signature is the declared input/output contract.
	Signature ExportSignature
}

// Exporter attempts portable-graph exports. Implementations must return an
// *ExportError for failures that should degrade to raw weights rather than
// fail the pipeline.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) error
}

// ExportError is a classified export failure. It wraps ErrExportUnsupported
// so callers can errors.Is it, and carries the class that becomes the
// outcome's degradation reason.
type ExportError struct {
	// Class is the failure classification.
	Class DegradationClass

	// Detail is the exporter's diagnostic output.
	Detail string
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("export failed: %s", e.Class)
	}
	return fmt.Sprintf("export failed: %s: %s", e.Class, e.Detail)
}

// Unwrap makes errors.Is(err, ErrExportUnsupported) hold.
func (e *ExportError) Unwrap() error {
	return ErrExportUnsupported
}

// commandExporter invokes an external exporter executable. The conversion
// algorithm itself lives outside this module; this side only declares the
// signature and interprets the outcome.
type commandExporter struct {
	// path is the exporter executable.
	path string

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newCommandExporter creates an exporter that shells out to path, or to
// DefaultExporterName on $PATH when path is empty.
func newCommandExporter(path string, logger Logger) *commandExporter {
	if path == "" {
		path = DefaultExporterName
	}
	return &commandExporter{path: path, logger: logger}
}

// Ensure commandExporter implements Exporter.
var _ Exporter = (*commandExporter)(nil)

// Export runs the exporter with the declared signature and classifies the
// result. Any failure is reported as an *ExportError; the caller decides
// whether to degrade or abort.
func (e *commandExporter) Export(ctx context.Context, req ExportRequest) error {
	args := []string{
		"--weights", req.WeightsPath,
		"--output", req.DestPath,
		"--input-shape", joinInts(req.Signature.InputShape),
		"--input-name", req.Signature.InputName,
		"--output-name", req.Signature.OutputName,
		"--opset", strconv.Itoa(req.Signature.Opset),
	}
	for _, axis := range req.Signature.DynamicAxes {
		args = append(args, "--dynamic-axis", fmt.Sprintf("%s=%d", axis.Name, axis.Dim))
	}

	cmd := exec.CommandContext(ctx, e.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if e.logger != nil {
		e.logger.Debug("running graph exporter", "exporter", e.path, "role", string(req.Role))
	}

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return &ExportError{Class: classifyExportFailure(detail), Detail: detail}
	}

	// The exporter exited cleanly; the graph must actually be there.
	info, err := os.Stat(req.DestPath)
	if err != nil || info.Size() == 0 {
		return &ExportError{
			Class:  DegradationExportError,
			Detail: "exporter reported success but produced no graph file",
		}
	}

	return nil
}

// tracingFailureMarkers are stderr substrings that identify a model whose
// architecture cannot be traced into a straight-line graph, as opposed to an
// environmental or input error.
var tracingFailureMarkers = []string{
	"not traceable",
	"tracing",
	"tracer",
	"not supported",
	"unsupported",
	"recurrent",
	"lstm",
	"gru",
	"custom op",
	"sincnet",
}

// classifyExportFailure maps exporter diagnostics to a degradation class.
// Classification depends only on the diagnostic content, so re-attempting a
// non-traceable model always yields the same class.
func classifyExportFailure(detail string) DegradationClass {
	lower := strings.ToLower(detail)
	for _, marker := range tracingFailureMarkers {
		if strings.Contains(lower, marker) {
			return DegradationNotTraceable
		}
	}
	return DegradationExportError
}

// joinInts renders a shape as "1,1,80,300".
func joinInts(shape []int) string {
	parts := make([]string, len(shape))
	for i, v := range shape {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
