package models

import (
	"fmt"
	"time"
)

// Config configures the models module.
type Config struct {
	// AppName determines the storage directory name and the prefix of the
	// environment variables the module reads.
	// Example: "audioscribe" → ~/.local/share/audioscribe/models/ on Linux
	AppName string

	// HubURL is the base URL of the model hub.
	// Example: "https://huggingface.co"
	HubURL string

	// DataDir overrides the default data directory.
	// If empty, uses platform-appropriate default.
	// Can also be set via environment variable: <APPNAME>_MODELS_DIR
	DataDir string

	// FetchTimeout bounds a single artifact download.
	// A timeout is reported as a transport error. If zero,
	// DefaultFetchTimeout is used.
	FetchTimeout time.Duration

	// ExporterPath is the path to the external graph exporter executable.
	// If empty, export is attempted with DefaultExporterName on $PATH.
	ExporterPath string

	// PolicyPath optionally points to a YAML sniff policy file that
	// replaces the built-in signature and denial-phrase sets.
	PolicyPath string
}

// Role identifies the function an artifact fills in the diarization pipeline.
type Role string

// The roles the pipeline knows how to acquire.
const (
	// RoleSegmentation is the speech-activity segmentation model.
	RoleSegmentation Role = "segmentation"

	// RoleEmbedding is the speaker embedding model.
	RoleEmbedding Role = "embedding"
)

// ParseRole parses a role name. Returns ErrInvalidRole for unknown names.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSegmentation, RoleEmbedding:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// ArtifactKind describes what a source candidate serves.
type ArtifactKind int

const (
	// KindPortableGraph is a serialized inference graph usable directly.
	KindPortableGraph ArtifactKind = iota

	// KindRawWeights is a framework-native parameter state that needs a
	// graph export before the inference engine can consume it.
	KindRawWeights
)

// String returns the kind name.
func (k ArtifactKind) String() string {
	switch k {
	case KindPortableGraph:
		return "portable-graph"
	case KindRawWeights:
		return "raw-weights"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// SourceCandidate describes one fetch attempt against the hub.
// Candidates are immutable once constructed.
type SourceCandidate struct {
	// RepoID is the hub repository, e.g. "pyannote/segmentation-3.0".
	RepoID string `json:"repo_id"`

	// Filename is the artifact file within the repository.
	Filename string `json:"filename"`

	// Kind is what the file contains.
	Kind ArtifactKind `json:"kind"`

	// RequiresConsent marks repositories gated behind a user agreement.
	// Fetching them without a granted token yields a consent-required
	// outcome rather than a transport failure.
	RequiresConsent bool `json:"requires_consent,omitempty"`

	// SHA256 optionally pins the expected content hash (lowercase hex).
	// A mismatch rejects the candidate as not genuine.
	SHA256 string `json:"sha256,omitempty"`
}

// String returns the canonical "repo/filename" form.
func (c SourceCandidate) String() string {
	return c.RepoID + "/" + c.Filename
}

// LogicalModel is a role the store must fill, with its ordered fallback
// candidates. Order encodes preference: first is the canonical hub entry,
// later entries are community fallbacks.
type LogicalModel struct {
	// Role identifies the artifact's function.
	Role Role `json:"role"`

	// Candidates is the ordered fetch preference list. Must be non-empty
	// when Required is set.
	Candidates []SourceCandidate `json:"candidates"`

	// Required marks models whose absence fails the whole run.
	Required bool `json:"required"`
}

// FetchStatus classifies the transport-level result of one fetch attempt.
type FetchStatus int

const (
	// FetchSuccess means the hub returned payload bytes. The bytes may
	// still fail content validation.
	FetchSuccess FetchStatus = iota

	// FetchNotFound means the hub has no artifact under that name.
	FetchNotFound

	// FetchConsentRequired means the hub rejected the request pending a
	// user agreement or valid token.
	FetchConsentRequired

	// FetchTransportError means a network or IO failure, including
	// timeouts.
	FetchTransportError
)

// String returns the status name.
func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchNotFound:
		return "not-found"
	case FetchConsentRequired:
		return "consent-required"
	case FetchTransportError:
		return "transport-error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// FetchOutcome is the result of one fetch attempt. Created once per attempt
// and never mutated; it is consumed by the validity check and then discarded.
type FetchOutcome struct {
	// Candidate is the attempted source.
	Candidate SourceCandidate `json:"candidate"`

	// Status classifies the transport result.
	Status FetchStatus `json:"status"`

	// StagedPath is where the payload landed, set only on success.
	// The file lives in the staging area until promoted.
	StagedPath string `json:"-"`

	// ByteSize is the payload size, set only on success.
	ByteSize int64 `json:"byte_size,omitempty"`

	// Detail is a human-actionable diagnostic for failures. For
	// consent-required outcomes it names the hub location that needs
	// consent granted.
	Detail string `json:"detail,omitempty"`
}

// ValidityVerdict is the result of content-sniffing one fetched artifact.
// It is a pure function of the artifact's leading bytes and size.
type ValidityVerdict struct {
	// Genuine reports whether the bytes look like a real model payload
	// rather than an access-denied page served with a success status.
	Genuine bool `json:"genuine"`

	// Reason explains a rejection, or carries an advisory note (for
	// example a below-threshold size) even when Genuine is true.
	Reason string `json:"reason,omitempty"`
}

// ExportFormat is the on-disk format of a persisted artifact.
type ExportFormat int

const (
	// FormatPortableGraph is a framework-independent inference graph.
	FormatPortableGraph ExportFormat = iota

	// FormatRawWeights is a framework-native serialized parameter state.
	FormatRawWeights
)

// String returns the format name.
func (f ExportFormat) String() string {
	switch f {
	case FormatPortableGraph:
		return "portable-graph"
	case FormatRawWeights:
		return "raw-weights"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ExportOutcome is the final persisted state for one logical model.
type ExportOutcome struct {
	// Role is the logical model this outcome belongs to.
	Role Role `json:"role"`

	// Format is the persisted artifact format.
	Format ExportFormat `json:"format"`

	// Path is the canonical artifact path in the store.
	Path string `json:"path"`

	// ByteSize is the persisted artifact size.
	ByteSize int64 `json:"byte_size"`

	// Degraded reports that a graph export was attempted and failed, and
	// the raw weights were persisted instead.
	Degraded bool `json:"degraded"`

	// DegradationReason classifies why export failed, set only when
	// Degraded is true.
	DegradationReason string `json:"degradation_reason,omitempty"`
}

// CandidateFailure records why one candidate was passed over.
type CandidateFailure struct {
	// Candidate is the source that failed.
	Candidate SourceCandidate `json:"candidate"`

	// Status is the transport-level classification. Content-rejected
	// downloads carry FetchSuccess here; Rejected distinguishes them.
	Status FetchStatus `json:"status"`

	// Rejected marks candidates that downloaded fine but failed the
	// validity check.
	Rejected bool `json:"rejected,omitempty"`

	// Reason is the diagnostic detail, in operator-readable form.
	Reason string `json:"reason"`
}

// ModelResult is the terminal state of one logical model's resolution.
type ModelResult struct {
	// Role is the logical model.
	Role Role `json:"role"`

	// Outcome is the persisted artifact, nil when no candidate yielded a
	// genuine payload.
	Outcome *ExportOutcome `json:"outcome,omitempty"`

	// Failures lists the candidates rejected before the winning one, in
	// attempt order. When Outcome is nil it covers every candidate.
	Failures []CandidateFailure `json:"failures,omitempty"`

	// Err is non-nil when the model could not be filled. It wraps
	// ErrAcquireFailed and concatenates the per-candidate reasons.
	Err error `json:"-"`
}

// Readiness is the overall terminal outcome of an acquisition run.
type Readiness int

const (
	// FullyReady means every model resolved to a valid portable graph.
	FullyReady Readiness = iota

	// PartiallyReady means every required model resolved, but at least
	// one artifact is raw weights or an optional model is missing.
	PartiallyReady

	// Failed means at least one required model yielded no genuine
	// artifact.
	Failed
)

// String returns the readiness name.
func (r Readiness) String() string {
	switch r {
	case FullyReady:
		return "fully-ready"
	case PartiallyReady:
		return "partially-ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("readiness(%d)", int(r))
}

// PipelineResult is the outcome of one acquisition run. Produced once,
// immutable thereafter.
type PipelineResult struct {
	// PerModel maps each role to its resolution result.
	PerModel map[Role]ModelResult `json:"per_model"`

	// Overall folds the per-model results into a terminal state.
	Overall Readiness `json:"overall"`
}

// ArtifactStatus describes what the store currently holds for one role.
type ArtifactStatus struct {
	// Role is the logical model.
	Role Role `json:"role"`

	// Present reports whether a canonical artifact exists.
	Present bool `json:"present"`

	// Format is the artifact format, meaningful only when Present.
	Format ExportFormat `json:"format"`

	// Path is the canonical path, set only when Present.
	Path string `json:"path,omitempty"`

	// ByteSize is the artifact size, set only when Present.
	ByteSize int64 `json:"byte_size,omitempty"`

	// ModTime is the artifact's modification time, set only when Present.
	ModTime time.Time `json:"mod_time,omitempty"`
}

// VerifyReport is the result of re-sniffing one stored artifact.
type VerifyReport struct {
	// Status is the store entry that was checked.
	Status ArtifactStatus `json:"status"`

	// Verdict is the sniff result, meaningful only when the artifact is
	// present.
	Verdict ValidityVerdict `json:"verdict"`
}

// AcquireProgress reports progress during an acquisition run.
type AcquireProgress struct {
	// Role is the model currently being resolved.
	Role Role

	// Phase is "fetch", "export" or "done".
	Phase string

	// Candidate is the source being fetched during the fetch phase.
	Candidate SourceCandidate

	// BytesFetched is the bytes downloaded so far for this candidate.
	BytesFetched int64

	// BytesTotal is the expected payload size, or 0 when the hub did not
	// declare one.
	BytesTotal int64
}

// DefaultModels returns the standard logical models with their fallback
// candidate lists. The canonical pyannote repositories come first; they are
// consent-gated, so community mirrors follow, and framework-native weights
// come last as conversion fodder.
func DefaultModels() []LogicalModel {
	return []LogicalModel{
		{
			Role:     RoleSegmentation,
			Required: true,
			Candidates: []SourceCandidate{
				{RepoID: "pyannote/segmentation-3.0", Filename: "model.onnx", Kind: KindPortableGraph, RequiresConsent: true},
				{RepoID: "onnx-community/pyannote-segmentation-3.0", Filename: "onnx/model.onnx", Kind: KindPortableGraph},
				{RepoID: "pyannote/segmentation-3.0", Filename: "pytorch_model.bin", Kind: KindRawWeights, RequiresConsent: true},
			},
		},
		{
			Role:     RoleEmbedding,
			Required: true,
			Candidates: []SourceCandidate{
				{RepoID: "pyannote/embedding", Filename: "model.onnx", Kind: KindPortableGraph, RequiresConsent: true},
				{RepoID: "pyannote/wespeaker-voxceleb-resnet34-LM", Filename: "model.onnx", Kind: KindPortableGraph, RequiresConsent: true},
				{RepoID: "speechbrain/spkrec-ecapa-voxceleb", Filename: "model.onnx", Kind: KindPortableGraph},
				{RepoID: "pyannote/embedding", Filename: "pytorch_model.bin", Kind: KindRawWeights, RequiresConsent: true},
			},
		},
	}
}
