package models

import "errors"

// Sentinel errors for model acquisition.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrNotFound indicates the hub has no artifact under that name.
	ErrNotFound = errors.New("models: artifact not found in hub")

	// ErrConsentRequired indicates the hub rejected the request pending a
	// user agreement. Operator-actionable; never retried automatically.
	ErrConsentRequired = errors.New("models: hub requires consent")

	// ErrTransport indicates a network or IO failure, including timeouts.
	ErrTransport = errors.New("models: network error")

	// ErrValidityRejected indicates bytes were fetched but content
	// sniffing judged them not to be a genuine model payload.
	ErrValidityRejected = errors.New("models: fetched content is not a genuine model")

	// ErrExportUnsupported indicates the model loaded but its architecture
	// cannot be traced into a portable graph. Not a pipeline failure; the
	// raw weights remain as a degraded outcome.
	ErrExportUnsupported = errors.New("models: graph export not supported")

	// ErrHashMismatch indicates downloaded data failed hash verification.
	ErrHashMismatch = errors.New("models: hash verification failed")

	// ErrStorage indicates a filesystem operation failed.
	ErrStorage = errors.New("models: storage error")

	// ErrInvalidRole indicates an unknown model role name.
	ErrInvalidRole = errors.New("models: invalid model role")

	// ErrNoCandidates indicates a required logical model with an empty
	// candidate list.
	ErrNoCandidates = errors.New("models: logical model has no source candidates")

	// ErrNotAcquired indicates the store holds no artifact for the role.
	ErrNotAcquired = errors.New("models: artifact not acquired")

	// ErrAcquireFailed indicates no candidate yielded a genuine artifact
	// for a required model.
	ErrAcquireFailed = errors.New("models: required model could not be acquired")

	// ErrInvalidPolicy indicates a sniff policy file could not be parsed.
	ErrInvalidPolicy = errors.New("models: invalid sniff policy")
)
