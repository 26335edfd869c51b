// Package models acquires speaker-diarization model artifacts from a remote
// model hub and prepares them for local inference.
//
// The package fills two logical roles, segmentation and embedding, each backed
// by an ordered list of source candidates. Candidates are tried in order of
// preference: the canonical hub entry first (which may be consent-gated),
// community mirrors after it. The first candidate that yields a genuine model
// payload wins; the rest are never attempted.
//
// # Content Validation
//
// Model hubs that gate artifacts behind a consent agreement commonly answer a
// download request with HTTP 200 and an access-denied page in the body.
// Downloads are therefore never trusted on transport status alone: every
// fetched artifact is sniffed for a known binary format signature before it is
// promoted into the artifact store. The signature and denial-phrase sets are
// policy, loadable from a YAML file, not hard-coded assumptions.
//
// # Graph Export
//
// Artifacts fetched as framework-native weights are handed to an external
// exporter that attempts to produce a portable inference graph with a declared
// input/output signature. Export is best effort: architectures that cannot be
// traced into a straight-line tensor graph degrade to the raw weights, which
// is a valid terminal state reported distinctly from failure.
//
// # Storage
//
// Artifacts are stored under a platform-appropriate directory:
//   - Linux: $XDG_DATA_HOME/<app>/models/ or ~/.local/share/<app>/models/
//   - macOS: ~/Library/Application Support/<app>/models/
//   - Windows: %APPDATA%\<app>\models\
//
// Each role owns exactly one canonical file in the store, either a portable
// graph or raw weights, never both. Downloads are staged into a private
// directory and promoted by rename only after validation succeeds, so the
// canonical path is always either absent or valid.
//
// The storage location can be overridden via Config.DataDir or the
// <APPNAME>_MODELS_DIR environment variable.
package models
