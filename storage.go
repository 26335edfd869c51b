package models

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLockTimeout is the default timeout for acquiring the run lock.
const DefaultLockTimeout = 30 * time.Second

// Canonical artifact extensions per format.
const (
	graphExt = ".onnx"
	rawExt   = ".pt"
)

// storage is the artifact store: a directory keyed by canonical filename per
// role. Downstream consumers read exactly these names, so the discipline is
// write-new-then-promote, never in-place mutation: a canonical path is always
// either absent or a previously validated artifact.
type storage struct {
	// baseDir is the store directory.
	baseDir string

	// appName is the application name, used for env var construction.
	appName string

	// lockTimeout is the maximum duration to wait for the run lock.
	lockTimeout time.Duration
}

// envVarName constructs an environment variable name from the app name.
// Example: envVarName("audioscribe", "MODELS_DIR") returns
// "AUDIOSCRIBE_MODELS_DIR".
func envVarName(appName, suffix string) string {
	return strings.ToUpper(appName) + "_" + suffix
}

// newStorage creates a storage instance for the given configuration.
func newStorage(cfg Config) (*storage, error) {
	var baseDir string

	// Priority: env var > Config.DataDir > platform default
	if envDir := os.Getenv(envVarName(cfg.AppName, "MODELS_DIR")); envDir != "" {
		baseDir = envDir
	} else if cfg.DataDir != "" {
		baseDir = cfg.DataDir
	} else {
		defaultDir, err := getDefaultDataDir(cfg.AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to get default data dir: %w", err)
		}
		baseDir = defaultDir
	}

	s := &storage{baseDir: baseDir, appName: cfg.AppName, lockTimeout: DefaultLockTimeout}

	if err := s.ensureDir(baseDir); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return s, nil
}

// ensureDir creates a directory and all parent directories if they don't exist.
func (s *storage) ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", ErrStorage, path, err)
	}
	return nil
}

// stagingDir returns the private staging area for in-flight downloads.
func (s *storage) stagingDir() string {
	return filepath.Join(s.baseDir, ".staging")
}

// newStagingPath returns a fresh path in the staging area. Names are random
// so aborted runs never collide with live ones.
func (s *storage) newStagingPath() (string, error) {
	if err := s.ensureDir(s.stagingDir()); err != nil {
		return "", err
	}
	return filepath.Join(s.stagingDir(), uuid.NewString()), nil
}

// canonicalPath returns the store path for a role and format.
func (s *storage) canonicalPath(role Role, format ExportFormat) string {
	ext := graphExt
	if format == FormatRawWeights {
		ext = rawExt
	}
	return filepath.Join(s.baseDir, string(role)+ext)
}

// promote moves a validated staged file onto the canonical path for the role
// by rename, then removes the other format's file so the role never has both.
// The staged file must live on the same filesystem as the store, which the
// staging area guarantees.
func (s *storage) promote(stagedPath string, role Role, format ExportFormat) (string, error) {
	dest := s.canonicalPath(role, format)

	if err := os.Rename(stagedPath, dest); err != nil {
		return "", fmt.Errorf("%w: promoting %s artifact: %v", ErrStorage, role, err)
	}

	// Exactly one artifact per role: drop the superseded format.
	other := FormatRawWeights
	if format == FormatRawWeights {
		other = FormatPortableGraph
	}
	if err := os.Remove(s.canonicalPath(role, other)); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("%w: removing superseded %s artifact: %v", ErrStorage, role, err)
	}

	return dest, nil
}

// removeStaged deletes a staged file, ignoring files already gone.
func (s *storage) removeStaged(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		// Best effort: an orphaned staging file is reclaimed by cleanStaging.
		_ = err
	}
}

// cleanStaging removes the staging directory and everything in it.
func (s *storage) cleanStaging() error {
	if err := os.RemoveAll(s.stagingDir()); err != nil {
		return fmt.Errorf("%w: failed to remove staging directory: %v", ErrStorage, err)
	}
	return nil
}

// artifactFor reports what the store currently holds for a role. The
// portable graph is checked first since it supersedes raw weights.
func (s *storage) artifactFor(role Role) (ArtifactStatus, error) {
	for _, format := range []ExportFormat{FormatPortableGraph, FormatRawWeights} {
		path := s.canonicalPath(role, format)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return ArtifactStatus{}, fmt.Errorf("%w: stat %s: %v", ErrStorage, path, err)
		}
		if info.IsDir() {
			return ArtifactStatus{}, fmt.Errorf("%w: %s is a directory", ErrStorage, path)
		}
		return ArtifactStatus{
			Role:     role,
			Present:  true,
			Format:   format,
			Path:     path,
			ByteSize: info.Size(),
			ModTime:  info.ModTime(),
		}, nil
	}
	return ArtifactStatus{Role: role}, nil
}

// stagingEntries lists leftover staged files, oldest first.
func (s *storage) stagingEntries() ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(s.stagingDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading staging directory: %v", ErrStorage, err)
	}
	return entries, nil
}

// runLock returns the cross-process lock guarding an acquisition run. Two
// concurrent runs would race each other's promotes for the same canonical
// names.
func (s *storage) runLock() (Locker, error) {
	lockPath := filepath.Join(s.baseDir, ".acquire.lock")
	lock, err := newFileLock(lockPath, s.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create run lock: %v", ErrStorage, err)
	}
	return lock, nil
}
