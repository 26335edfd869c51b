//go:build linux

package models

import (
	"os"
	"path/filepath"
)

// getDefaultDataDir returns the default store directory on Linux, following
// the XDG base directory spec: $XDG_DATA_HOME/<appName>/models when set,
// ~/.local/share/<appName>/models otherwise.
func getDefaultDataDir(appName string) (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, appName, "models"), nil
}
