//go:build windows

package models

import (
	"os"
	"path/filepath"
)

// getDefaultDataDir returns the default store directory on Windows:
// %APPDATA%\<appName>\models, falling back to the conventional roaming
// profile path when the variable is unset.
func getDefaultDataDir(appName string) (string, error) {
	base := os.Getenv("APPDATA")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(base, appName, "models"), nil
}
