package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewManagerValidation(t *testing.T) {
	t.Run("missing AppName", func(t *testing.T) {
		_, err := NewManager(Config{HubURL: "https://hub.example.com"})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing HubURL", func(t *testing.T) {
		_, err := NewManager(Config{AppName: "testapp"})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("valid config", func(t *testing.T) {
		mgr, err := NewManager(Config{
			AppName: "testapp",
			HubURL:  "https://hub.example.com",
			DataDir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if mgr == nil {
			t.Fatal("expected a manager")
		}
	})
}

func TestNewManagerDefaultModels(t *testing.T) {
	mgr, err := NewManager(Config{
		AppName: "testapp",
		HubURL:  "https://hub.example.com",
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	models := mgr.Models()
	if len(models) != len(DefaultModels()) {
		t.Errorf("Models() = %d entries, want the default set (%d)", len(models), len(DefaultModels()))
	}
}

func TestNewManagerPolicyPath(t *testing.T) {
	t.Run("loads policy file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		if err := SaveSniffPolicy(path, DefaultSniffPolicy()); err != nil {
			t.Fatal(err)
		}

		_, err := NewManager(Config{
			AppName:    "testapp",
			HubURL:     "https://hub.example.com",
			DataDir:    t.TempDir(),
			PolicyPath: path,
		})
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
	})

	t.Run("invalid policy file fails construction", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		if err := os.WriteFile(path, []byte("signatures: [broken"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := NewManager(Config{
			AppName:    "testapp",
			HubURL:     "https://hub.example.com",
			DataDir:    t.TempDir(),
			PolicyPath: path,
		})
		if err == nil {
			t.Fatal("expected error for invalid policy file")
		}
	})

	t.Run("WithSniffPolicy wins over PolicyPath", func(t *testing.T) {
		// An unreadable path must not matter when the option supplies the
		// policy directly.
		_, err := NewManager(Config{
			AppName:    "testapp",
			HubURL:     "https://hub.example.com",
			DataDir:    t.TempDir(),
			PolicyPath: filepath.Join(t.TempDir(), "absent.yaml"),
		}, WithSniffPolicy(DefaultSniffPolicy()))
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
	})
}
