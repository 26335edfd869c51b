package models

import (
	"net/http"
	"testing"
)

func TestManagerOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := newManagerConfig()
		if cfg.httpClient != http.DefaultClient {
			t.Error("default HTTP client should be http.DefaultClient")
		}
		if cfg.logger != nil {
			t.Error("logging should be disabled by default")
		}
		if cfg.models != nil {
			t.Error("model set should default to nil (resolved later)")
		}
	})

	t.Run("WithHTTPClient", func(t *testing.T) {
		custom := &http.Client{}
		cfg := newManagerConfig()
		WithHTTPClient(custom)(cfg)
		if cfg.httpClient != HTTPClient(custom) {
			t.Error("WithHTTPClient did not set the client")
		}
	})

	t.Run("WithCredentials", func(t *testing.T) {
		cfg := newManagerConfig()
		WithCredentials(StaticCredential("tok"))(cfg)
		if cfg.cred == nil {
			t.Error("WithCredentials did not set the provider")
		}
	})

	t.Run("WithSniffPolicy", func(t *testing.T) {
		cfg := newManagerConfig()
		WithSniffPolicy(DefaultSniffPolicy())(cfg)
		if cfg.policy == nil {
			t.Error("WithSniffPolicy did not set the policy")
		}
	})

	t.Run("WithExporter", func(t *testing.T) {
		cfg := newManagerConfig()
		WithExporter(&fakeExporter{})(cfg)
		if cfg.exporter == nil {
			t.Error("WithExporter did not set the exporter")
		}
	})

	t.Run("WithModels", func(t *testing.T) {
		cfg := newManagerConfig()
		WithModels([]LogicalModel{{Role: RoleSegmentation}})(cfg)
		if len(cfg.models) != 1 {
			t.Error("WithModels did not set the model set")
		}
	})
}

func TestAcquireOptions(t *testing.T) {
	t.Run("WithRoles", func(t *testing.T) {
		cfg := &acquireConfig{}
		WithRoles(RoleEmbedding)(cfg)
		if len(cfg.roles) != 1 || cfg.roles[0] != RoleEmbedding {
			t.Errorf("roles = %v, want [embedding]", cfg.roles)
		}
	})

	t.Run("WithProgress", func(t *testing.T) {
		cfg := &acquireConfig{}
		WithProgress(func(AcquireProgress) {})(cfg)
		if cfg.progressFn == nil {
			t.Error("WithProgress did not set the callback")
		}
	})

	t.Run("WithoutExport", func(t *testing.T) {
		cfg := &acquireConfig{}
		WithoutExport()(cfg)
		if !cfg.skipExport {
			t.Error("WithoutExport did not set skipExport")
		}
	})
}
