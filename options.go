package models

import (
	"net/http"
)

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

// managerConfig holds configuration for Manager construction.
type managerConfig struct {
	// httpClient is used for all HTTP requests to the hub.
	httpClient HTTPClient

	// logger receives diagnostic log messages.
	logger Logger

	// cred supplies the hub bearer token.
	cred CredentialProvider

	// policy overrides the sniff policy.
	policy *SniffPolicy

	// exporter overrides the graph exporter.
	exporter Exporter

	// models overrides the logical model set.
	models []LogicalModel
}

// newManagerConfig returns a managerConfig with default values.
func newManagerConfig() *managerConfig {
	return &managerConfig{
		httpClient: http.DefaultClient,
	}
}

// WithHTTPClient sets a custom HTTP client for hub requests.
// Useful for testing with mock servers or customizing transports.
// If not set, http.DefaultClient is used.
func WithHTTPClient(client HTTPClient) ManagerOption {
	return func(c *managerConfig) {
		c.httpClient = client
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) ManagerOption {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithCredentials sets the hub credential provider.
// If not set, the token is read from the <APPNAME>_HUB_TOKEN environment
// variable on each fetch.
func WithCredentials(cred CredentialProvider) ManagerOption {
	return func(c *managerConfig) {
		c.cred = cred
	}
}

// WithSniffPolicy replaces the content-sniffing policy.
// Takes precedence over Config.PolicyPath.
func WithSniffPolicy(policy SniffPolicy) ManagerOption {
	return func(c *managerConfig) {
		c.policy = &policy
	}
}

// WithExporter replaces the graph exporter.
// If not set, the external exporter from Config.ExporterPath is invoked.
func WithExporter(exporter Exporter) ManagerOption {
	return func(c *managerConfig) {
		c.exporter = exporter
	}
}

// WithModels replaces the logical model set resolved by Acquire.
// If not set, DefaultModels() is used.
func WithModels(models []LogicalModel) ManagerOption {
	return func(c *managerConfig) {
		c.models = models
	}
}

// AcquireOption configures an acquisition run.
type AcquireOption func(*acquireConfig)

// acquireConfig holds configuration for one acquisition run.
type acquireConfig struct {
	// progressFn is called with progress updates during the run.
	progressFn func(AcquireProgress)

	// roles restricts the run to a subset of the logical models.
	roles []Role

	// skipExport persists raw weights without attempting a graph export.
	skipExport bool
}

// WithProgress sets a callback for progress updates during acquisition.
// The callback is invoked from the goroutine running Acquire.
func WithProgress(fn func(AcquireProgress)) AcquireOption {
	return func(c *acquireConfig) {
		c.progressFn = fn
	}
}

// WithRoles restricts an acquisition run to the given roles.
// Unknown roles are ignored; an empty list means all configured models.
func WithRoles(roles ...Role) AcquireOption {
	return func(c *acquireConfig) {
		c.roles = roles
	}
}

// WithoutExport persists raw-weights candidates as they are, skipping the
// graph export attempt. The run then reports at most partially-ready for
// roles filled from raw weights.
func WithoutExport() AcquireOption {
	return func(c *acquireConfig) {
		c.skipExport = true
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, logrus, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
