package models

import (
	"context"
	"errors"
)

// Manager runs the acquisition pipeline and answers questions about the
// artifact store. All methods are safe for concurrent use.
// For CLI integration, use NewCommand instead.
type Manager interface {
	// Acquire resolves the configured logical models against the hub and
	// returns the per-model outcomes with the overall readiness. A Failed
	// readiness is a result, not an error: the error return covers
	// infrastructure problems (store, run lock) only.
	Acquire(ctx context.Context, opts ...AcquireOption) (PipelineResult, error)

	// Status reports what the store currently holds for each configured
	// role, in model declaration order.
	Status(ctx context.Context) ([]ArtifactStatus, error)

	// Verify re-sniffs the stored artifacts against the sniff policy.
	// Useful after changing the policy or when a store is suspect.
	Verify(ctx context.Context) ([]VerifyReport, error)

	// Path returns the canonical artifact path for a role.
	// Returns ErrNotAcquired if the store holds nothing for it.
	Path(ctx context.Context, role Role) (string, error)

	// CleanStaging removes leftover staged downloads from aborted runs.
	// Canonical artifacts are untouched.
	CleanStaging(ctx context.Context) error

	// Models returns the configured logical models.
	Models() []LogicalModel
}

// Ensure manager implements Manager interface.
var _ Manager = (*manager)(nil)

// NewManager creates a new Manager with the given configuration.
// Returns an error if the configuration is invalid (empty AppName or HubURL)
// or the sniff policy file cannot be loaded.
func NewManager(cfg Config, opts ...ManagerOption) (Manager, error) {
	if cfg.AppName == "" {
		return nil, errors.New("models: AppName is required")
	}
	if cfg.HubURL == "" {
		return nil, errors.New("models: HubURL is required")
	}

	mcfg := newManagerConfig()
	for _, opt := range opts {
		opt(mcfg)
	}

	policy := DefaultSniffPolicy()
	if mcfg.policy != nil {
		policy = *mcfg.policy
	} else if cfg.PolicyPath != "" {
		loaded, err := LoadSniffPolicy(cfg.PolicyPath)
		if err != nil {
			return nil, err
		}
		policy = loaded
	}

	cred := mcfg.cred
	if cred == nil {
		cred = EnvCredential(cfg.AppName)
	}

	exporter := mcfg.exporter
	if exporter == nil {
		exporter = newCommandExporter(cfg.ExporterPath, mcfg.logger)
	}

	modelSet := mcfg.models
	if modelSet == nil {
		modelSet = DefaultModels()
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	hub := newHubClient(cfg.HubURL, mcfg.httpClient, mcfg.logger, cfg.FetchTimeout)

	return &manager{
		cfg:      cfg,
		logger:   mcfg.logger,
		store:    store,
		hub:      hub,
		policy:   policy,
		exporter: exporter,
		cred:     cred,
		models:   modelSet,
	}, nil
}
