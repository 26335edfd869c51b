package models

import (
	"context"
	"fmt"
	"sync"
)

// manager is the concrete implementation of the Manager interface.
type manager struct {
	// cfg holds the module configuration.
	cfg Config

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// store handles local filesystem operations.
	store *storage

	// hub handles remote hub communication.
	hub *hubClient

	// policy sniffs fetched artifacts.
	policy SniffPolicy

	// exporter attempts portable-graph exports.
	exporter Exporter

	// cred supplies the hub bearer token.
	cred CredentialProvider

	// models is the configured logical model set.
	models []LogicalModel

	// acquireMu serializes in-process acquisition runs; the store's run
	// lock covers other processes.
	acquireMu sync.Mutex
}

// Acquire resolves the configured logical models, one fully after another.
// Each model's resolution is independent: a failure for one never stops the
// others, and the per-model results are all reported.
func (m *manager) Acquire(ctx context.Context, opts ...AcquireOption) (PipelineResult, error) {
	cfg := &acquireConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	m.acquireMu.Lock()
	defer m.acquireMu.Unlock()

	lock, err := m.store.runLock()
	if err != nil {
		return PipelineResult{}, err
	}
	if err := lock.Lock(); err != nil {
		return PipelineResult{}, fmt.Errorf("%w: another process is acquiring models: %v", ErrStorage, err)
	}
	defer lock.Unlock()

	selected := m.selectModels(cfg.roles)

	res := resolver{
		hub:        m.hub,
		store:      m.store,
		policy:     m.policy,
		exporter:   m.exporter,
		cred:       m.cred,
		logger:     m.logger,
		skipExport: cfg.skipExport,
	}

	result := PipelineResult{PerModel: make(map[Role]ModelResult, len(selected))}
	for _, model := range selected {
		mr := res.resolve(ctx, model, cfg.progressFn)
		result.PerModel[model.Role] = mr
		if cfg.progressFn != nil {
			cfg.progressFn(AcquireProgress{Role: model.Role, Phase: "done"})
		}
	}

	result.Overall = overallReadiness(selected, result.PerModel)

	if m.logger != nil {
		m.logger.Info("acquisition run finished", "overall", result.Overall.String())
	}
	return result, nil
}

// selectModels filters the configured models down to the requested roles.
// An empty filter selects everything.
func (m *manager) selectModels(roles []Role) []LogicalModel {
	if len(roles) == 0 {
		return m.models
	}
	want := make(map[Role]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}
	var selected []LogicalModel
	for _, model := range m.models {
		if want[model.Role] {
			selected = append(selected, model)
		}
	}
	return selected
}

// overallReadiness folds per-model results into the run's terminal state.
// Any failed required model means Failed. Otherwise the run is FullyReady
// only when every model holds a non-degraded portable graph; a raw-weights
// artifact or a missing optional model degrades to PartiallyReady.
func overallReadiness(models []LogicalModel, perModel map[Role]ModelResult) Readiness {
	overall := FullyReady
	for _, model := range models {
		mr := perModel[model.Role]
		if mr.Outcome == nil {
			if model.Required {
				return Failed
			}
			overall = PartiallyReady
			continue
		}
		if mr.Outcome.Format != FormatPortableGraph || mr.Outcome.Degraded {
			overall = PartiallyReady
		}
	}
	return overall
}

// Status reports the store contents for each configured role.
func (m *manager) Status(ctx context.Context) ([]ArtifactStatus, error) {
	statuses := make([]ArtifactStatus, 0, len(m.models))
	for _, model := range m.models {
		status, err := m.store.artifactFor(model.Role)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Verify re-sniffs the stored artifacts against the sniff policy.
func (m *manager) Verify(ctx context.Context) ([]VerifyReport, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]VerifyReport, 0, len(statuses))
	for _, status := range statuses {
		report := VerifyReport{Status: status}
		if status.Present {
			verdict, err := m.policy.sniffFile(status.Path, status.Role)
			if err != nil {
				return nil, err
			}
			report.Verdict = verdict
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Path returns the canonical artifact path for a role.
func (m *manager) Path(ctx context.Context, role Role) (string, error) {
	status, err := m.store.artifactFor(role)
	if err != nil {
		return "", err
	}
	if !status.Present {
		return "", fmt.Errorf("%w: %s", ErrNotAcquired, role)
	}
	return status.Path, nil
}

// CleanStaging removes leftover staged downloads.
func (m *manager) CleanStaging(ctx context.Context) error {
	return m.store.cleanStaging()
}

// Models returns the configured logical models.
func (m *manager) Models() []LogicalModel {
	return m.models
}
