package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// resolver fills one logical model by walking its candidate list in declared
// order. The first candidate whose download both succeeds at the transport
// level and sniffs as a genuine model payload wins; everything after it is
// never attempted. No candidate is retried within a run.
type resolver struct {
	// hub performs the downloads.
	hub *hubClient

	// store stages and promotes artifacts.
	store *storage

	// policy sniffs fetched bytes.
	policy SniffPolicy

	// exporter attempts portable-graph exports for raw-weights artifacts.
	exporter Exporter

	// cred supplies the hub bearer token.
	cred CredentialProvider

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// skipExport persists raw weights without attempting a graph export.
	skipExport bool
}

// resolve walks the model's candidates and returns its terminal state. Every
// failed candidate is recorded; when no candidate yields a genuine artifact
// and the model is required, the result carries an error concatenating the
// failures in candidate order so the operator can see which step blocked.
func (r *resolver) resolve(ctx context.Context, model LogicalModel, onProgress func(AcquireProgress)) ModelResult {
	result := ModelResult{Role: model.Role}

	if len(model.Candidates) == 0 {
		if model.Required {
			result.Err = fmt.Errorf("%w: %s", ErrNoCandidates, model.Role)
		}
		return result
	}

	for _, cand := range model.Candidates {
		outcome, failure := r.attempt(ctx, model.Role, cand, onProgress)
		if failure != nil {
			if r.logger != nil {
				r.logger.Debug("candidate rejected",
					"role", string(model.Role),
					"candidate", cand.String(),
					"status", failure.Status.String(),
					"reason", failure.Reason)
			}
			result.Failures = append(result.Failures, *failure)
			continue
		}

		if r.logger != nil {
			r.logger.Info("model resolved",
				"role", string(model.Role),
				"candidate", cand.String(),
				"format", outcome.Format.String(),
				"degraded", outcome.Degraded)
		}
		result.Outcome = outcome
		return result
	}

	if model.Required {
		result.Err = acquireError(model.Role, result.Failures)
	}
	return result
}

// attempt fetches, validates and persists one candidate. Exactly one of the
// returns is non-nil.
func (r *resolver) attempt(ctx context.Context, role Role, cand SourceCandidate, onProgress func(AcquireProgress)) (*ExportOutcome, *CandidateFailure) {
	staged, err := r.store.newStagingPath()
	if err != nil {
		return nil, &CandidateFailure{
			Candidate: cand,
			Status:    FetchTransportError,
			Reason:    fmt.Sprintf("staging: %v", err),
		}
	}

	var progressFn func(fetched, total int64)
	if onProgress != nil {
		progressFn = func(fetched, total int64) {
			onProgress(AcquireProgress{
				Role:         role,
				Phase:        "fetch",
				Candidate:    cand,
				BytesFetched: fetched,
				BytesTotal:   total,
			})
		}
	}

	out := r.hub.fetch(ctx, cand, r.cred, staged, progressFn)
	if out.Status != FetchSuccess {
		return nil, &CandidateFailure{Candidate: cand, Status: out.Status, Reason: out.Detail}
	}

	if cand.SHA256 != "" {
		if err := verifyFileHash(staged, cand.SHA256); err != nil {
			r.store.removeStaged(staged)
			return nil, &CandidateFailure{
				Candidate: cand,
				Status:    FetchSuccess,
				Rejected:  true,
				Reason:    err.Error(),
			}
		}
	}

	// Transport success is not acceptance: a gated hub answers HTTP 200
	// with an access-denied body. Sniff before promoting.
	verdict, err := r.policy.sniffFile(staged, role)
	if err != nil {
		r.store.removeStaged(staged)
		return nil, &CandidateFailure{
			Candidate: cand,
			Status:    FetchSuccess,
			Rejected:  true,
			Reason:    fmt.Sprintf("sniffing: %v", err),
		}
	}
	if !verdict.Genuine {
		r.store.removeStaged(staged)
		return nil, &CandidateFailure{
			Candidate: cand,
			Status:    FetchSuccess,
			Rejected:  true,
			Reason:    verdict.Reason,
		}
	}
	if verdict.Reason != "" && r.logger != nil {
		r.logger.Warn("artifact accepted with advisory",
			"role", string(role), "candidate", cand.String(), "note", verdict.Reason)
	}

	if cand.Kind == KindPortableGraph {
		return r.persistGraph(role, cand, staged)
	}
	return r.persistWeights(ctx, role, cand, staged, onProgress)
}

// persistGraph promotes an already-portable artifact onto its canonical path.
func (r *resolver) persistGraph(role Role, cand SourceCandidate, staged string) (*ExportOutcome, *CandidateFailure) {
	dest, err := r.store.promote(staged, role, FormatPortableGraph)
	if err != nil {
		r.store.removeStaged(staged)
		return nil, &CandidateFailure{
			Candidate: cand,
			Status:    FetchSuccess,
			Rejected:  true,
			Reason:    err.Error(),
		}
	}
	return outcomeFor(role, FormatPortableGraph, dest, false, ""), nil
}

// persistWeights attempts a portable-graph export of staged weights and
// promotes whichever artifact results. Export is best effort: a failed
// export degrades to the raw weights, which is a valid terminal state.
func (r *resolver) persistWeights(ctx context.Context, role Role, cand SourceCandidate, staged string, onProgress func(AcquireProgress)) (*ExportOutcome, *CandidateFailure) {
	if r.skipExport {
		dest, err := r.store.promote(staged, role, FormatRawWeights)
		if err != nil {
			r.store.removeStaged(staged)
			return nil, &CandidateFailure{
				Candidate: cand,
				Status:    FetchSuccess,
				Rejected:  true,
				Reason:    err.Error(),
			}
		}
		return outcomeFor(role, FormatRawWeights, dest, false, ""), nil
	}

	if onProgress != nil {
		onProgress(AcquireProgress{Role: role, Phase: "export", Candidate: cand})
	}

	exportDest, err := r.store.newStagingPath()
	if err == nil {
		err = r.exporter.Export(ctx, ExportRequest{
			Role:        role,
			WeightsPath: staged,
			DestPath:    exportDest,
			Signature:   roleSignature(role),
		})
		if err == nil {
			dest, promoteErr := r.store.promote(exportDest, role, FormatPortableGraph)
			if promoteErr != nil {
				r.store.removeStaged(exportDest)
				r.store.removeStaged(staged)
				return nil, &CandidateFailure{
					Candidate: cand,
					Status:    FetchSuccess,
					Rejected:  true,
					Reason:    promoteErr.Error(),
				}
			}
			r.store.removeStaged(staged)
			return outcomeFor(role, FormatPortableGraph, dest, false, ""), nil
		}
		r.store.removeStaged(exportDest)
	}

	// Context cancellation is not an export property of the model; let it
	// surface as a candidate failure instead of a degraded outcome.
	if ctx.Err() != nil {
		r.store.removeStaged(staged)
		return nil, &CandidateFailure{
			Candidate: cand,
			Status:    FetchTransportError,
			Reason:    ctx.Err().Error(),
		}
	}

	reason := string(DegradationExportError)
	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		reason = string(exportErr.Class)
	}
	if r.logger != nil {
		r.logger.Warn("graph export failed, keeping raw weights",
			"role", string(role), "reason", reason, "error", err.Error())
	}

	dest, promoteErr := r.store.promote(staged, role, FormatRawWeights)
	if promoteErr != nil {
		r.store.removeStaged(staged)
		return nil, &CandidateFailure{
			Candidate: cand,
			Status:    FetchSuccess,
			Rejected:  true,
			Reason:    promoteErr.Error(),
		}
	}
	return outcomeFor(role, FormatRawWeights, dest, true, reason), nil
}

// outcomeFor builds the terminal outcome for a persisted artifact.
func outcomeFor(role Role, format ExportFormat, path string, degraded bool, reason string) *ExportOutcome {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	return &ExportOutcome{
		Role:              role,
		Format:            format,
		Path:              path,
		ByteSize:          size,
		Degraded:          degraded,
		DegradationReason: reason,
	}
}

// acquireError concatenates the per-candidate failure reasons, in candidate
// order, into the operator-facing diagnostic for a failed required model.
func acquireError(role Role, failures []CandidateFailure) error {
	parts := make([]string, len(failures))
	for i, f := range failures {
		status := f.Status.String()
		if f.Rejected {
			status = "validity-rejected"
		}
		parts[i] = fmt.Sprintf("[%d] %s: %s: %s", i+1, f.Candidate, status, f.Reason)
	}
	return fmt.Errorf("%w: %s: %s", ErrAcquireFailed, role, strings.Join(parts, "; "))
}
