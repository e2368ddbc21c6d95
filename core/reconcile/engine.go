package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Engine computes the identity-keyed diff between a source dataset and the
// current target collection and dispatches the resulting operations.
//
// Execution is strictly sequential: one pass fetches the full target set,
// partitions identities into create/update/delete sets, then dispatches the
// phases in that fixed order. A single record's failure never aborts the pass;
// it is recorded and the pass continues.
type Engine struct {
	detector *Detector
	log      *zap.Logger
	now      func() time.Time
}

// NewEngine creates an engine using the given change detector.
func NewEngine(detector *Detector, log *zap.Logger) *Engine {
	return &Engine{
		detector: detector,
		log:      log,
		now:      time.Now,
	}
}

// Synchronize runs one reconciliation pass for adapter's scope. The returned
// error is non-nil only when the target collection could not be listed at
// all; every per-record outcome, success or failure, lands in the report.
func (e *Engine) Synchronize(ctx context.Context, runID string, adapter Adapter, source []Record, opts Options) (*Report, error) {
	report := &Report{
		RunID:     runID,
		Scope:     adapter.Name(),
		StartedAt: e.now(),
	}
	log := e.log.With(zap.String("scope", adapter.Name()))

	targets, err := adapter.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s targets: %w", adapter.Name(), err)
	}

	sourceByID := e.indexSource(log, adapter, source, report)
	targetByID := e.indexTargets(log, targets)

	report.SourceCount = len(sourceByID)
	report.TargetCount = len(targetByID)

	var toCreate, toCheck, toDelete []string
	for id := range sourceByID {
		if _, ok := targetByID[id]; ok {
			toCheck = append(toCheck, id)
		} else {
			toCreate = append(toCreate, id)
		}
	}
	for id := range targetByID {
		if _, ok := sourceByID[id]; !ok {
			toDelete = append(toDelete, id)
		}
	}
	sort.Strings(toCreate)
	sort.Strings(toCheck)
	sort.Strings(toDelete)

	// Payloads for matched records are built once, shared between change
	// detection and the update dispatch.
	toUpdate := make([]string, 0, len(toCheck))
	payloads := make(map[string]map[string]any, len(toCheck))
	for _, id := range toCheck {
		payload, err := adapter.BuildPayload(ctx, sourceByID[id])
		if err != nil {
			report.record(validationFailure(id, OperationUpdate, err))
			continue
		}
		if e.detector.HasChanges(payload, targetByID[id].Fields, adapter.IgnoreFields()) {
			toUpdate = append(toUpdate, id)
			payloads[id] = payload
		} else {
			report.Unchanged++
		}
	}

	log.Info("Diff computed",
		zap.Int("source", report.SourceCount),
		zap.Int("target", report.TargetCount),
		zap.Int("create", len(toCreate)),
		zap.Int("update", len(toUpdate)),
		zap.Int("delete", len(toDelete)),
		zap.Int("unchanged", report.Unchanged))

	if opts.Create {
		for _, id := range toCreate {
			payload, err := adapter.BuildPayload(ctx, sourceByID[id])
			if err != nil {
				report.record(validationFailure(id, OperationCreate, err))
				continue
			}
			if opts.DryRun {
				report.record(simulated(id, OperationCreate))
				continue
			}
			report.record(adapter.Create(ctx, id, payload))
		}
	}

	if opts.Update {
		for _, id := range toUpdate {
			if opts.DryRun {
				report.record(simulated(id, OperationUpdate))
				continue
			}
			report.record(adapter.Update(ctx, id, targetByID[id], payloads[id]))
		}
	}

	if opts.Delete {
		for _, id := range toDelete {
			if opts.DryRun {
				report.record(simulated(id, OperationDelete))
				continue
			}
			report.record(adapter.Delete(ctx, targetByID[id]))
		}
	}

	report.Duration = e.now().Sub(report.StartedAt)
	log.Info("Pass finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// indexSource builds the identity map of the source dataset. Records without
// a usable identity are recorded as validation failures; on duplicate
// identities the first record wins.
func (e *Engine) indexSource(log *zap.Logger, adapter Adapter, source []Record, report *Report) map[string]Record {
	byID := make(map[string]Record, len(source))
	for _, rec := range source {
		// No operation was chosen yet, so the failure carries no kind.
		id, err := adapter.Identity(rec)
		if err != nil {
			report.record(validationFailure("", "", err))
			continue
		}
		if _, dup := byID[id]; dup {
			log.Warn("Duplicate identity in source, keeping first", zap.String("identity", id))
			continue
		}
		byID[id] = rec
	}
	return byID
}

func (e *Engine) indexTargets(log *zap.Logger, targets []TargetRecord) map[string]TargetRecord {
	byID := make(map[string]TargetRecord, len(targets))
	for _, t := range targets {
		if t.Identity == "" {
			log.Warn("Target record without identity, skipping", zap.String("id", t.ID))
			continue
		}
		if _, dup := byID[t.Identity]; dup {
			log.Warn("Duplicate identity on target, keeping first", zap.String("identity", t.Identity))
			continue
		}
		byID[t.Identity] = t
	}
	return byID
}

func validationFailure(identity string, kind OperationKind, err error) OperationResult {
	return OperationResult{
		Identity:  identity,
		Kind:      kind,
		Success:   false,
		ErrorKind: ErrorValidation,
		Error:     err.Error(),
	}
}

func simulated(identity string, kind OperationKind) OperationResult {
	return OperationResult{
		Identity:  identity,
		Kind:      kind,
		Success:   true,
		Simulated: true,
	}
}
