package reconcile

import (
	"context"
	"errors"
	"fmt"

	"docsync/core/metrics"
	"docsync/core/remote"
	"docsync/core/utils"

	"go.uber.org/zap"
)

// Engine applies plans against a remote store.
type Engine struct {
	store    remote.Store
	payloads PayloadBuilder
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine.
func NewEngine(store remote.Store, payloads PayloadBuilder, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		payloads: payloads,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies actions.
func (e *Engine) ReconcileAndApply(ctx context.Context, spec *Spec, listing *Listing, candidates []remote.Item, opts ReconcileOptions) (*Plan, *Report, error) {
	plan := BuildPlan(spec, listing, candidates)
	report, err := e.Apply(ctx, spec, plan, opts)
	return plan, report, err
}

// Apply executes plan. Deletions run before any upload; upload batches run
// one after another. The returned error is non-nil only when the deletion
// phase fails at the transport level; batch failures are in the report.
func (e *Engine) Apply(ctx context.Context, spec *Spec, plan *Plan, opts ReconcileOptions) (*Report, error) {
	report := &Report{DryRun: opts.DryRun}

	if opts.DryRun {
		for _, a := range plan.Actions {
			e.logger.Info("Planned action",
				zap.String("action", string(a.Type)),
				zap.String("id", a.Item.ID),
				zap.String("name", a.Item.VisibleName),
				zap.String("reason", a.Reason),
			)
			report.Outcomes = append(report.Outcomes, Outcome{ID: a.Item.ID, Name: a.Item.VisibleName, Phase: PhasePlanned, Success: true, Message: a.Reason})
		}
		return report, nil
	}

	if deletions := plan.Deletions(); len(deletions) > 0 {
		e.logger.Info("Deleting remote items absent from source", zap.Int("count", len(deletions)))
		results, err := e.store.Delete(ctx, deletions)
		if err != nil {
			return report, fmt.Errorf("delete %d remote items: %w", len(deletions), err)
		}
		e.recordResults(report, PhaseDelete, deletions, results, &report.Deleted, &report.DeleteFailures)
	}

	uploads := plan.Uploads()
	if len(uploads) == 0 {
		return report, nil
	}

	listing := plan.listing
	if listing == nil {
		listing = NewListing(nil)
	}

	batches := utils.Chunk(uploads, spec.batchSize())
	e.logger.Info("Updating documents and collections", zap.Int("count", len(uploads)), zap.Int("batches", len(batches)))
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Batches++
		err := e.applyBatch(ctx, spec, listing, batch, report)
		if err != nil {
			report.BatchErrors++
			e.logger.Error("Batch failed", zap.Int("batch", i+1), zap.Int("size", len(batch)), zap.Error(err))
		}
		e.metrics.ObserveBatch(err == nil)
	}
	return report, nil
}

// applyBatch runs the request, upload, commit and compensate steps for one batch.
func (e *Engine) applyBatch(ctx context.Context, spec *Spec, listing *Listing, batch []remote.Item, report *Report) error {
	e.logger.Debug("Processing batch", zap.Int("size", len(batch)))
	byID := make(map[string]remote.Item, len(batch))
	for _, item := range batch {
		byID[item.ID] = item
	}

	tickets, err := e.store.RequestUpload(ctx, batch)
	if err != nil {
		for _, item := range batch {
			e.record(report, Outcome{ID: item.ID, Name: item.VisibleName, Phase: PhaseRequest, Message: err.Error()})
		}
		return fmt.Errorf("request upload: %w", err)
	}

	force := spec.force()
	var failed []remote.Item
	for _, ticket := range tickets {
		item, ok := byID[ticket.ID]
		if !ok {
			e.logger.Warn("Upload ticket for unknown item", zap.String("id", ticket.ID))
			continue
		}
		if !ticket.Success {
			report.Rejected++
			e.logger.Warn("Upload request rejected", zap.String("id", item.ID), zap.String("name", item.VisibleName), zap.String("message", ticket.Message))
			e.record(report, Outcome{ID: item.ID, Name: item.VisibleName, Phase: PhaseRequest, Message: ticket.Message})
			continue
		}
		if !item.IsDocument() {
			continue
		}

		server, onRemote := listing.Get(item.ID)
		var serverPtr *remote.Item
		if onRemote {
			serverPtr = &server
		}
		if onRemote && !force(item, serverPtr) {
			continue
		}

		if err := e.upload(ctx, ticket, item); err != nil {
			report.UploadFailures++
			e.logger.Warn("Failed to upload document", zap.String("id", item.ID), zap.String("name", item.VisibleName), zap.Error(err))
			e.record(report, Outcome{ID: item.ID, Name: item.VisibleName, Phase: PhaseUpload, Message: err.Error()})
			failed = append(failed, item)
			continue
		}
		report.Uploaded++
		e.logger.Info("Uploaded document", zap.String("id", item.ID), zap.String("name", item.VisibleName))
		e.record(report, Outcome{ID: item.ID, Name: item.VisibleName, Phase: PhaseUpload, Success: true})
	}

	var errs []error

	results, err := e.store.CommitMetadata(ctx, batch)
	if err != nil {
		for _, item := range batch {
			e.record(report, Outcome{ID: item.ID, Name: item.VisibleName, Phase: PhaseCommit, Message: err.Error()})
		}
		report.CommitFailures += len(batch)
		errs = append(errs, fmt.Errorf("commit metadata: %w", err))
	} else {
		e.recordResults(report, PhaseCommit, batch, results, &report.Committed, &report.CommitFailures)
	}

	// Compensate after the commit so the deleted ids carry the committed version.
	if len(failed) > 0 {
		e.logger.Info("Deleting documents that failed to upload", zap.Int("count", len(failed)))
		results, err := e.store.Delete(ctx, failed)
		if err != nil {
			for _, item := range failed {
				e.record(report, Outcome{ID: item.ID, Name: item.VisibleName, Phase: PhaseCompensate, Message: err.Error()})
			}
			errs = append(errs, fmt.Errorf("delete failed uploads: %w", err))
		} else {
			var ignored int
			e.recordResults(report, PhaseCompensate, failed, results, &report.Compensated, &ignored)
		}
	}

	return errors.Join(errs...)
}

func (e *Engine) upload(ctx context.Context, ticket remote.UploadTicket, item remote.Item) error {
	if ticket.URL == "" {
		return errors.New("no upload url issued")
	}
	payload, err := e.payloads.Build(ctx, item)
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}
	if err := e.store.UploadBlob(ctx, ticket.URL, payload); err != nil {
		return fmt.Errorf("upload payload: %w", err)
	}
	return nil
}

// recordResults turns per-item results into outcomes and counts.
func (e *Engine) recordResults(report *Report, phase Phase, items []remote.Item, results []remote.Result, ok, failed *int) {
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.VisibleName
	}

	for _, r := range results {
		name := names[r.ID]
		if r.Success {
			*ok++
			e.logger.Debug("Remote accepted item", zap.String("phase", string(phase)), zap.String("id", r.ID), zap.String("name", name))
		} else {
			*failed++
			e.logger.Warn("Remote rejected item", zap.String("phase", string(phase)), zap.String("id", r.ID), zap.String("name", name), zap.String("message", r.Message))
		}
		e.record(report, Outcome{ID: r.ID, Name: name, Phase: phase, Success: r.Success, Message: r.Message})
	}
}

func (e *Engine) record(report *Report, o Outcome) {
	report.Outcomes = append(report.Outcomes, o)
	e.metrics.ObserveItem(string(o.Phase), o.Success)
}
