package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"drawcheck/internal/domain"
	"drawcheck/internal/platform/metrics"
	"drawcheck/internal/standards"
	"drawcheck/internal/validator"
	dErrors "drawcheck/pkg/domain-errors"
)

// DocumentAnalyzer turns a staged document into structured entities.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, documentRef string) (*domain.EntitySet, error)
}

// SessionReleaser frees the staged document once the run no longer needs it.
type SessionReleaser interface {
	Release(documentRef string) error
}

const defaultValidatorTimeout = 15 * time.Second

// Orchestrator drives one validation run end to end: analysis, concurrent
// rule evaluation, aggregation, and cleanup of the staged document.
type Orchestrator struct {
	analyzer         DocumentAnalyzer
	registry         *validator.Registry
	standards        *standards.Store
	sessions         SessionReleaser
	metrics          *metrics.Metrics
	logger           *slog.Logger
	validatorTimeout time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithValidatorTimeout bounds each validator's evaluation.
func WithValidatorTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.validatorTimeout = d }
}

// WithMetrics attaches run observability.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New builds an Orchestrator. All four collaborators are required.
func New(analyzer DocumentAnalyzer, registry *validator.Registry, store *standards.Store, sessions SessionReleaser, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if analyzer == nil || registry == nil || store == nil || sessions == nil {
		return nil, fmt.Errorf("orchestrator: missing collaborator")
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		analyzer:         analyzer,
		registry:         registry,
		standards:        store,
		sessions:         sessions,
		logger:           logger,
		validatorTimeout: defaultValidatorTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes one validation run. The staged document is released on every
// exit path, success or not. emitter may be nil; when present it receives
// best-effort progress events and is closed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, req domain.ValidationRequest, emitter *Emitter) (*domain.ValidationReport, error) {
	start := time.Now()
	defer func() {
		if err := o.sessions.Release(req.DocumentRef); err != nil {
			o.logger.WarnContext(ctx, "session release failed",
				"document_ref", req.DocumentRef, "error", err)
		}
		o.metrics.ObserveRunDuration(time.Since(start))
		if emitter != nil {
			emitter.Close()
		}
	}()

	emit := func(pct int, step string) {
		if emitter != nil {
			emitter.Emit(pct, step)
		}
	}

	emit(0, "run accepted")
	emit(10, "analyzing document")

	entities, err := o.analyzer.Analyze(ctx, req.DocumentRef)
	if err != nil {
		o.metrics.IncrementRun(string(domain.StatusFailed))
		emit(100, "analysis failed")
		o.logger.ErrorContext(ctx, "document analysis failed",
			"document_ref", req.DocumentRef, "error", err)
		// An unreadable document still yields a report: the session exists,
		// so the caller gets status=failed with one top-level issue. Hard
		// errors (unknown document, infrastructure) propagate as errors.
		if dErrors.Is(err, dErrors.CodeUnreadableDocument) {
			return o.failedReport(start, err), nil
		}
		return nil, err
	}
	emit(40, fmt.Sprintf("analyzed %d pages", entities.PageCount))

	cats := req.ValidationTypes
	results := make([][]domain.CheckResult, len(cats))
	failed := make([]bool, len(cats))

	var g errgroup.Group
	var completed atomic.Int32
	for i, cat := range cats {
		i, cat := i, cat
		g.Go(func() error {
			res, ok := o.runValidator(ctx, cat, entities)
			results[i], failed[i] = res, !ok
			n := int(completed.Add(1))
			emit(40+50*n/len(cats), string(cat)+" checks evaluated")
			return nil
		})
	}
	_ = g.Wait()
	emit(90, "aggregating results")

	status := domain.StatusComplete
	all := make([]domain.CheckResult, 0, 64)
	for i, cat := range cats {
		if failed[i] {
			status = domain.StatusPartial
			all = append(all, domain.Fail(
				string(cat)+"-validator", cat, domain.SeverityError, "validator unavailable"))
			continue
		}
		all = append(all, results[i]...)
	}

	sum, issues, rate := aggregate(all)
	report := &domain.ValidationReport{
		Status:           status,
		DurationMs:       time.Since(start).Milliseconds(),
		PassRate:         rate,
		StandardsVersion: o.standards.Version(),
		Summary:          sum,
		Issues:           issues,
	}

	o.metrics.IncrementRun(string(status))
	o.logger.InfoContext(ctx, "validation run finished",
		"document_ref", req.DocumentRef,
		"status", string(status),
		"total", sum.Total,
		"passed", sum.Passed,
		"duration_ms", report.DurationMs,
	)
	emit(100, "validation "+string(status))
	return report, nil
}

// failedReport is the terminal report for a document that could not be
// analyzed. It carries a single top-level issue so the failure is named in
// the report itself, not just in a transport error.
func (o *Orchestrator) failedReport(start time.Time, cause error) *domain.ValidationReport {
	message := "document could not be analyzed"
	var de *dErrors.Error
	if errors.As(cause, &de) && de.Description != "" {
		message = de.Description
	}
	sum, issues, rate := aggregate([]domain.CheckResult{
		domain.Fail("document-analysis", domain.CategoryAnalysis, domain.SeverityError, message),
	})
	return &domain.ValidationReport{
		Status:           domain.StatusFailed,
		DurationMs:       time.Since(start).Milliseconds(),
		PassRate:         rate,
		StandardsVersion: o.standards.Version(),
		Summary:          sum,
		Issues:           issues,
	}
}

// runValidator evaluates one category under the per-validator timeout.
// Panics and timeouts are contained; ok=false tells the caller to record a
// synthetic failure instead of results.
func (o *Orchestrator) runValidator(ctx context.Context, cat domain.CheckCategory, entities *domain.EntitySet) (_ []domain.CheckResult, ok bool) {
	v, found := o.registry.Get(cat)
	if !found {
		o.logger.WarnContext(ctx, "no validator registered", "category", string(cat))
		o.metrics.IncrementValidatorFailure(string(cat))
		return nil, false
	}

	vctx, cancel := context.WithTimeout(ctx, o.validatorTimeout)
	defer cancel()

	type outcome struct {
		results  []domain.CheckResult
		panicked any
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{panicked: rec}
			}
		}()
		done <- outcome{results: v.Evaluate(vctx, entities, o.standards)}
	}()

	select {
	case out := <-done:
		if out.panicked != nil {
			o.logger.ErrorContext(ctx, "validator panicked",
				"category", string(cat), "panic", out.panicked)
			o.metrics.IncrementValidatorFailure(string(cat))
			return nil, false
		}
		return out.results, true
	case <-vctx.Done():
		o.logger.WarnContext(ctx, "validator timed out",
			"category", string(cat), "error", vctx.Err())
		o.metrics.IncrementValidatorFailure(string(cat))
		return nil, false
	}
}
