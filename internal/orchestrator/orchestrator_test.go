package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawcheck/internal/domain"
	"drawcheck/internal/standards"
	"drawcheck/internal/validator"
	domainerrors "drawcheck/pkg/domain-errors"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadStore(t *testing.T) *standards.Store {
	t.Helper()
	s, err := standards.Load()
	require.NoError(t, err)
	return s
}

// stubAnalyzer returns a fixed entity set or error.
type stubAnalyzer struct {
	entities *domain.EntitySet
	err      error
}

func (a stubAnalyzer) Analyze(_ context.Context, _ string) (*domain.EntitySet, error) {
	return a.entities, a.err
}

// stubReleaser records which refs were released.
type stubReleaser struct {
	released []string
}

func (r *stubReleaser) Release(ref string) error {
	r.released = append(r.released, ref)
	return nil
}

// stubValidator returns canned results; it can also panic or block to
// exercise containment.
type stubValidator struct {
	cat     domain.CheckCategory
	results []domain.CheckResult
	panics  bool
	blocks  bool
}

func (v stubValidator) Category() domain.CheckCategory { return v.cat }

func (v stubValidator) Evaluate(ctx context.Context, _ *domain.EntitySet, _ *standards.Store) []domain.CheckResult {
	if v.panics {
		panic("boom")
	}
	if v.blocks {
		<-ctx.Done()
		return nil
	}
	return v.results
}

func cannedResults(cat domain.CheckCategory, passed, warnings, errs int) []domain.CheckResult {
	out := make([]domain.CheckResult, 0, passed+warnings+errs)
	for i := 0; i < passed; i++ {
		out = append(out, domain.Pass(string(cat)+"-p"+string(rune('a'+i)), cat))
	}
	for i := 0; i < warnings; i++ {
		out = append(out, domain.Fail(string(cat)+"-w"+string(rune('a'+i)), cat, domain.SeverityWarning, "nominal out of band"))
	}
	for i := 0; i < errs; i++ {
		out = append(out, domain.Fail(string(cat)+"-e"+string(rune('a'+i)), cat, domain.SeverityError, "datum scheme missing"))
	}
	return out
}

func newOrchestrator(t *testing.T, an DocumentAnalyzer, reg *validator.Registry, rel SessionReleaser, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(an, reg, loadStore(t), rel, discard(), opts...)
	require.NoError(t, err)
	return o
}

func TestRunCompleteAggregation(t *testing.T) {
	// 28 attempted checks, 25 passed, 2 warnings and 1 error among the
	// failures.
	reg := validator.NewRegistry(
		stubValidator{cat: domain.CategoryGDT, results: cannedResults(domain.CategoryGDT, 12, 1, 1)},
		stubValidator{cat: domain.CategoryWelding, results: cannedResults(domain.CategoryWelding, 13, 1, 0)},
	)
	rel := &stubReleaser{}
	o := newOrchestrator(t, stubAnalyzer{entities: &domain.EntitySet{PageCount: 2}}, reg, rel)

	req := domain.NewValidationRequest("upload-1", "user-1",
		[]domain.CheckCategory{domain.CategoryGDT, domain.CategoryWelding})
	report, err := o.Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, report.Status)
	assert.Equal(t, domain.Summary{Total: 28, Passed: 25, Warnings: 2, Errors: 1}, report.Summary)
	assert.InDelta(t, 89.3, report.PassRate, 0.05)
	assert.Equal(t, "2024.1", report.StandardsVersion)

	// All three failures surface as issues, error first, then warnings in
	// category/id order.
	require.Len(t, report.Issues, 3)
	assert.Equal(t, domain.SeverityError, report.Issues[0].Severity)
	assert.Equal(t, "gdt-ea", report.Issues[0].CheckID)
	assert.Equal(t, "gdt-wa", report.Issues[1].CheckID)
	assert.Equal(t, "welding-wa", report.Issues[2].CheckID)

	assert.Equal(t, []string{"upload-1"}, rel.released)
}

func TestRunIsDeterministic(t *testing.T) {
	reg := validator.NewRegistry(
		stubValidator{cat: domain.CategoryGDT, results: cannedResults(domain.CategoryGDT, 3, 2, 1)},
		stubValidator{cat: domain.CategoryMaterial, results: cannedResults(domain.CategoryMaterial, 2, 2, 2)},
	)
	req := domain.NewValidationRequest("upload-2", "user-1",
		[]domain.CheckCategory{domain.CategoryGDT, domain.CategoryMaterial})

	var first []domain.CheckResult
	for i := 0; i < 5; i++ {
		o := newOrchestrator(t, stubAnalyzer{entities: &domain.EntitySet{PageCount: 1}}, reg, &stubReleaser{})
		report, err := o.Run(context.Background(), req, nil)
		require.NoError(t, err)
		if first == nil {
			first = report.Issues
			continue
		}
		assert.Equal(t, first, report.Issues)
	}
}

func TestAggregateExcludesInfoFailuresFromIssues(t *testing.T) {
	results := []domain.CheckResult{
		domain.Pass("ACHE-DOC-001", domain.CategoryComposite),
		domain.Fail("ACHE-DOC-002", domain.CategoryComposite, domain.SeverityInfo, "revision block incomplete"),
		domain.Fail("ACHE-GEO-001", domain.CategoryComposite, domain.SeverityWarning, "nominal out of band"),
	}
	sum, issues, rate := aggregate(results)

	// The failed info check is in the denominator but is not an issue.
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Passed)
	require.Len(t, issues, 1)
	assert.Equal(t, "ACHE-GEO-001", issues[0].CheckID)
	assert.InDelta(t, 33.3, rate, 0.05)
}

func TestRunPartialOnPanic(t *testing.T) {
	reg := validator.NewRegistry(
		stubValidator{cat: domain.CategoryGDT, results: cannedResults(domain.CategoryGDT, 2, 0, 0)},
		stubValidator{cat: domain.CategoryWelding, panics: true},
	)
	rel := &stubReleaser{}
	o := newOrchestrator(t, stubAnalyzer{entities: &domain.EntitySet{PageCount: 1}}, reg, rel)

	req := domain.NewValidationRequest("upload-3", "user-1",
		[]domain.CheckCategory{domain.CategoryGDT, domain.CategoryWelding})
	report, err := o.Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPartial, report.Status)
	// The panicking validator contributes exactly one synthetic failure; the
	// healthy one is unaffected.
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Passed)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "welding-validator", report.Issues[0].CheckID)
	assert.Equal(t, domain.SeverityError, report.Issues[0].Severity)
	assert.Equal(t, "validator unavailable", report.Issues[0].Message)
	assert.Equal(t, []string{"upload-3"}, rel.released)
}

func TestRunPartialOnTimeout(t *testing.T) {
	reg := validator.NewRegistry(
		stubValidator{cat: domain.CategoryGDT, results: cannedResults(domain.CategoryGDT, 1, 0, 0)},
		stubValidator{cat: domain.CategoryMaterial, blocks: true},
	)
	o := newOrchestrator(t, stubAnalyzer{entities: &domain.EntitySet{PageCount: 1}}, reg, &stubReleaser{},
		WithValidatorTimeout(20*time.Millisecond))

	req := domain.NewValidationRequest("upload-4", "user-1",
		[]domain.CheckCategory{domain.CategoryGDT, domain.CategoryMaterial})
	report, err := o.Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPartial, report.Status)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "material-validator", report.Issues[0].CheckID)
}

func TestRunUnreadableDocumentYieldsFailedReport(t *testing.T) {
	analyzeErr := domainerrors.New(domainerrors.CodeUnreadableDocument, "no text recovered")
	reg := validator.NewRegistry(stubValidator{cat: domain.CategoryGDT})
	rel := &stubReleaser{}
	o := newOrchestrator(t, stubAnalyzer{err: analyzeErr}, reg, rel)

	em := NewEmitter(16, nil)
	req := domain.NewValidationRequest("upload-5", "user-1", nil)
	report, err := o.Run(context.Background(), req, em)

	// A session exists, so the caller gets a report, not a bare error.
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, domain.StatusFailed, report.Status)
	assert.Equal(t, domain.Summary{Total: 1, Errors: 1}, report.Summary)
	assert.Zero(t, report.PassRate)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "document-analysis", report.Issues[0].CheckID)
	assert.Equal(t, domain.CategoryAnalysis, report.Issues[0].Category)
	assert.Equal(t, domain.SeverityError, report.Issues[0].Severity)
	assert.Equal(t, "no text recovered", report.Issues[0].Message)

	// Cleanup and stream termination still happen on the failure path.
	assert.Equal(t, []string{"upload-5"}, rel.released)
	var last Progress
	for ev := range em.Events() {
		last = ev
	}
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, "analysis failed", last.Step)
}

func TestRunUnknownDocumentPropagatesError(t *testing.T) {
	analyzeErr := domainerrors.New(domainerrors.CodeNotFound, "document not available")
	reg := validator.NewRegistry(stubValidator{cat: domain.CategoryGDT})
	rel := &stubReleaser{}
	o := newOrchestrator(t, stubAnalyzer{err: analyzeErr}, reg, rel)

	req := domain.NewValidationRequest("upload-ghost", "user-1", nil)
	report, err := o.Run(context.Background(), req, nil)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, domainerrors.Is(err, domainerrors.CodeNotFound))
	assert.Equal(t, []string{"upload-ghost"}, rel.released)
}

func TestRunProgressMonotonic(t *testing.T) {
	reg := validator.NewRegistry(
		stubValidator{cat: domain.CategoryGDT, results: cannedResults(domain.CategoryGDT, 2, 1, 0)},
	)
	o := newOrchestrator(t, stubAnalyzer{entities: &domain.EntitySet{PageCount: 3}}, reg, &stubReleaser{})

	em := NewEmitter(16, nil)
	req := domain.NewValidationRequest("upload-6", "user-1", []domain.CheckCategory{domain.CategoryGDT})
	_, err := o.Run(context.Background(), req, em)
	require.NoError(t, err)

	prev := -1
	var last Progress
	steps := make([]string, 0, 8)
	for ev := range em.Events() {
		assert.GreaterOrEqual(t, ev.Percent, prev)
		prev = ev.Percent
		last = ev
		steps = append(steps, ev.Step)
	}
	assert.NotEmpty(t, steps)
	// Each validator reports its own completion between analysis and
	// aggregation.
	assert.Contains(t, steps, "gdt checks evaluated")
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, "validation complete", last.Step)
}

func TestEmitterDropsWhenFull(t *testing.T) {
	dropped := 0
	em := NewEmitter(1, func() { dropped++ })

	em.Emit(10, "a")
	em.Emit(20, "b")
	em.Emit(30, "c")
	em.Close()

	assert.Equal(t, 2, dropped)
	evs := make([]Progress, 0, 1)
	for ev := range em.Events() {
		evs = append(evs, ev)
	}
	require.Len(t, evs, 1)
	assert.Equal(t, 10, evs[0].Percent)

	// Emit after Close is a no-op.
	em.Emit(40, "d")
}

func TestEmitterRaisesRegressingPercent(t *testing.T) {
	em := NewEmitter(4, nil)
	em.Emit(50, "halfway")
	em.Emit(30, "late event")
	em.Close()

	evs := make([]Progress, 0, 2)
	for ev := range em.Events() {
		evs = append(evs, ev)
	}
	require.Len(t, evs, 2)
	assert.Equal(t, 50, evs[1].Percent)
	assert.Equal(t, "late event", evs[1].Step)
}
