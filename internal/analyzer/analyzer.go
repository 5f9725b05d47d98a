// Package analyzer converts an uploaded drawing into the normalized entity
// set validators consume. Strategy: native text extraction first, per-page OCR
// fallback when the text layer is sparse, then vocabulary parsing.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"drawcheck/internal/domain"
	"drawcheck/internal/platform/metrics"
	dErrors "drawcheck/pkg/domain-errors"
)

// DefaultMinDensity is the chars-per-page threshold below which a page is
// treated as scanned/flattened and routed through OCR.
const DefaultMinDensity = 80

// Source resolves a document reference to its byte stream. The upload/storage
// layer provides this; the analyzer never writes back.
type Source interface {
	Open(ctx context.Context, documentRef string) (io.ReadCloser, error)
}

// Analyzer runs the two-stage extraction and the entity parse.
type Analyzer struct {
	source     Source
	extractor  TextExtractor
	ocr        OCREngine
	minDensity int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithOCR installs the fallback recognition engine. Without one, sparse pages
// keep whatever native text they had.
func WithOCR(engine OCREngine) Option {
	return func(a *Analyzer) { a.ocr = engine }
}

// WithExtractor overrides the native text extractor.
func WithExtractor(e TextExtractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

// WithMinDensity overrides the chars-per-page fallback threshold.
func WithMinDensity(n int) Option {
	return func(a *Analyzer) { a.minDensity = n }
}

// WithMetrics attaches extraction observability.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New creates an Analyzer reading documents from source.
func New(source Source, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	if source == nil {
		return nil, fmt.Errorf("document source is required")
	}
	a := &Analyzer{
		source:     source,
		extractor:  PlainTextExtractor{},
		minDensity: DefaultMinDensity,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze produces the entity set for one document. It only errors for
// unreadable documents (zero extractable pages); individual parse failures
// degrade to annotations.
func (a *Analyzer) Analyze(ctx context.Context, documentRef string) (*domain.EntitySet, error) {
	r, err := a.source.Open(ctx, documentRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "document not available")
	}
	defer r.Close()

	pages, err := a.extractor.Extract(ctx, r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnreadableDocument, "text extraction failed")
	}
	if len(pages) == 0 {
		return nil, dErrors.New(dErrors.CodeUnreadableDocument, "zero extractable pages")
	}

	ocrUsed := false
	if a.ocr != nil {
		for i := range pages {
			if len(pages[i].Text) >= a.minDensity {
				continue
			}
			text, ocrErr := a.ocr.RecognizePage(ctx, pages[i])
			if ocrErr != nil {
				// Best effort: keep the sparse native text and move on.
				a.logger.WarnContext(ctx, "ocr fallback failed",
					"document_ref", documentRef,
					"page", pages[i].Number,
					"error", ocrErr.Error(),
				)
				continue
			}
			if len(text) > len(pages[i].Text) {
				pages[i].Text = text
				ocrUsed = true
				a.metrics.IncrementOCRFallback()
			}
		}
	}

	if totalChars(pages) == 0 {
		return nil, dErrors.New(dErrors.CodeUnreadableDocument, "no readable text after extraction and recognition")
	}

	set := parsePages(documentRef, pages, ocrUsed)
	a.logger.DebugContext(ctx, "analysis complete",
		"document_ref", documentRef,
		"pages", set.PageCount,
		"ocr_used", set.OCRUsed,
		"structured_entities", set.StructuredCount(),
		"annotations", len(set.Annotations),
	)
	return set, nil
}

func totalChars(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Text)
	}
	return n
}
