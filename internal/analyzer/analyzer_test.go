package analyzer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "drawcheck/pkg/domain-errors"
)

type mapSource map[string]string

func (m mapSource) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	doc, ok := m[ref]
	if !ok {
		return nil, errors.New("no such document")
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) RecognizePage(_ context.Context, _ Page) (string, error) {
	f.calls++
	return f.text, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalyzeNativeText(t *testing.T) {
	src := mapSource{"DWG-1": strings.Repeat("note line about tube pitch\n", 10) + "120 mm ±0.3\nDATUM A\n"}
	a, err := New(src, discard())
	require.NoError(t, err)

	set, err := a.Analyze(context.Background(), "DWG-1")
	require.NoError(t, err)
	assert.False(t, set.OCRUsed)
	assert.Len(t, set.Dimensions, 1)
	assert.Len(t, set.Datums, 1)
}

func TestAnalyzeMissingDocument(t *testing.T) {
	a, err := New(mapSource{}, discard())
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "DWG-404")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestAnalyzeEmptyDocumentIsUnreadable(t *testing.T) {
	a, err := New(mapSource{"DWG-EMPTY": ""}, discard())
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "DWG-EMPTY")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnreadableDocument))
}

func TestAnalyzeSparsePageTriggersOCR(t *testing.T) {
	engine := &fakeOCR{text: "fillet weld 6 mm GMAW\nASTM A36 frame members here\n"}
	a, err := New(mapSource{"DWG-SCAN": "x\n"}, discard(), WithOCR(engine))
	require.NoError(t, err)

	set, err := a.Analyze(context.Background(), "DWG-SCAN")
	require.NoError(t, err)
	assert.Equal(t, 1, engine.calls)
	assert.True(t, set.OCRUsed)
	assert.Len(t, set.Welds, 1)
	assert.Len(t, set.Materials, 1)
}

func TestAnalyzeDensePageSkipsOCR(t *testing.T) {
	engine := &fakeOCR{text: "should not be used"}
	dense := strings.Repeat("a line of real drawing text with enough characters\n", 20)
	a, err := New(mapSource{"DWG-NATIVE": dense}, discard(), WithOCR(engine))
	require.NoError(t, err)

	set, err := a.Analyze(context.Background(), "DWG-NATIVE")
	require.NoError(t, err)
	assert.Zero(t, engine.calls)
	assert.False(t, set.OCRUsed)
}

func TestAnalyzeOCRFailureKeepsNativeText(t *testing.T) {
	engine := &fakeOCR{err: errors.New("engine offline")}
	a, err := New(mapSource{"DWG-SCAN": "42 mm\n"}, discard(), WithOCR(engine))
	require.NoError(t, err)

	set, err := a.Analyze(context.Background(), "DWG-SCAN")
	require.NoError(t, err)
	assert.False(t, set.OCRUsed)
	assert.Len(t, set.Dimensions, 1)
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(nil, discard())
	assert.Error(t, err)
}
