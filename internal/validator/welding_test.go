package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"drawcheck/internal/domain"
)

func TestWeldingNoWeldsReportsMissingData(t *testing.T) {
	store := loadStore(t)

	results := NewWelding().Evaluate(context.Background(), &domain.EntitySet{}, store)
	for _, r := range results {
		assert.False(t, r.Passed)
		assert.Equal(t, domain.SeverityWarning, r.Severity)
		assert.Equal(t, "required data not found", r.Message)
	}
}

func TestWeldingChecks(t *testing.T) {
	store := loadStore(t)
	welding := NewWelding()
	ctx := context.Background()

	tests := []struct {
		name      string
		weld      domain.WeldSymbol
		checkID   string
		passed    bool
		severity  domain.Severity
	}{
		{"unknown type", domain.WeldSymbol{Type: "brazed", SizeMM: 5}, "WLD-001", false, domain.SeverityError},
		{"unsized callout", domain.WeldSymbol{Type: "fillet"}, "WLD-002", false, domain.SeverityError},
		{"below minimum", domain.WeldSymbol{Type: "fillet", SizeMM: 2}, "WLD-003", false, domain.SeverityCritical},
		{"above maximum", domain.WeldSymbol{Type: "fillet", SizeMM: 20}, "WLD-004", false, domain.SeverityError},
		{"disallowed process", domain.WeldSymbol{Type: "seal", SizeMM: 4, Process: "SAW"}, "WLD-005", false, domain.SeverityError},
		{"compliant fillet", domain.WeldSymbol{Type: "fillet", SizeMM: 6, Process: "GMAW"}, "WLD-003", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := &domain.EntitySet{Welds: []domain.WeldSymbol{tt.weld}}
			r := findResult(t, welding.Evaluate(ctx, entities, store), tt.checkID)
			assert.Equal(t, tt.passed, r.Passed)
			if !tt.passed {
				assert.Equal(t, tt.severity, r.Severity)
			}
		})
	}
}

func TestWeldingProcessUnspecifiedPasses(t *testing.T) {
	store := loadStore(t)
	entities := &domain.EntitySet{Welds: []domain.WeldSymbol{{Type: "groove", SizeMM: 8}}}

	r := findResult(t, NewWelding().Evaluate(context.Background(), entities, store), "WLD-005")
	assert.True(t, r.Passed)
}
