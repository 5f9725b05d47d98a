package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"drawcheck/internal/domain"
)

func TestGDTDatumScheme(t *testing.T) {
	store := loadStore(t)
	gdt := NewGDT()

	t.Run("dimensions without datums fail", func(t *testing.T) {
		entities := &domain.EntitySet{Dimensions: []domain.Dimension{{Value: 10, Unit: "mm"}}}
		r := findResult(t, gdt.Evaluate(context.Background(), entities, store), "GDT-001")
		assert.False(t, r.Passed)
		assert.Equal(t, domain.SeverityError, r.Severity)
	})

	t.Run("no geometry at all reports missing data", func(t *testing.T) {
		r := findResult(t, gdt.Evaluate(context.Background(), &domain.EntitySet{}, store), "GDT-001")
		assert.False(t, r.Passed)
		assert.Equal(t, domain.SeverityWarning, r.Severity)
		assert.Equal(t, "required data not found", r.Message)
	})

	t.Run("dimensions with a datum pass", func(t *testing.T) {
		entities := &domain.EntitySet{
			Dimensions: []domain.Dimension{{Value: 10, Unit: "mm"}},
			Datums:     []domain.Datum{{Label: "A"}},
		}
		r := findResult(t, gdt.Evaluate(context.Background(), entities, store), "GDT-001")
		assert.True(t, r.Passed)
	})
}

func TestGDTDuplicateDatums(t *testing.T) {
	store := loadStore(t)
	entities := &domain.EntitySet{Datums: []domain.Datum{{Label: "A"}, {Label: "B"}, {Label: "A"}}}

	r := findResult(t, NewGDT().Evaluate(context.Background(), entities, store), "GDT-002")
	assert.False(t, r.Passed)
	assert.Contains(t, r.Message, "datum label A")
}

func TestGDTToleranceBands(t *testing.T) {
	store := loadStore(t)
	gdt := NewGDT()

	t.Run("tolerance tighter than class f warns", func(t *testing.T) {
		entities := &domain.EntitySet{Dimensions: []domain.Dimension{
			{Value: 50, Unit: "mm", Tolerance: &domain.Tolerance{Plus: 0.01, Minus: 0.01}},
		}}
		r := findResult(t, gdt.Evaluate(context.Background(), entities, store), "GDT-003")
		assert.False(t, r.Passed)
		assert.Equal(t, domain.SeverityWarning, r.Severity)
	})

	t.Run("zero width tolerance errors", func(t *testing.T) {
		entities := &domain.EntitySet{Dimensions: []domain.Dimension{
			{Value: 50, Unit: "mm", Tolerance: &domain.Tolerance{}},
		}}
		r := findResult(t, gdt.Evaluate(context.Background(), entities, store), "GDT-003")
		assert.False(t, r.Passed)
		assert.Equal(t, domain.SeverityError, r.Severity)
	})

	t.Run("reasonable tolerance passes", func(t *testing.T) {
		entities := &domain.EntitySet{Dimensions: []domain.Dimension{
			{Value: 50, Unit: "mm", Tolerance: &domain.Tolerance{Plus: 0.3, Minus: 0.3}},
		}}
		r := findResult(t, gdt.Evaluate(context.Background(), entities, store), "GDT-003")
		assert.True(t, r.Passed)
	})
}

func TestGDTGeneralToleranceCoverage(t *testing.T) {
	store := loadStore(t)
	entities := &domain.EntitySet{Dimensions: []domain.Dimension{{Value: 9000, Unit: "mm"}}}

	r := findResult(t, NewGDT().Evaluate(context.Background(), entities, store), "GDT-004")
	assert.False(t, r.Passed)
	assert.Contains(t, r.Message, "outside the general tolerance table")
}

func TestGDTUnitConsistency(t *testing.T) {
	store := loadStore(t)
	entities := &domain.EntitySet{Dimensions: []domain.Dimension{
		{Value: 10, Unit: "mm"},
		{Value: 2, Unit: "in"},
	}}

	r := findResult(t, NewGDT().Evaluate(context.Background(), entities, store), "GDT-005")
	assert.False(t, r.Passed)
	assert.Contains(t, r.Message, "mixed dimension units")
}
