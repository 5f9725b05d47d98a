package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"drawcheck/internal/domain"
)

func TestMaterialChecks(t *testing.T) {
	store := loadStore(t)
	material := NewMaterial()
	ctx := context.Background()

	t.Run("no materials reports missing data", func(t *testing.T) {
		for _, r := range material.Evaluate(ctx, &domain.EntitySet{}, store) {
			assert.False(t, r.Passed)
			assert.Equal(t, "required data not found", r.Message)
		}
	})

	t.Run("unknown designation errors", func(t *testing.T) {
		entities := &domain.EntitySet{Materials: []domain.MaterialSpec{{Designation: "ASTM A999"}}}
		r := findResult(t, material.Evaluate(ctx, entities, store), "MAT-001")
		assert.False(t, r.Passed)
		assert.Equal(t, domain.SeverityError, r.Severity)
		assert.NotEmpty(t, r.Suggestion)
	})

	t.Run("mismatched standard reference warns", func(t *testing.T) {
		entities := &domain.EntitySet{Materials: []domain.MaterialSpec{
			{Designation: "ASTM A36", StandardRef: "EN 10025-2"},
		}}
		r := findResult(t, material.Evaluate(ctx, entities, store), "MAT-002")
		assert.False(t, r.Passed)
		assert.Equal(t, domain.SeverityWarning, r.Severity)
	})

	t.Run("derived standard prefix is accepted", func(t *testing.T) {
		entities := &domain.EntitySet{Materials: []domain.MaterialSpec{
			{Designation: "ASTM A516-70", StandardRef: "ASTM A516"},
		}}
		r := findResult(t, material.Evaluate(ctx, entities, store), "MAT-002")
		assert.True(t, r.Passed)
	})

	t.Run("known designation with forming rule passes everything", func(t *testing.T) {
		entities := &domain.EntitySet{Materials: []domain.MaterialSpec{
			{Designation: "ASTM A240-316L", StandardRef: "ASTM A240/A240M"},
		}}
		for _, r := range material.Evaluate(ctx, entities, store) {
			assert.True(t, r.Passed, "check %s", r.CheckID)
		}
	})
}
