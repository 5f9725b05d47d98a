package validator

import (
	"context"
	"fmt"

	"drawcheck/internal/domain"
	"drawcheck/internal/standards"
)

// GDT validates geometric dimensioning and tolerancing: datum schemes,
// tolerance band sanity against the general tolerance classes, and unit
// discipline.
type GDT struct{}

func NewGDT() *GDT { return &GDT{} }

func (GDT) Category() domain.CheckCategory { return domain.CategoryGDT }

func (g GDT) Evaluate(_ context.Context, entities *domain.EntitySet, store *standards.Store) []domain.CheckResult {
	return []domain.CheckResult{
		g.checkDatumScheme(entities),
		g.checkDatumLabels(entities),
		g.checkToleranceBands(entities, store),
		g.checkGeneralToleranceCoverage(entities, store),
		g.checkUnitConsistency(entities),
	}
}

// checkDatumScheme requires a datum reference frame once the drawing carries
// dimensioned features.
func (GDT) checkDatumScheme(e *domain.EntitySet) domain.CheckResult {
	const id = "GDT-001"
	if len(e.Dimensions) == 0 && len(e.Datums) == 0 {
		return domain.MissingData(id, domain.CategoryGDT)
	}
	if len(e.Dimensions) > 0 && len(e.Datums) == 0 {
		return domain.Fail(id, domain.CategoryGDT, domain.SeverityError,
			"dimensioned features without any datum reference").
			WithRef("ASME Y14.5 §4").
			WithSuggestion("establish a datum reference frame for located features")
	}
	return domain.Pass(id, domain.CategoryGDT)
}

// checkDatumLabels rejects duplicate datum letters.
func (GDT) checkDatumLabels(e *domain.EntitySet) domain.CheckResult {
	const id = "GDT-002"
	if len(e.Datums) == 0 {
		return domain.MissingData(id, domain.CategoryGDT)
	}
	seen := map[string]bool{}
	for _, d := range e.Datums {
		if seen[d.Label] {
			return domain.Fail(id, domain.CategoryGDT, domain.SeverityError,
				fmt.Sprintf("datum label %s defined more than once", d.Label)).
				WithRef("ASME Y14.5 §4.3")
		}
		seen[d.Label] = true
	}
	return domain.Pass(id, domain.CategoryGDT)
}

// checkToleranceBands flags explicit tolerances tighter than the fine general
// class for their nominal size: almost always a drafting error that drives
// machining cost.
func (GDT) checkToleranceBands(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "GDT-003"
	toleranced := 0
	for _, dim := range e.Dimensions {
		if dim.Tolerance == nil || dim.Unit != "mm" {
			continue
		}
		toleranced++
		if dim.Tolerance.Plus <= 0 && dim.Tolerance.Minus <= 0 {
			return domain.Fail(id, domain.CategoryGDT, domain.SeverityError,
				fmt.Sprintf("zero-width tolerance on %.4g mm", dim.Value)).
				WithLocation(dim.Location)
		}
		band, ok := store.LinearTolerance("f", dim.Value)
		if !ok {
			continue
		}
		if dim.Tolerance.Plus < band.PlusMinus && dim.Tolerance.Minus < band.PlusMinus {
			return domain.Fail(id, domain.CategoryGDT, domain.SeverityWarning,
				fmt.Sprintf("tolerance ±%.4g on %.4g mm is tighter than general class f (±%.4g)",
					dim.Tolerance.Plus, dim.Value, band.PlusMinus)).
				WithLocation(dim.Location).
				WithRef("ISO 2768-1").
				WithSuggestion("confirm the tight tolerance is intentional or relax to the general class")
		}
	}
	if toleranced == 0 {
		return domain.MissingData(id, domain.CategoryGDT)
	}
	return domain.Pass(id, domain.CategoryGDT)
}

// checkGeneralToleranceCoverage verifies every untoleranced metric dimension
// is covered by the medium general tolerance table.
func (GDT) checkGeneralToleranceCoverage(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "GDT-004"
	if len(e.Dimensions) == 0 {
		return domain.MissingData(id, domain.CategoryGDT)
	}
	for _, dim := range e.Dimensions {
		if dim.Tolerance != nil || dim.Unit != "mm" {
			continue
		}
		if _, ok := store.LinearTolerance("m", dim.Value); !ok {
			return domain.Fail(id, domain.CategoryGDT, domain.SeverityWarning,
				fmt.Sprintf("%.4g mm has no explicit tolerance and falls outside the general tolerance table", dim.Value)).
				WithLocation(dim.Location).
				WithRef("ISO 2768-1").
				WithSuggestion("tolerance the dimension explicitly")
		}
	}
	return domain.Pass(id, domain.CategoryGDT)
}

// checkUnitConsistency rejects mixed units across dimension callouts.
func (GDT) checkUnitConsistency(e *domain.EntitySet) domain.CheckResult {
	const id = "GDT-005"
	if len(e.Dimensions) == 0 {
		return domain.MissingData(id, domain.CategoryGDT)
	}
	first := e.Dimensions[0].Unit
	for _, dim := range e.Dimensions[1:] {
		if dim.Unit != first {
			return domain.Fail(id, domain.CategoryGDT, domain.SeverityError,
				fmt.Sprintf("mixed dimension units: %s and %s", first, dim.Unit)).
				WithLocation(dim.Location).
				WithRef("ASME Y14.100").
				WithSuggestion("dimension the drawing in a single unit system")
		}
	}
	return domain.Pass(id, domain.CategoryGDT)
}
