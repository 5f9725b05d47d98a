package validator

import (
	"context"
	"fmt"
	"slices"

	"drawcheck/internal/domain"
	"drawcheck/internal/standards"
)

// Welding validates weld callouts against the weld geometry limits table:
// known joint types, size bands, and admissible processes.
type Welding struct{}

func NewWelding() *Welding { return &Welding{} }

func (Welding) Category() domain.CheckCategory { return domain.CategoryWelding }

func (w Welding) Evaluate(_ context.Context, entities *domain.EntitySet, store *standards.Store) []domain.CheckResult {
	return []domain.CheckResult{
		w.checkTypesKnown(entities, store),
		w.checkSizesSpecified(entities),
		w.checkMinimumSizes(entities, store),
		w.checkMaximumSizes(entities, store),
		w.checkProcesses(entities, store),
	}
}

func (Welding) checkTypesKnown(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "WLD-001"
	if len(e.Welds) == 0 {
		return domain.MissingData(id, domain.CategoryWelding)
	}
	for _, weld := range e.Welds {
		if _, ok := store.WeldLimit(weld.Type); !ok {
			return domain.Fail(id, domain.CategoryWelding, domain.SeverityError,
				fmt.Sprintf("unknown weld type %q", weld.Type)).
				WithLocation(weld.Location).
				WithRef("AWS A2.4")
		}
	}
	return domain.Pass(id, domain.CategoryWelding)
}

func (Welding) checkSizesSpecified(e *domain.EntitySet) domain.CheckResult {
	const id = "WLD-002"
	if len(e.Welds) == 0 {
		return domain.MissingData(id, domain.CategoryWelding)
	}
	for _, weld := range e.Welds {
		if weld.SizeMM <= 0 {
			return domain.Fail(id, domain.CategoryWelding, domain.SeverityError,
				fmt.Sprintf("%s weld callout carries no size", weld.Type)).
				WithLocation(weld.Location).
				WithRef("AWS A2.4 §6").
				WithSuggestion("add the leg or throat size to the weld symbol")
		}
	}
	return domain.Pass(id, domain.CategoryWelding)
}

func (Welding) checkMinimumSizes(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "WLD-003"
	checked := 0
	for _, weld := range e.Welds {
		limit, ok := store.WeldLimit(weld.Type)
		if !ok || weld.SizeMM <= 0 {
			continue
		}
		checked++
		if weld.SizeMM < limit.MinSizeMM {
			return domain.Fail(id, domain.CategoryWelding, domain.SeverityCritical,
				fmt.Sprintf("%s weld %.4g mm below minimum %.4g mm", weld.Type, weld.SizeMM, limit.MinSizeMM)).
				WithLocation(weld.Location).
				WithRef(limit.Standard).
				WithSuggestion(fmt.Sprintf("increase the weld to at least %.4g mm", limit.MinSizeMM))
		}
	}
	if checked == 0 {
		return domain.MissingData(id, domain.CategoryWelding)
	}
	return domain.Pass(id, domain.CategoryWelding)
}

func (Welding) checkMaximumSizes(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "WLD-004"
	checked := 0
	for _, weld := range e.Welds {
		limit, ok := store.WeldLimit(weld.Type)
		if !ok || weld.SizeMM <= 0 {
			continue
		}
		checked++
		if weld.SizeMM > limit.MaxSizeMM {
			return domain.Fail(id, domain.CategoryWelding, domain.SeverityError,
				fmt.Sprintf("%s weld %.4g mm exceeds maximum %.4g mm", weld.Type, weld.SizeMM, limit.MaxSizeMM)).
				WithLocation(weld.Location).
				WithRef(limit.Standard)
		}
	}
	if checked == 0 {
		return domain.MissingData(id, domain.CategoryWelding)
	}
	return domain.Pass(id, domain.CategoryWelding)
}

func (Welding) checkProcesses(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "WLD-005"
	if len(e.Welds) == 0 {
		return domain.MissingData(id, domain.CategoryWelding)
	}
	for _, weld := range e.Welds {
		if weld.Process == "" {
			continue
		}
		limit, ok := store.WeldLimit(weld.Type)
		if !ok {
			continue
		}
		if !slices.Contains(limit.Processes, weld.Process) {
			return domain.Fail(id, domain.CategoryWelding, domain.SeverityError,
				fmt.Sprintf("process %s not permitted for %s welds", weld.Process, weld.Type)).
				WithLocation(weld.Location).
				WithRef(limit.Standard)
		}
	}
	return domain.Pass(id, domain.CategoryWelding)
}
