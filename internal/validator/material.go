package validator

import (
	"context"
	"fmt"
	"strings"

	"drawcheck/internal/domain"
	"drawcheck/internal/standards"
)

// Material validates material callouts: designations resolvable against the
// property table, standard references consistent, and a bend-radius rule
// available for every material group in use.
type Material struct{}

func NewMaterial() *Material { return &Material{} }

func (Material) Category() domain.CheckCategory { return domain.CategoryMaterial }

func (m Material) Evaluate(_ context.Context, entities *domain.EntitySet, store *standards.Store) []domain.CheckResult {
	return []domain.CheckResult{
		m.checkDesignationsKnown(entities, store),
		m.checkStandardRefs(entities, store),
		m.checkBendRadiusRule(entities, store),
	}
}

func (Material) checkDesignationsKnown(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "MAT-001"
	if len(e.Materials) == 0 {
		return domain.MissingData(id, domain.CategoryMaterial)
	}
	for _, mat := range e.Materials {
		if _, ok := store.Material(mat.Designation); !ok {
			return domain.Fail(id, domain.CategoryMaterial, domain.SeverityError,
				fmt.Sprintf("material designation %q not in the reference table", mat.Designation)).
				WithRef("API 661 §6.2").
				WithSuggestion("use a listed designation or submit the MTR for review")
		}
	}
	return domain.Pass(id, domain.CategoryMaterial)
}

func (Material) checkStandardRefs(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "MAT-002"
	checked := 0
	for _, mat := range e.Materials {
		props, ok := store.Material(mat.Designation)
		if !ok {
			continue
		}
		checked++
		if mat.StandardRef != "" && !strings.HasPrefix(props.Standard, mat.StandardRef) {
			return domain.Fail(id, domain.CategoryMaterial, domain.SeverityWarning,
				fmt.Sprintf("%s cites %s but the governing standard is %s",
					mat.Designation, mat.StandardRef, props.Standard)).
				WithRef(props.Standard)
		}
	}
	if checked == 0 {
		return domain.MissingData(id, domain.CategoryMaterial)
	}
	return domain.Pass(id, domain.CategoryMaterial)
}

func (Material) checkBendRadiusRule(e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	const id = "MAT-003"
	checked := 0
	for _, mat := range e.Materials {
		props, ok := store.Material(mat.Designation)
		if !ok {
			continue
		}
		checked++
		if _, ok := store.MinBendRadiusFactor(props.Group); !ok {
			return domain.Fail(id, domain.CategoryMaterial, domain.SeverityWarning,
				fmt.Sprintf("no forming rule for material group %q", props.Group)).
				WithRef("ISO 2768-2").
				WithSuggestion("add the bend radius factor for the group to the standards pack")
		}
	}
	if checked == 0 {
		return domain.MissingData(id, domain.CategoryMaterial)
	}
	return domain.Pass(id, domain.CategoryMaterial)
}
