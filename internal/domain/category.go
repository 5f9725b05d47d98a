package domain

import "fmt"

// CheckCategory identifies one rule engine in the validator set.
type CheckCategory string

const (
	CategoryGDT       CheckCategory = "gdt"
	CategoryWelding   CheckCategory = "welding"
	CategoryMaterial  CheckCategory = "material"
	CategoryComposite CheckCategory = "composite"

	// CategoryAnalysis tags the single top-level issue of a failed run. It is
	// not a selectable validator category and ParseCategory rejects it.
	CategoryAnalysis CheckCategory = "analysis"
)

// AllCategories returns the full check set in registration order.
func AllCategories() []CheckCategory {
	return []CheckCategory{CategoryGDT, CategoryWelding, CategoryMaterial, CategoryComposite}
}

// ParseCategory maps a wire token onto a known category.
func ParseCategory(s string) (CheckCategory, error) {
	switch CheckCategory(s) {
	case CategoryGDT, CategoryWelding, CategoryMaterial, CategoryComposite:
		return CheckCategory(s), nil
	}
	return "", fmt.Errorf("unknown check category %q", s)
}
