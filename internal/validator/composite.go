package validator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"drawcheck/internal/domain"
	"drawcheck/internal/standards"
)

// Composite evaluates the large equipment-class checklist. It is not a
// different contract, only a larger fixed list: one CheckResult per sub-check,
// grouped by the item's category for reporting. Item definitions live in the
// standards pack, so updating the checklist is a data change.
type Composite struct{}

func NewComposite() *Composite { return &Composite{} }

func (Composite) Category() domain.CheckCategory { return domain.CategoryComposite }

func (c Composite) Evaluate(ctx context.Context, entities *domain.EntitySet, store *standards.Store) []domain.CheckResult {
	items := store.Checklist()
	results := make([]domain.CheckResult, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		results = append(results, evalItem(item, entities, store))
	}
	return results
}

func evalItem(item standards.ChecklistItem, e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	severity := domain.Severity(item.Severity)
	if severity.Rank() < 0 {
		severity = domain.SeverityWarning
	}

	var result domain.CheckResult
	switch item.Rule {
	case "require-dimension":
		result = requireCount(item, severity, len(e.Dimensions), "no dimensions extracted")
	case "require-datum":
		result = requireCount(item, severity, len(e.Datums), "no datum references extracted")
	case "require-weld":
		result = requireCount(item, severity, len(e.Welds), "no weld symbols extracted")
	case "require-material":
		result = requireCount(item, severity, len(e.Materials), "no material callouts extracted")
	case "note-present":
		result = evalNotePresent(item, severity, e)
	case "dimension-min":
		result = evalDimensionMin(item, severity, e)
	case "dimension-max":
		result = evalDimensionMax(item, severity, e)
	case "weld-size-min":
		result = evalWeldSizeMin(item, severity, e, store)
	case "material-known":
		result = evalMaterialKnown(item, severity, e, store)
	case "tolerance-coverage":
		result = evalToleranceCoverage(item, severity, e)
	default:
		result = domain.Fail(item.ID, domain.CategoryComposite, domain.SeverityError,
			fmt.Sprintf("checklist rule %q not implemented", item.Rule))
	}

	if !result.Passed {
		if result.StandardRef == "" {
			result.StandardRef = item.StandardRef
		}
		if result.Suggestion == "" {
			result.Suggestion = item.Suggestion
		}
	}
	return result
}

func requireCount(item standards.ChecklistItem, severity domain.Severity, n int, message string) domain.CheckResult {
	if n == 0 {
		return domain.Fail(item.ID, domain.CategoryComposite, severity,
			item.Description+": "+message)
	}
	return domain.Pass(item.ID, domain.CategoryComposite)
}

func evalNotePresent(item standards.ChecklistItem, severity domain.Severity, e *domain.EntitySet) domain.CheckResult {
	re, err := regexp.Compile(item.Params["pattern"])
	if err != nil {
		return domain.Fail(item.ID, domain.CategoryComposite, domain.SeverityError,
			fmt.Sprintf("checklist item misconfigured: bad pattern: %v", err))
	}
	for _, note := range e.Annotations {
		if re.MatchString(note.Text) {
			return domain.Pass(item.ID, domain.CategoryComposite)
		}
	}
	return domain.Fail(item.ID, domain.CategoryComposite, severity,
		item.Description+": note not found on drawing")
}

// evalDimensionMin passes when a dimension of at least the required size
// exists. With a match pattern, only dimensions on annotation lines matching
// the pattern are considered.
func evalDimensionMin(item standards.ChecklistItem, severity domain.Severity, e *domain.EntitySet) domain.CheckResult {
	min, unit, err := thresholdParams(item, "min")
	if err != nil {
		return domain.Fail(item.ID, domain.CategoryComposite, domain.SeverityError, err.Error())
	}
	candidates := matchedDimensions(item, e, unit)
	if len(candidates) == 0 {
		return domain.MissingData(item.ID, domain.CategoryComposite)
	}
	for _, v := range candidates {
		if v >= min {
			return domain.Pass(item.ID, domain.CategoryComposite)
		}
	}
	return domain.Fail(item.ID, domain.CategoryComposite, severity,
		fmt.Sprintf("%s: no dimension reaches %.4g %s", item.Description, min, unit))
}

// evalDimensionMax fails when any considered dimension exceeds the limit.
func evalDimensionMax(item standards.ChecklistItem, severity domain.Severity, e *domain.EntitySet) domain.CheckResult {
	max, unit, err := thresholdParams(item, "max")
	if err != nil {
		return domain.Fail(item.ID, domain.CategoryComposite, domain.SeverityError, err.Error())
	}
	candidates := matchedDimensions(item, e, unit)
	if len(candidates) == 0 {
		return domain.MissingData(item.ID, domain.CategoryComposite)
	}
	for _, v := range candidates {
		if v > max {
			return domain.Fail(item.ID, domain.CategoryComposite, severity,
				fmt.Sprintf("%s: %.4g %s exceeds limit %.4g %s", item.Description, v, unit, max, unit))
		}
	}
	return domain.Pass(item.ID, domain.CategoryComposite)
}

func evalWeldSizeMin(item standards.ChecklistItem, severity domain.Severity, e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	wantType := item.Params["type"]
	checked := 0
	for _, weld := range e.Welds {
		if wantType != "" && weld.Type != wantType {
			continue
		}
		limit, ok := store.WeldLimit(weld.Type)
		if !ok {
			continue
		}
		checked++
		if weld.SizeMM <= 0 {
			return domain.Fail(item.ID, domain.CategoryComposite, severity,
				fmt.Sprintf("%s: %s weld callout carries no size", item.Description, weld.Type)).
				WithLocation(weld.Location)
		}
		if weld.SizeMM < limit.MinSizeMM {
			return domain.Fail(item.ID, domain.CategoryComposite, severity,
				fmt.Sprintf("%s: %s weld %.4g mm below minimum %.4g mm",
					item.Description, weld.Type, weld.SizeMM, limit.MinSizeMM)).
				WithLocation(weld.Location)
		}
	}
	if checked == 0 {
		return domain.MissingData(item.ID, domain.CategoryComposite)
	}
	return domain.Pass(item.ID, domain.CategoryComposite)
}

func evalMaterialKnown(item standards.ChecklistItem, severity domain.Severity, e *domain.EntitySet, store *standards.Store) domain.CheckResult {
	if len(e.Materials) == 0 {
		return domain.MissingData(item.ID, domain.CategoryComposite)
	}
	for _, mat := range e.Materials {
		if _, ok := store.Material(mat.Designation); !ok {
			return domain.Fail(item.ID, domain.CategoryComposite, severity,
				fmt.Sprintf("%s: %q not in the reference table", item.Description, mat.Designation))
		}
	}
	return domain.Pass(item.ID, domain.CategoryComposite)
}

func evalToleranceCoverage(item standards.ChecklistItem, severity domain.Severity, e *domain.EntitySet) domain.CheckResult {
	minPercent, err := strconv.ParseFloat(item.Params["minPercent"], 64)
	if err != nil {
		return domain.Fail(item.ID, domain.CategoryComposite, domain.SeverityError,
			"checklist item misconfigured: bad minPercent")
	}
	if len(e.Dimensions) == 0 {
		return domain.MissingData(item.ID, domain.CategoryComposite)
	}
	toleranced := 0
	for _, dim := range e.Dimensions {
		if dim.Tolerance != nil {
			toleranced++
		}
	}
	got := float64(toleranced) / float64(len(e.Dimensions)) * 100
	if got < minPercent {
		return domain.Fail(item.ID, domain.CategoryComposite, severity,
			fmt.Sprintf("%s: %.1f%% of dimensions toleranced, need %.4g%%", item.Description, got, minPercent))
	}
	return domain.Pass(item.ID, domain.CategoryComposite)
}

func thresholdParams(item standards.ChecklistItem, key string) (float64, string, error) {
	v, err := strconv.ParseFloat(item.Params[key], 64)
	if err != nil {
		return 0, "", fmt.Errorf("checklist item misconfigured: bad %s", key)
	}
	unit := item.Params["unit"]
	if unit == "" {
		unit = "mm"
	}
	return v, unit, nil
}

// matchedDimensions collects dimension values in the wanted unit. A match
// pattern narrows the scan to dimensions embedded in annotation lines that
// match it.
func matchedDimensions(item standards.ChecklistItem, e *domain.EntitySet, unit string) []float64 {
	match := item.Params["match"]
	if match == "" {
		var out []float64
		for _, dim := range e.Dimensions {
			if dim.Unit == unit {
				out = append(out, dim.Value)
			}
		}
		return out
	}
	re, err := regexp.Compile("(?i)" + match)
	if err != nil {
		return nil
	}
	var out []float64
	for _, note := range e.Annotations {
		if !re.MatchString(note.Text) {
			continue
		}
		if m := dimTokenRe.FindStringSubmatch(note.Text); m != nil && m[2] == unit {
			v, _ := strconv.ParseFloat(m[1], 64)
			out = append(out, v)
		}
	}
	return out
}

var dimTokenRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mm|cm|m|in)\b`)
