package orchestrator

import (
	"math"
	"sort"

	"drawcheck/internal/domain"
)

// aggregate folds every check result into the report summary and issue list.
// Counts cover all attempted checks; the issue list carries only failed
// checks at warning severity or above, ordered severity descending, then
// category, then check id, so identical inputs yield identical reports no
// matter how the validators interleaved.
func aggregate(results []domain.CheckResult) (domain.Summary, []domain.CheckResult, float64) {
	sum := domain.Summary{Total: len(results)}
	issues := make([]domain.CheckResult, 0, len(results))
	for _, r := range results {
		if r.Passed {
			sum.Passed++
			continue
		}
		switch r.Severity {
		case domain.SeverityWarning:
			sum.Warnings++
		case domain.SeverityError:
			sum.Errors++
		case domain.SeverityCritical:
			sum.Critical++
		}
		if r.Severity.AtLeast(domain.SeverityWarning) {
			issues = append(issues, r)
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if ar, br := a.Severity.Rank(), b.Severity.Rank(); ar != br {
			return ar > br
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.CheckID < b.CheckID
	})

	var rate float64
	if sum.Total > 0 {
		rate = math.Round(float64(sum.Passed)/float64(sum.Total)*1000) / 10
	}
	return sum, issues, rate
}
