package domain

// RunStatus is the terminal disposition of a validation run.
type RunStatus string

const (
	// StatusComplete means every requested validator returned normally.
	StatusComplete RunStatus = "complete"
	// StatusPartial means at least one validator failed or timed out; its
	// synthetic result is present in the issues list.
	StatusPartial RunStatus = "partial"
	// StatusFailed means the document could not be analyzed at all.
	StatusFailed RunStatus = "failed"
)

// Summary carries the scalar counts of a report. Counts always reflect the
// full result set regardless of any severity filter on the issues list.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
	Critical int `json:"critical"`
}

// ValidationReport is the aggregated outcome delivered to the caller.
// Issues holds failed checks only, ordered by severity descending then
// category then check id, so two runs over the same entity set produce
// byte-identical issue lists.
type ValidationReport struct {
	Status           RunStatus     `json:"status"`
	DurationMs       int64         `json:"durationMs"`
	PassRate         float64       `json:"passRate"`
	StandardsVersion string        `json:"standardsVersion,omitempty"`
	Summary          Summary       `json:"summary"`
	Issues           []CheckResult `json:"issues"`
}

// FilterIssues returns a copy of the report with issues below the filter's
// floor removed. Summary counts are left untouched.
func (r ValidationReport) FilterIssues(f SeverityFilter) ValidationReport {
	floor := f.Floor()
	if floor == SeverityInfo {
		return r
	}
	filtered := make([]CheckResult, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Severity.AtLeast(floor) {
			filtered = append(filtered, issue)
		}
	}
	r.Issues = filtered
	return r
}
