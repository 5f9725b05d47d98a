package domain

// CheckResult records the outcome of one rule evaluation. Every attempted
// check produces a result, pass or fail, so the pass-rate denominator is well
// defined.
type CheckResult struct {
	CheckID     string        `json:"checkId"`
	Category    CheckCategory `json:"category"`
	Passed      bool          `json:"passed"`
	Severity    Severity      `json:"severity,omitempty"`
	Message     string        `json:"message,omitempty"`
	Location    string        `json:"location,omitempty"`
	StandardRef string        `json:"standardRef,omitempty"`
	Suggestion  string        `json:"suggestion,omitempty"`
}

// Pass builds a passing result for a check.
func Pass(checkID string, category CheckCategory) CheckResult {
	return CheckResult{CheckID: checkID, Category: category, Passed: true}
}

// Fail builds a failing result with the given severity and message.
func Fail(checkID string, category CheckCategory, severity Severity, message string) CheckResult {
	return CheckResult{
		CheckID:  checkID,
		Category: category,
		Passed:   false,
		Severity: severity,
		Message:  message,
	}
}

// MissingData marks a check that could not run because the drawing lacks the
// entity it needs. Absence of data is reportable, distinct from a failed
// comparison.
func MissingData(checkID string, category CheckCategory) CheckResult {
	return Fail(checkID, category, SeverityWarning, "required data not found")
}

// WithRef attaches the governing standard reference.
func (r CheckResult) WithRef(ref string) CheckResult {
	r.StandardRef = ref
	return r
}

// WithLocation attaches a document location hint.
func (r CheckResult) WithLocation(loc string) CheckResult {
	r.Location = loc
	return r
}

// WithSuggestion attaches a remediation hint.
func (r CheckResult) WithSuggestion(s string) CheckResult {
	r.Suggestion = s
	return r
}
