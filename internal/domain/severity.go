package domain

// Severity classifies a failed check. The ordering drives both report sorting
// and user-facing urgency: info < warning < error < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of s; unknown severities rank below info.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// SeverityFilter restricts which issues a caller wants echoed back.
type SeverityFilter string

const (
	FilterAll      SeverityFilter = "all"
	FilterWarnings SeverityFilter = "warning+"
	FilterErrors   SeverityFilter = "error+"
)

// Floor returns the minimum severity admitted by the filter.
func (f SeverityFilter) Floor() Severity {
	switch f {
	case FilterWarnings:
		return SeverityWarning
	case FilterErrors:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Valid reports whether f is one of the accepted filter tokens. The empty
// string is valid and means "all".
func (f SeverityFilter) Valid() bool {
	switch f {
	case "", FilterAll, FilterWarnings, FilterErrors:
		return true
	}
	return false
}
