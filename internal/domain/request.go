package domain

// ValidationRequest is the typed, immutable description of one validation run.
// Construct it through NewValidationRequest so the category-set defaulting and
// the non-empty invariant hold everywhere.
type ValidationRequest struct {
	DocumentRef     string
	ValidationTypes []CheckCategory
	SeverityFilter  SeverityFilter
	RequesterID     string
	ProjectID       string
}

// NewValidationRequest builds a request, defaulting an absent category list to
// the full set. An explicitly empty list is the caller's error and must be
// rejected at intake before this constructor runs.
func NewValidationRequest(documentRef, requesterID string, types []CheckCategory) ValidationRequest {
	if len(types) == 0 {
		types = AllCategories()
	}
	return ValidationRequest{
		DocumentRef:     documentRef,
		ValidationTypes: dedupeCategories(types),
		SeverityFilter:  FilterAll,
		RequesterID:     requesterID,
	}
}

func dedupeCategories(in []CheckCategory) []CheckCategory {
	seen := make(map[CheckCategory]bool, len(in))
	out := make([]CheckCategory, 0, len(in))
	for _, c := range in {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
