// Package intent converts a free-text command plus an optional attached
// document into a typed ValidationRequest with a confidence score. It is a
// deterministic weighted-rule evaluator: an LLM front end, if ever added,
// sits in front of this contract instead of replacing it.
package intent

import (
	"regexp"
	"strings"

	"drawcheck/internal/domain"
	dErrors "drawcheck/pkg/domain-errors"
)

// MinConfidence is the emission bar. Below it the resolver returns NoMatch
// instead of guessing, leaving clarification to the caller.
const MinConfidence = 0.70

// Signal weights. A verb plus a deictic reference lands exactly at the bar
// for "validate this drawing"-style commands; an explicit identifier pushes
// well past it.
const (
	weightVerb     = 0.35
	weightCategory = 0.35
	weightDocID    = 0.35
	weightDeictic  = 0.45
)

var (
	verbRe    = regexp.MustCompile(`(?i)\b(check|validate|verify|inspect|run|analyz|review)`)
	docIDRe   = regexp.MustCompile(`\b([A-Z]{2,}[-_][A-Z0-9]{1,8}(?:-\d+)?)\b`)
	deicticRe = regexp.MustCompile(`(?i)\b(this\s+(drawing|document|file|one)|the\s+(upload|attachment|attached\s+\w+)|attached)\b`)

	categoryPatterns = []struct {
		re       *regexp.Regexp
		category domain.CheckCategory
	}{
		{regexp.MustCompile(`(?i)\b(gd&?t|geometric|toleranc)`), domain.CategoryGDT},
		{regexp.MustCompile(`(?i)\bweld`), domain.CategoryWelding},
		{regexp.MustCompile(`(?i)\b(material|mtr)\b`), domain.CategoryMaterial},
		{regexp.MustCompile(`(?i)\b(checklist|ache|full\s+check|everything)\b`), domain.CategoryComposite},
	}
)

// Resolution is a successfully resolved command.
type Resolution struct {
	Request    domain.ValidationRequest
	Confidence float64
}

// Resolver scores free text against the weighted pattern table.
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

// Resolve parses text into a request. attachedDocumentRef anchors deictic
// references ("this drawing"); without it a deictic reference cannot resolve
// and contributes nothing. The requester is filled in by the caller.
func (Resolver) Resolve(text, attachedDocumentRef string) (Resolution, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Resolution{}, dErrors.New(dErrors.CodeNoMatch, "empty command")
	}

	confidence := 0.0
	hasVerb := verbRe.MatchString(text)
	if hasVerb {
		confidence += weightVerb
	}

	var categories []domain.CheckCategory
	for _, p := range categoryPatterns {
		if p.re.MatchString(text) {
			categories = append(categories, p.category)
		}
	}
	if len(categories) > 0 {
		confidence += weightCategory
	}

	docRef := ""
	if m := docIDRe.FindStringSubmatch(text); m != nil {
		docRef = m[1]
		confidence += weightDocID
	} else if deicticRe.MatchString(text) && attachedDocumentRef != "" {
		docRef = attachedDocumentRef
		confidence += weightDeictic
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < MinConfidence || docRef == "" {
		return Resolution{}, dErrors.New(dErrors.CodeNoMatch, "could not resolve a validation request from the command")
	}

	// No category keyword but a clear "validate <document>" command: run
	// everything. A superset of checks is safe; a skipped validation is not.
	req := domain.NewValidationRequest(docRef, "", categories)
	return Resolution{Request: req, Confidence: confidence}, nil
}
