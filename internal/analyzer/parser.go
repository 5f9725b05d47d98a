package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"drawcheck/internal/domain"
)

// The parsing vocabulary is a fixed set of domain patterns. A line that
// matches nothing becomes an Annotation so downstream validators can still
// flag missing structured data instead of the pass aborting.
var (
	// 42.5 mm ±0.1, Ø120 mm +0.2/-0.1, R15 mm
	dimensionRe = regexp.MustCompile(`(?:Ø|R)?(\d+(?:\.\d+)?)\s*(mm|cm|m|in)\b(?:\s*(?:±|\+/-)\s*(\d+(?:\.\d+)?)|\s*\+(\d+(?:\.\d+)?)/-(\d+(?:\.\d+)?))?`)

	// DATUM A, datum feature B on face
	datumRe = regexp.MustCompile(`(?i)\bdatum(?:\s+feature)?\s+([A-Z])\b(?:\s+on\s+(.+))?`)

	// FILLET WELD 6 mm GMAW, seal weld 3mm
	weldRe = regexp.MustCompile(`(?i)\b(fillet|groove|plug|seal|spot)\s+weld\b(?:\s*(\d+(?:\.\d+)?)\s*mm)?(?:\s+(SMAW|GMAW|FCAW|SAW|GTAW|ESW|RSW))?`)

	// ASTM A516-70, ASTM B209 6061-T6, EN 10025 S355J2
	materialRe = regexp.MustCompile(`\b(ASTM\s+[AB]\d+(?:-[A-Za-z0-9]+)?(?:\s+\d{4}-T\d)?|EN\s+10025\s+S\d+[A-Z0-9]*)\b`)
)

// parsePages walks every extracted line and folds matches into an EntitySet.
func parsePages(documentRef string, pages []Page, ocrUsed bool) *domain.EntitySet {
	set := &domain.EntitySet{
		DocumentRef: documentRef,
		PageCount:   len(pages),
		OCRUsed:     ocrUsed,
	}
	for _, page := range pages {
		for ln, line := range strings.Split(page.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			loc := fmt.Sprintf("page %d, line %d", page.Number, ln+1)
			if !parseLine(set, line, loc) {
				set.Annotations = append(set.Annotations, domain.Annotation{Text: line, Location: loc})
			}
		}
	}
	return set
}

// parseLine applies the vocabulary to one line. Returns false when nothing
// structured matched. Lines carrying a structured match are also retained as
// annotations when surrounding words remain, so note-style checks still see
// the full text.
func parseLine(set *domain.EntitySet, line, loc string) bool {
	matched := false

	if m := datumRe.FindStringSubmatch(line); m != nil {
		set.Datums = append(set.Datums, domain.Datum{
			Label:      strings.ToUpper(m[1]),
			FeatureRef: strings.TrimSpace(m[2]),
		})
		matched = true
	}

	if m := weldRe.FindStringSubmatch(line); m != nil {
		weld := domain.WeldSymbol{
			Type:     strings.ToLower(m[1]),
			Process:  strings.ToUpper(m[3]),
			Location: loc,
		}
		if m[2] != "" {
			weld.SizeMM, _ = strconv.ParseFloat(m[2], 64)
		}
		set.Welds = append(set.Welds, weld)
		matched = true
	}

	if m := materialRe.FindStringSubmatch(line); m != nil {
		set.Materials = append(set.Materials, domain.MaterialSpec{
			Designation: normalizeSpaces(m[1]),
			StandardRef: standardFor(m[1]),
		})
		matched = true
	}

	// Dimensions last: weld sizes and material grades also look numeric, so
	// skip dimension parsing on lines already claimed by those entities.
	if !matched {
		if m := dimensionRe.FindStringSubmatch(line); m != nil {
			dim := domain.Dimension{Unit: m[2], Location: loc}
			dim.Value, _ = strconv.ParseFloat(m[1], 64)
			switch {
			case m[3] != "":
				v, _ := strconv.ParseFloat(m[3], 64)
				dim.Tolerance = &domain.Tolerance{Plus: v, Minus: v}
			case m[4] != "":
				plus, _ := strconv.ParseFloat(m[4], 64)
				minus, _ := strconv.ParseFloat(m[5], 64)
				dim.Tolerance = &domain.Tolerance{Plus: plus, Minus: minus}
			}
			set.Dimensions = append(set.Dimensions, dim)
			matched = true
		}
	}

	if matched && hasResidualText(line) {
		set.Annotations = append(set.Annotations, domain.Annotation{Text: line, Location: loc})
	}
	return matched
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func standardFor(designation string) string {
	if strings.HasPrefix(designation, "EN") {
		return "EN 10025-2"
	}
	fields := strings.Fields(designation)
	if len(fields) >= 2 {
		return fields[0] + " " + strings.SplitN(fields[1], "-", 2)[0]
	}
	return designation
}

// hasResidualText reports whether a line carries prose beyond the bare
// entity callout, worth keeping for note-style checks.
func hasResidualText(line string) bool {
	return len(strings.Fields(line)) > 3
}
