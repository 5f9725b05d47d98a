package domain

// Engineering entities are the normalized, typed facts an analysis pass
// extracts from a drawing. Validators consume these instead of raw text.

// Dimension is a measured callout, optionally toleranced.
type Dimension struct {
	Value     float64
	Unit      string
	Tolerance *Tolerance
	Location  string
}

// Tolerance is a plus/minus band around a nominal dimension.
type Tolerance struct {
	Plus  float64
	Minus float64
}

// Datum is a GD&T datum feature label (A, B, C...).
type Datum struct {
	Label      string
	FeatureRef string
}

// WeldSymbol is a weld callout: joint type, leg/throat size, process.
type WeldSymbol struct {
	Type     string
	SizeMM   float64
	Process  string
	Location string
}

// MaterialSpec is a material designation tied to a governing standard.
type MaterialSpec struct {
	Designation string
	StandardRef string
}

// Annotation is free text that did not parse into a structured entity.
// Retaining it lets validators flag missing structured data instead of the
// pipeline crashing on unparseable fragments.
type Annotation struct {
	Text     string
	Location string
}

// EntitySet is the complete output of one analysis pass. Produced once,
// immutable afterwards, owned by the run that requested the analysis.
type EntitySet struct {
	DocumentRef string
	PageCount   int
	OCRUsed     bool

	Dimensions  []Dimension
	Datums      []Datum
	Welds       []WeldSymbol
	Materials   []MaterialSpec
	Annotations []Annotation
}

// Empty reports whether the pass produced no entities at all, structured or
// free-text.
func (e *EntitySet) Empty() bool {
	return len(e.Dimensions) == 0 && len(e.Datums) == 0 && len(e.Welds) == 0 &&
		len(e.Materials) == 0 && len(e.Annotations) == 0
}

// StructuredCount returns the number of typed (non-annotation) entities.
func (e *EntitySet) StructuredCount() int {
	return len(e.Dimensions) + len(e.Datums) + len(e.Welds) + len(e.Materials)
}
