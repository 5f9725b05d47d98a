// Package standards provides the versioned, read-only reference tables every
// validator consults: dimensional tolerance classes, material properties, weld
// geometry limits, and the composite checklist definitions. Tables are loaded
// once from embedded YAML and never mutated at request time, so a single Store
// is safely shared across concurrent validator invocations without locking.
package standards

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"drawcheck/pkg/platform/sentinel"
)

//go:embed tables/*.yaml
var tables embed.FS

// ToleranceBand is a plus/minus allowance for a nominal size range.
type ToleranceBand struct {
	Over      float64 `yaml:"over"`
	UpTo      float64 `yaml:"upTo"`
	PlusMinus float64 `yaml:"plusMinus"`
}

// MaterialProps describes one designation from the material table.
type MaterialProps struct {
	Designation   string  `yaml:"designation"`
	Standard      string  `yaml:"standard"`
	Group         string  `yaml:"group"`
	MinYieldMPa   float64 `yaml:"minYieldMPa"`
	MinTensileMPa float64 `yaml:"minTensileMPa"`
}

// WeldLimit bounds a weld type's size and admissible processes.
type WeldLimit struct {
	Type      string   `yaml:"type"`
	MinSizeMM float64  `yaml:"minSizeMM"`
	MaxSizeMM float64  `yaml:"maxSizeMM"`
	Processes []string `yaml:"processes"`
	Standard  string   `yaml:"standard"`
}

// ChecklistItem is one sub-check of the composite validator. Rule selects the
// evaluation kind; Params feed it.
type ChecklistItem struct {
	ID          string            `yaml:"id"`
	Group       string            `yaml:"group"`
	Description string            `yaml:"description"`
	Rule        string            `yaml:"rule"`
	Params      map[string]string `yaml:"params"`
	Severity    string            `yaml:"severity"`
	StandardRef string            `yaml:"standardRef"`
	Suggestion  string            `yaml:"suggestion"`
}

type toleranceFile struct {
	Version       string                     `yaml:"version"`
	LinearClasses map[string][]ToleranceBand `yaml:"linearClasses"`
	BendRadius    map[string]float64         `yaml:"minBendRadiusFactor"`
}

type materialFile struct {
	Version   string          `yaml:"version"`
	Materials []MaterialProps `yaml:"materials"`
}

type weldFile struct {
	Version string      `yaml:"version"`
	Welds   []WeldLimit `yaml:"welds"`
}

type checklistFile struct {
	Version string          `yaml:"version"`
	Items   []ChecklistItem `yaml:"items"`
}

// Store is the immutable in-memory view of all reference tables.
type Store struct {
	version       string
	linearClasses map[string][]ToleranceBand
	bendRadius    map[string]float64
	materials     map[string]MaterialProps
	welds         map[string]WeldLimit
	checklist     []ChecklistItem
}

// Load parses the embedded tables. All files must carry the same pack version;
// a mismatch means a half-updated pack and refuses to load.
func Load() (*Store, error) {
	var tol toleranceFile
	if err := readTable("tables/tolerances.yaml", &tol); err != nil {
		return nil, err
	}
	var mat materialFile
	if err := readTable("tables/materials.yaml", &mat); err != nil {
		return nil, err
	}
	var weld weldFile
	if err := readTable("tables/welds.yaml", &weld); err != nil {
		return nil, err
	}
	var chk checklistFile
	if err := readTable("tables/checklist.yaml", &chk); err != nil {
		return nil, err
	}

	for name, v := range map[string]string{
		"materials": mat.Version, "welds": weld.Version, "checklist": chk.Version,
	} {
		if v != tol.Version {
			return nil, fmt.Errorf("standards pack version mismatch: %s has %q, tolerances has %q: %w",
				name, v, tol.Version, sentinel.ErrUnavailable)
		}
	}

	s := &Store{
		version:       tol.Version,
		linearClasses: tol.LinearClasses,
		bendRadius:    tol.BendRadius,
		materials:     make(map[string]MaterialProps, len(mat.Materials)),
		welds:         make(map[string]WeldLimit, len(weld.Welds)),
		checklist:     chk.Items,
	}
	for _, m := range mat.Materials {
		s.materials[m.Designation] = m
	}
	for _, w := range weld.Welds {
		s.welds[w.Type] = w
	}
	return s, nil
}

func readTable(path string, out any) error {
	raw, err := tables.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, sentinel.ErrUnavailable)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %v: %w", path, err, sentinel.ErrUnavailable)
	}
	return nil
}

// Version returns the pack version, surfaced in every report so downstream
// consumers can pin lookups.
func (s *Store) Version() string { return s.version }

// LinearTolerance returns the general tolerance band for a nominal size in the
// given class (f, m, c, v per ISO 2768-1 naming).
func (s *Store) LinearTolerance(class string, nominal float64) (ToleranceBand, bool) {
	for _, band := range s.linearClasses[class] {
		if nominal > band.Over && nominal <= band.UpTo {
			return band, true
		}
	}
	return ToleranceBand{}, false
}

// Material looks up a designation.
func (s *Store) Material(designation string) (MaterialProps, bool) {
	m, ok := s.materials[designation]
	return m, ok
}

// MinBendRadiusFactor returns the bend-radius-to-thickness multiple for a
// material group.
func (s *Store) MinBendRadiusFactor(group string) (float64, bool) {
	f, ok := s.bendRadius[group]
	return f, ok
}

// WeldLimit looks up size limits by weld type.
func (s *Store) WeldLimit(weldType string) (WeldLimit, bool) {
	w, ok := s.welds[weldType]
	return w, ok
}

// Checklist returns the composite checklist in a stable order (by item id).
func (s *Store) Checklist() []ChecklistItem {
	out := make([]ChecklistItem, len(s.checklist))
	copy(out, s.checklist)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ChecklistSize returns the number of composite sub-checks.
func (s *Store) ChecklistSize() int { return len(s.checklist) }
