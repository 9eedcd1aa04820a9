/*
Package condition implements standardized condition assessment: it
converts the defects recorded against an element into a single integer
condition score (1 = excellent, 6 = very poor).

KEY CONCEPTS:
  - Defect: severity + intensity + extent + value share of the element
  - Extent score: step function from affected percentage to a 1..5 class
  - Matrices: fixed severity tables mapping (intensity, extent) to a raw
    condition value
  - Sections: value-weighted slices of the element, aggregated into the
    final score

Defects are stored as a flat list; the nested category/material grouping
is a derived view, never a mutable structure.

SEE ALSO:
  - score.go: Matrices and the aggregation algorithm
*/
package condition

import (
	"github.com/shopspring/decimal"

	"github.com/warp/maintenance-engine/planning"
)

// =============================================================================
// DEFECT - One recorded deficiency on an element
// =============================================================================

type Severity string

const (
	SeverityMinor       Severity = "minor"
	SeveritySignificant Severity = "significant"
	SeveritySerious     Severity = "serious"
)

// Valid reports whether s is one of the three defined severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeveritySignificant, SeveritySerious:
		return true
	}
	return false
}

// Defect is a recorded deficiency. Intensity is 1..3, ExtentPercent is
// 0..100, ReplacementValue is the defect's share of the element's total
// replacement value.
type Defect struct {
	ID               planning.DefectID
	Category         string
	Material         string
	Severity         Severity
	Intensity        int
	ExtentPercent    float64
	ReplacementValue decimal.Decimal
}

// =============================================================================
// TAXONOMY VIEW - Derived category/material/severity grouping
// =============================================================================

// Taxonomy groups a flat defect list by category, material, and severity.
// It is a read-only view computed on demand.
type Taxonomy map[string]map[string]map[Severity][]Defect

func GroupByTaxonomy(defects []Defect) Taxonomy {
	view := make(Taxonomy)
	for _, d := range defects {
		byMaterial, ok := view[d.Category]
		if !ok {
			byMaterial = make(map[string]map[Severity][]Defect)
			view[d.Category] = byMaterial
		}
		bySeverity, ok := byMaterial[d.Material]
		if !ok {
			bySeverity = make(map[Severity][]Defect)
			byMaterial[d.Material] = bySeverity
		}
		bySeverity[d.Severity] = append(bySeverity[d.Severity], d)
	}
	return view
}
