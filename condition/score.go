/*
score.go - Condition score aggregation

PURPOSE:
  Computes an element's 1..6 condition score from its recorded defects
  and total replacement value, following the standardized severity/
  intensity/extent methodology.

ALGORITHM:
  1. Classify each defect's extent percentage into a 1..5 extent score.
  2. Group defects by (severity, intensity):
       - groups with multiple defects sum their extents (capped at 100%)
         and values into one section
       - a lone defect is treated as covering the whole element (extent
         score forced to 5) and yields its own section
  3. Each section's raw condition value comes from the severity matrix,
     indexed by [intensity-1][extentScore-1].
  4. The undamaged remainder of the element's value becomes a section
     with condition 1.
  5. Sections aggregate value-weighted through correction factors:
       index = sum(value * factor[condition]) / sum(value)
       score = min(6, round(index * 10) + 1)

EDGE CASES:
  - Zero defects scores exactly 1, without touching the matrices.
  - Replacement value <= 0 is a precondition violation and is rejected.

The matrices and correction factors are fixed domain constants; they are
lookup tables so they can be verified against the standard's reference
values independently of the aggregation.
*/
package condition

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrInvalidReplacementValue is returned when the element's total
// replacement value is zero or negative.
var ErrInvalidReplacementValue = errors.New("replacement value must be positive")

// =============================================================================
// LOOKUP TABLES - Fixed domain constants
// =============================================================================

// Severity matrices: [intensity-1][extentScore-1] -> raw condition 1..6.
var (
	minorMatrix = [3][5]int{
		{1, 1, 1, 1, 2},
		{1, 1, 1, 2, 3},
		{1, 1, 2, 3, 4},
	}
	significantMatrix = [3][5]int{
		{1, 1, 1, 2, 3},
		{1, 1, 2, 3, 4},
		{1, 2, 3, 4, 5},
	}
	seriousMatrix = [3][5]int{
		{1, 1, 2, 3, 4},
		{1, 2, 3, 4, 5},
		{2, 3, 4, 5, 6},
	}
)

// correctionFactors maps a condition value 1..6 to its aggregation weight.
var correctionFactors = map[int]decimal.Decimal{
	1: decimal.NewFromFloat(0.0),
	2: decimal.NewFromFloat(0.1),
	3: decimal.NewFromFloat(0.2),
	4: decimal.NewFromFloat(0.3),
	5: decimal.NewFromFloat(0.4),
	6: decimal.NewFromFloat(0.5),
}

// ExtentScore classifies an affected percentage into a 1..5 extent class.
func ExtentScore(percent float64) int {
	switch {
	case percent < 2:
		return 1
	case percent < 10:
		return 2
	case percent < 30:
		return 3
	case percent < 70:
		return 4
	default:
		return 5
	}
}

func matrixFor(severity Severity) [3][5]int {
	switch severity {
	case SeveritySerious:
		return seriousMatrix
	case SeveritySignificant:
		return significantMatrix
	default:
		return minorMatrix
	}
}

// ConditionValue looks up the raw condition for a defect class. Intensity
// outside 1..3 and extent scores outside 1..5 are clamped to the table.
// Exported so the tables can be verified against the standard's reference
// values independently of the aggregation.
func ConditionValue(severity Severity, intensity, extentScore int) int {
	if intensity < 1 {
		intensity = 1
	}
	if intensity > 3 {
		intensity = 3
	}
	if extentScore < 1 {
		extentScore = 1
	}
	if extentScore > 5 {
		extentScore = 5
	}
	return matrixFor(severity)[intensity-1][extentScore-1]
}

// =============================================================================
// SECTIONS - Intermediate value-weighted slices of the element
// =============================================================================

// Section is a value-weighted slice of the element produced during
// scoring. Sections are aggregated and discarded; they are not persisted.
type Section struct {
	ConditionScore   int
	ReplacementValue decimal.Decimal
}

type classKey struct {
	Severity  Severity
	Intensity int
}

// sections groups the defects by (severity, intensity) and emits one
// section per group (summed extents) or per lone defect (full extent).
func sections(defects []Defect) []Section {
	groups := make(map[classKey][]Defect)
	var keys []classKey
	for _, d := range defects {
		k := classKey{Severity: d.Severity, Intensity: d.Intensity}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], d)
	}
	// Deterministic section order: grouping keys sorted by class.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Severity != keys[j].Severity {
			return keys[i].Severity < keys[j].Severity
		}
		return keys[i].Intensity < keys[j].Intensity
	})

	var out []Section
	for _, k := range keys {
		members := groups[k]
		if len(members) > 1 {
			// Situation 2: defects of the same class combine. Extents sum,
			// capped at the whole element.
			extent := 0.0
			value := decimal.Zero
			for _, d := range members {
				extent += d.ExtentPercent
				value = value.Add(d.ReplacementValue)
			}
			if extent > 100 {
				extent = 100
			}
			out = append(out, Section{
				ConditionScore:   ConditionValue(k.Severity, k.Intensity, ExtentScore(extent)),
				ReplacementValue: value,
			})
			continue
		}
		// Situation 3: a lone defect is treated as covering the whole
		// element within its own value share.
		d := members[0]
		out = append(out, Section{
			ConditionScore:   ConditionValue(k.Severity, k.Intensity, 5),
			ReplacementValue: d.ReplacementValue,
		})
	}
	return out
}

// =============================================================================
// SCORE - Defect list -> single condition score
// =============================================================================

// Score converts recorded defects into the element's condition score.
// elementReplacementValue must be positive; the sum of section values
// never exceeds it because the undamaged remainder makes up the
// difference.
func Score(defects []Defect, elementReplacementValue decimal.Decimal) (int, error) {
	if elementReplacementValue.Sign() <= 0 {
		return 0, ErrInvalidReplacementValue
	}
	if len(defects) == 0 {
		return 1, nil
	}

	secs := sections(defects)

	damaged := decimal.Zero
	for _, s := range secs {
		damaged = damaged.Add(s.ReplacementValue)
	}
	if remainder := elementReplacementValue.Sub(damaged); remainder.Sign() > 0 {
		secs = append(secs, Section{ConditionScore: 1, ReplacementValue: remainder})
	}

	adjusted := decimal.Zero
	total := decimal.Zero
	for _, s := range secs {
		adjusted = adjusted.Add(s.ReplacementValue.Mul(correctionFactors[s.ConditionScore]))
		total = total.Add(s.ReplacementValue)
	}

	index := adjusted.Div(total)
	score := int(index.Mul(decimal.NewFromInt(10)).Round(0).IntPart()) + 1
	if score > 6 {
		score = 6
	}
	return score, nil
}
