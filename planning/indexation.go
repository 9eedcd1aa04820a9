package planning

import "github.com/shopspring/decimal"

// =============================================================================
// INDEXATION - Compounding cost adjustment over elapsed whole years
// =============================================================================

// IndexedCost compounds a base cost by an annual rate over elapsed whole
// years: base * (1 + rate/100)^years. The rate may be zero or negative
// (deflation); a negative result is not clamped, it is a valid business
// outcome. The result is rounded to cents.
func IndexedCost(base Money, annualRatePercent decimal.Decimal, wholeYears int) Money {
	if wholeYears <= 0 {
		return base.Round()
	}
	factor := decimal.NewFromInt(1).Add(annualRatePercent.Div(decimal.NewFromInt(100)))
	return base.Mul(factor.Pow(decimal.NewFromInt(int64(wholeYears)))).Round()
}
