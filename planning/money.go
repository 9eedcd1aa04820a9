package planning

import "github.com/shopspring/decimal"

// =============================================================================
// MONEY - Monetary value, rounded to cents at creation
// =============================================================================

// Money wraps decimal.Decimal for exact monetary arithmetic.
// Constructors round to 2 decimal places; arithmetic preserves that scale
// except Mul, whose callers round explicitly when a value is stored.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value).Round(2)}
}

func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Value: d.Round(2)}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

// MustParseMoney parses a stored decimal string. Invalid input yields zero;
// stored values are always written by Money.String so this only trips on
// hand-edited data.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(b Money) Money          { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money          { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) Round() Money               { return Money{Value: m.Value.Round(2)} }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsNegative() bool           { return m.Value.IsNegative() }
func (m Money) Equal(b Money) bool         { return m.Value.Equal(b.Value) }
func (m Money) Float64() float64           { f, _ := m.Value.Float64(); return f }
func (m Money) String() string             { return m.Value.StringFixed(2) }
