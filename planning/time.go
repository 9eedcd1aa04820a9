package planning

import (
	"time"
)

// =============================================================================
// PLAN DATE - Day-granular date used for scheduling
// =============================================================================

type PlanDate struct {
	Time time.Time
}

func NewPlanDate(year int, month time.Month, day int) PlanDate {
	return PlanDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParsePlanDate parses a YYYY-MM-DD date string.
func ParsePlanDate(s string) (PlanDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return PlanDate{}, err
	}
	return PlanDate{Time: t.UTC()}, nil
}

func Today() PlanDate {
	now := time.Now()
	return NewPlanDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d PlanDate) Before(other PlanDate) bool { return d.normalize().Before(other.normalize()) }
func (d PlanDate) Equal(other PlanDate) bool  { return d.normalize().Equal(other.normalize()) }
func (d PlanDate) After(other PlanDate) bool  { return d.normalize().After(other.normalize()) }

func (d PlanDate) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic. AddMonths follows time.AddDate semantics: Jan 31 + 1 month
// normalizes to Mar 2/3, which is acceptable for month-step scheduling.
func (d PlanDate) AddMonths(n int) PlanDate { return PlanDate{Time: d.Time.AddDate(0, n, 0)} }
func (d PlanDate) AddYears(n int) PlanDate  { return PlanDate{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d PlanDate) Year() int         { return d.Time.Year() }
func (d PlanDate) Month() time.Month { return d.Time.Month() }
func (d PlanDate) Day() int          { return d.Time.Day() }
func (d PlanDate) IsZero() bool      { return d.Time.IsZero() }

// SortKey formats the date so lexical order matches chronological order.
func (d PlanDate) SortKey() string { return d.normalize().Format("2006-01-02") }

func (d PlanDate) String() string { return d.SortKey() }

// WholeYearsBetween returns the number of complete 12-month periods
// between two dates. Partial years round down; a negative span yields 0.
func WholeYearsBetween(from, to PlanDate) int {
	if !to.After(from) {
		return 0
	}
	years := to.Year() - from.Year()
	anniversary := from.AddYears(years)
	if anniversary.After(to) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
