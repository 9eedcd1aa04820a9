package planning_test

import (
	"testing"
	"time"

	"github.com/warp/maintenance-engine/planning"
)

func TestAddMonths(t *testing.T) {
	d := planning.NewPlanDate(2025, time.January, 15)

	if got := d.AddMonths(1).SortKey(); got != "2025-02-15" {
		t.Errorf("AddMonths(1) = %s, want 2025-02-15", got)
	}
	if got := d.AddMonths(12).SortKey(); got != "2026-01-15" {
		t.Errorf("AddMonths(12) = %s, want 2026-01-15", got)
	}
	if got := d.AddMonths(25).SortKey(); got != "2027-02-15" {
		t.Errorf("AddMonths(25) = %s, want 2027-02-15", got)
	}
}

func TestWholeYearsBetween(t *testing.T) {
	start := planning.NewPlanDate(2025, time.March, 10)

	tests := []struct {
		name string
		to   planning.PlanDate
		want int
	}{
		{"same day", start, 0},
		{"eleven months", planning.NewPlanDate(2026, time.February, 10), 0},
		{"exactly one year", planning.NewPlanDate(2026, time.March, 10), 1},
		{"one year minus a day", planning.NewPlanDate(2026, time.March, 9), 0},
		{"two and a half years", planning.NewPlanDate(2027, time.September, 1), 2},
		{"backwards", planning.NewPlanDate(2024, time.March, 10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := planning.WholeYearsBetween(start, tt.to); got != tt.want {
				t.Errorf("WholeYearsBetween(%s, %s) = %d, want %d", start, tt.to, got, tt.want)
			}
		})
	}
}

func TestSortKeyOrdersChronologically(t *testing.T) {
	a := planning.NewPlanDate(2025, time.December, 31)
	b := planning.NewPlanDate(2026, time.January, 1)
	if !(a.SortKey() < b.SortKey()) {
		t.Errorf("expected %s < %s", a.SortKey(), b.SortKey())
	}
}

func TestParsePlanDate(t *testing.T) {
	d, err := planning.ParsePlanDate("2025-06-01")
	if err != nil {
		t.Fatalf("ParsePlanDate failed: %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.June || d.Day() != 1 {
		t.Errorf("parsed wrong date: %s", d)
	}

	if _, err := planning.ParsePlanDate("06/01/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
