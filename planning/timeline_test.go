package planning_test

import (
	"testing"
	"time"

	"github.com/warp/maintenance-engine/planning"
)

func timelineGroups() []planning.TaskGroup {
	return []planning.TaskGroup{
		{ID: "g-1", Name: "Paint", GroupDate: planning.NewPlanDate(2026, time.September, 1), Cost: planning.NewMoney(200)},
		{ID: "g-2", Name: "Roof", GroupDate: planning.NewPlanDate(2025, time.March, 1), Cost: planning.NewMoney(1000)},
		{ID: "g-3", Name: "Gutters", GroupDate: planning.NewPlanDate(2026, time.February, 1), Cost: planning.NewMoney(150.50)},
	}
}

func TestGroupsByYear(t *testing.T) {
	byYear := planning.GroupsByYear(timelineGroups())

	if len(byYear) != 2 {
		t.Fatalf("got %d year buckets, want 2", len(byYear))
	}
	if len(byYear[2025]) != 1 || len(byYear[2026]) != 2 {
		t.Fatalf("bucket sizes wrong: 2025=%d 2026=%d", len(byYear[2025]), len(byYear[2026]))
	}
	// Within a year, groups sort by date regardless of input order.
	if byYear[2026][0].ID != "g-3" || byYear[2026][1].ID != "g-1" {
		t.Errorf("2026 bucket not date-sorted: %s, %s", byYear[2026][0].ID, byYear[2026][1].ID)
	}
}

func TestCostPerYear(t *testing.T) {
	totals := planning.CostPerYear(timelineGroups())

	if got := totals[2025].String(); got != "1000.00" {
		t.Errorf("2025 total = %s, want 1000.00", got)
	}
	if got := totals[2026].String(); got != "350.50" {
		t.Errorf("2026 total = %s, want 350.50", got)
	}
}

func TestCostPerYearOrderInvariant(t *testing.T) {
	groups := timelineGroups()
	reversed := []planning.TaskGroup{groups[2], groups[1], groups[0]}

	a := planning.CostPerYear(groups)
	b := planning.CostPerYear(reversed)
	for year, m := range a {
		if !m.Equal(b[year]) {
			t.Errorf("year %d: %s vs %s depending on input order", year, m, b[year])
		}
	}
}

func TestYears(t *testing.T) {
	years := planning.Years(timelineGroups())
	if len(years) != 2 || years[0] != 2025 || years[1] != 2026 {
		t.Errorf("Years = %v, want [2025 2026]", years)
	}

	if got := planning.Years(nil); len(got) != 0 {
		t.Errorf("Years(nil) = %v, want empty", got)
	}
}
