package planning

import "sort"

// =============================================================================
// TIMELINE - Derived per-year views, recomputed on every read
// =============================================================================

// GroupsByYear buckets task groups by the calendar year of their group
// date. Buckets are sorted chronologically so output is independent of
// input order. No mutation; safe to recompute on every read.
func GroupsByYear(groups []TaskGroup) map[int][]TaskGroup {
	byYear := make(map[int][]TaskGroup)
	for _, g := range groups {
		year := g.GroupDate.Year()
		byYear[year] = append(byYear[year], g)
	}
	for year := range byYear {
		bucket := byYear[year]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].GroupDate.SortKey() < bucket[j].GroupDate.SortKey()
		})
		byYear[year] = bucket
	}
	return byYear
}

// CostPerYear sums group cost per calendar year, rounded to cents.
// Decimal addition is associative, so the result is invariant to the
// order of the input list.
func CostPerYear(groups []TaskGroup) map[int]Money {
	totals := make(map[int]Money)
	for _, g := range groups {
		year := g.GroupDate.Year()
		totals[year] = totals[year].Add(g.Cost)
	}
	for year, m := range totals {
		totals[year] = m.Round()
	}
	return totals
}

// Years returns the sorted list of years present in the groups.
func Years(groups []TaskGroup) []int {
	seen := make(map[int]bool)
	var years []int
	for _, g := range groups {
		y := g.GroupDate.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}
