package analytics

import (
	"sort"

	"bitewatch/pkg/contracts/domain"
)

type breakdownKey struct {
	primary   string
	secondary string
}

// Breakdown counts secondary-dimension values within each of the most
// frequent primary-dimension values. Primaries are ranked by total count
// descending, ties kept in first-encountered input order, truncated to
// spec.TopPrimary (no truncation when TopPrimary <= 0). Within a primary,
// secondaries follow the same descending-count rule. With ExcludeUnknown,
// records carrying the UNKNOWN sentinel on either dimension are dropped
// before counting.
func Breakdown(view []domain.Incident, spec BreakdownSpec) []BreakdownEntry {
	primaryCounts := make(map[string]int)
	primaryOrder := make([]string, 0)
	pairCounts := make(map[breakdownKey]int)
	secondaryOrder := make(map[string][]string)

	for i := range view {
		primary := spec.Primary.Value(&view[i])
		secondary := spec.Secondary.Value(&view[i])
		if spec.ExcludeUnknown && (primary == domain.UnknownValue || secondary == domain.UnknownValue) {
			continue
		}
		if _, seen := primaryCounts[primary]; !seen {
			primaryOrder = append(primaryOrder, primary)
		}
		primaryCounts[primary]++

		key := breakdownKey{primary: primary, secondary: secondary}
		if _, seen := pairCounts[key]; !seen {
			secondaryOrder[primary] = append(secondaryOrder[primary], secondary)
		}
		pairCounts[key]++
	}

	sort.SliceStable(primaryOrder, func(a, b int) bool {
		return primaryCounts[primaryOrder[a]] > primaryCounts[primaryOrder[b]]
	})
	if spec.TopPrimary > 0 && len(primaryOrder) > spec.TopPrimary {
		primaryOrder = primaryOrder[:spec.TopPrimary]
	}

	entries := make([]BreakdownEntry, 0, len(pairCounts))
	for _, primary := range primaryOrder {
		secondaries := secondaryOrder[primary]
		sort.SliceStable(secondaries, func(a, b int) bool {
			left := pairCounts[breakdownKey{primary: primary, secondary: secondaries[a]}]
			right := pairCounts[breakdownKey{primary: primary, secondary: secondaries[b]}]
			return left > right
		})
		for _, secondary := range secondaries {
			entries = append(entries, BreakdownEntry{
				Primary:   primary,
				Secondary: secondary,
				Count:     pairCounts[breakdownKey{primary: primary, secondary: secondary}],
			})
		}
	}
	return entries
}
