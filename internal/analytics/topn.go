package analytics

import (
	"sort"

	"bitewatch/pkg/contracts/domain"
)

// TopN ranks the values of one dimension by incident count, descending,
// with ties kept in first-encountered input order, truncated to spec.N
// (no truncation when N <= 0). With ExcludeUnknown, records carrying the
// UNKNOWN sentinel on the dimension are dropped before counting. With
// IncludeShare, each entry carries its proportion of the counted subset;
// the denominator is the whole subset, not just the surviving top N.
func TopN(view []domain.Incident, spec TopNSpec) []RankedValue {
	counts := make(map[string]int)
	order := make([]string, 0)
	total := 0

	for i := range view {
		value := spec.Dimension.Value(&view[i])
		if spec.ExcludeUnknown && value == domain.UnknownValue {
			continue
		}
		if _, seen := counts[value]; !seen {
			order = append(order, value)
		}
		counts[value]++
		total++
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if spec.N > 0 && len(order) > spec.N {
		order = order[:spec.N]
	}

	ranked := make([]RankedValue, 0, len(order))
	for _, value := range order {
		entry := RankedValue{Value: value, Count: counts[value]}
		if spec.IncludeShare && total > 0 {
			entry.Share = float64(counts[value]) / float64(total)
		}
		ranked = append(ranked, entry)
	}
	return ranked
}
