package analytics

import (
	"sort"

	"bitewatch/pkg/contracts/domain"
)

// Options lists the distinct values present in the view for every
// dimension, sorted lexicographically, in the canonical dimension order.
// UNKNOWN appears like any other value so clients can filter on it.
// Typically fed a date-range view so pickers only offer values that can
// still match.
func Options(view []domain.Incident) []DimensionOptions {
	dimensions := domain.AllDimensions()
	options := make([]DimensionOptions, 0, len(dimensions))

	for _, dim := range dimensions {
		seen := make(map[string]struct{})
		values := make([]string, 0)
		for i := range view {
			value := dim.Value(&view[i])
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			values = append(values, value)
		}
		sort.Strings(values)
		options = append(options, DimensionOptions{
			Dimension: dim,
			Values:    values,
		})
	}
	return options
}
