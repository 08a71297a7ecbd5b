package analytics

import (
	"sort"

	"bitewatch/pkg/contracts/domain"
)

// defaultCityCount bounds the city ranking when the caller does not ask
// for a specific depth.
const defaultCityCount = 10

type cityAccumulator struct {
	count      int
	costTotal  float64
	delayTotal int
}

// CityMetrics ranks cities by incident count descending, ties kept in
// first-encountered input order, and reports the mean treatment cost and
// mean report delay per city. Records with an UNKNOWN city never
// participate; the UNKNOWN bucket is a parsing artifact, not a place.
// A non-positive spec.N falls back to the top ten.
func CityMetrics(view []domain.Incident, spec CityMetricsSpec) []CityMetric {
	limit := spec.N
	if limit <= 0 {
		limit = defaultCityCount
	}

	accumulators := make(map[string]*cityAccumulator)
	order := make([]string, 0)

	for i := range view {
		city := view[i].City
		if city == domain.UnknownValue {
			continue
		}
		acc, seen := accumulators[city]
		if !seen {
			acc = &cityAccumulator{}
			accumulators[city] = acc
			order = append(order, city)
		}
		acc.count++
		acc.costTotal += view[i].TreatmentCost
		acc.delayTotal += view[i].ReportDelayDays
	}

	sort.SliceStable(order, func(a, b int) bool {
		return accumulators[order[a]].count > accumulators[order[b]].count
	})
	if len(order) > limit {
		order = order[:limit]
	}

	metrics := make([]CityMetric, 0, len(order))
	for _, city := range order {
		acc := accumulators[city]
		metrics = append(metrics, CityMetric{
			City:     city,
			Count:    acc.count,
			AvgCost:  acc.costTotal / float64(acc.count),
			AvgDelay: float64(acc.delayTotal) / float64(acc.count),
		})
	}
	return metrics
}
