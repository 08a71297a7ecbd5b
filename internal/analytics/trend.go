package analytics

import (
	"sort"

	"bitewatch/pkg/contracts/domain"
)

// MonthlyTrend counts incidents per year-month bucket of the incident date.
// Points come back in chronological order; months with no incidents inside
// the view's span are simply absent.
func MonthlyTrend(view []domain.Incident) []TrendPoint {
	counts := make(map[string]int)
	for i := range view {
		counts[view[i].MonthKey()]++
	}

	months := make([]string, 0, len(counts))
	for month := range counts {
		months = append(months, month)
	}
	// "YYYY-MM" keys sort chronologically as plain strings.
	sort.Strings(months)

	points := make([]TrendPoint, 0, len(months))
	for _, month := range months {
		points = append(points, TrendPoint{Month: month, Count: counts[month]})
	}
	return points
}
