package analytics

import (
	"bitewatch/pkg/contracts/domain"
)

// Kind enumerates the supported aggregations. Dispatch over kinds is an
// exhaustive switch; an unlisted kind is a request error, never a silent
// no-op.
type Kind string

const (
	KindMonthlyTrend Kind = "monthly_trend"
	KindCrossTab     Kind = "cross_tab"
	KindTopN         Kind = "top_n"
	KindKPI          Kind = "kpi"
	KindBreakdown    Kind = "breakdown"
	KindCityMetrics  Kind = "city_metrics"
)

// IsValid reports whether k names a known aggregation
func (k Kind) IsValid() bool {
	switch k {
	case KindMonthlyTrend, KindCrossTab, KindTopN, KindKPI, KindBreakdown, KindCityMetrics:
		return true
	}
	return false
}

// TopNSpec configures a top-N ranking over one dimension. ExcludeUnknown
// drops the UNKNOWN sentinel before counting; IncludeShare adds each
// value's proportion of the counted subset.
type TopNSpec struct {
	Dimension      domain.Dimension
	N              int
	ExcludeUnknown bool
	IncludeShare   bool
}

// BreakdownSpec configures a two-dimension grouped count limited to the
// TopPrimary highest-counted primary values. TopPrimary <= 0 keeps every
// primary value.
type BreakdownSpec struct {
	Primary        domain.Dimension
	Secondary      domain.Dimension
	TopPrimary     int
	ExcludeUnknown bool
}

// CityMetricsSpec configures the per-city metrics table. N <= 0 falls back
// to the default table size.
type CityMetricsSpec struct {
	N int
}

// AggregateSpec selects one aggregation and carries its parameters. Only
// the params block matching Kind is consulted.
type AggregateSpec struct {
	Kind        Kind
	TopN        *TopNSpec
	Breakdown   *BreakdownSpec
	CityMetrics *CityMetricsSpec
}

// TrendPoint is one month's incident count. Month is "YYYY-MM", so sorting
// points lexicographically by month sorts them chronologically.
type TrendPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// CrossTabCell is one cell of the dense weekday-by-daypart grid
type CrossTabCell struct {
	DayOfWeek domain.DayOfWeek `json:"day_of_week"`
	TimeOfDay domain.TimeOfDay `json:"time_of_day"`
	Count     int              `json:"count"`
}

// RankedValue is one entry of a top-N ranking. Share is populated only
// when the ranking was asked for proportions.
type RankedValue struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share,omitempty"`
}

// KPIValue is one scalar summary. Available is false when the statistic is
// undefined for the view (a mean over zero records); Formatted then carries
// the not-available sentinel instead of a number.
type KPIValue struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
	Formatted string  `json:"formatted"`
}

// KPISet bundles the four headline indicators
type KPISet struct {
	TotalIncidents KPIValue `json:"total_incidents"`
	AvgVictimAge   KPIValue `json:"avg_victim_age"`
	TotalCost      KPIValue `json:"total_cost"`
	AvgReportDelay KPIValue `json:"avg_report_delay"`
}

// BreakdownEntry is one (primary, secondary) pair count
type BreakdownEntry struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Count     int    `json:"count"`
}

// CityMetric is one city's row in the ranking table
type CityMetric struct {
	City     string  `json:"city"`
	Count    int     `json:"count"`
	AvgCost  float64 `json:"avg_cost"`
	AvgDelay float64 `json:"avg_delay"`
}

// DimensionOptions lists the distinct values one dimension takes, sorted
// ascending
type DimensionOptions struct {
	Dimension domain.Dimension `json:"dimension"`
	Values    []string         `json:"values"`
}

// Result is the tagged union of aggregation outputs; exactly the field
// matching Kind is populated.
type Result struct {
	Kind         Kind             `json:"kind"`
	MonthlyTrend []TrendPoint     `json:"monthly_trend,omitempty"`
	CrossTab     []CrossTabCell   `json:"cross_tab,omitempty"`
	TopN         []RankedValue    `json:"top_n,omitempty"`
	KPI          *KPISet          `json:"kpi,omitempty"`
	Breakdown    []BreakdownEntry `json:"breakdown,omitempty"`
	CityMetrics  []CityMetric     `json:"city_metrics,omitempty"`
}
