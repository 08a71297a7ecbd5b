package analytics

import (
	"fmt"
	"log/slog"
	"time"

	"bitewatch/pkg/contracts/domain"
)

// Engine evaluates filter specifications and dispatches aggregations. It is
// stateless apart from its logger and safe for concurrent use; datasets are
// immutable, so concurrent Filter calls over the same records never race.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an analytics engine
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger.With(slog.String("component", "analytics")),
	}
}

// compiledFilter is a FilterSpec lowered into cheap per-record checks:
// date bounds at calendar granularity and one value set per constrained
// dimension. A nil set never occurs; select-all selections are dropped at
// compile time because they constrain nothing.
type compiledFilter struct {
	from *time.Time
	to   *time.Time
	dims []compiledSelection
}

type compiledSelection struct {
	dim    domain.Dimension
	values map[string]struct{}
}

func compileSpec(spec domain.FilterSpec) compiledFilter {
	cf := compiledFilter{from: spec.From, to: spec.To}
	for dim, sel := range spec.Dimensions {
		if sel.All {
			continue
		}
		values := make(map[string]struct{}, len(sel.Values))
		for _, v := range sel.Values {
			values[v] = struct{}{}
		}
		cf.dims = append(cf.dims, compiledSelection{dim: dim, values: values})
	}
	return cf
}

func (cf compiledFilter) matches(rec *domain.Incident) bool {
	if cf.from != nil || cf.to != nil {
		cal := rec.CalendarDate()
		if cf.from != nil && cal.Before(*cf.from) {
			return false
		}
		if cf.to != nil && cal.After(*cf.to) {
			return false
		}
	}
	for _, sel := range cf.dims {
		if _, ok := sel.values[sel.dim.Value(rec)]; !ok {
			return false
		}
	}
	return true
}

// Filter scans records into the view selected by spec. Constraints compose
// by AND, and map iteration order over the spec's dimensions cannot affect
// the result, so filtering stays commutative and idempotent. The returned
// view preserves input order and may be empty.
func (e *Engine) Filter(records []domain.Incident, spec domain.FilterSpec) []domain.Incident {
	cf := compileSpec(spec)
	view := make([]domain.Incident, 0, len(records))
	for i := range records {
		if cf.matches(&records[i]) {
			view = append(view, records[i])
		}
	}
	return view
}

// Aggregate dispatches one aggregation over a view. Kinds that take
// parameters reject a missing params block; nothing here mutates the view.
func (e *Engine) Aggregate(view []domain.Incident, spec AggregateSpec) (*Result, error) {
	result := &Result{Kind: spec.Kind}

	switch spec.Kind {
	case KindMonthlyTrend:
		result.MonthlyTrend = MonthlyTrend(view)
	case KindCrossTab:
		result.CrossTab = CrossTab(view)
	case KindTopN:
		if spec.TopN == nil {
			return nil, fmt.Errorf("top_n aggregation requires parameters")
		}
		if !spec.TopN.Dimension.IsValid() {
			return nil, fmt.Errorf("unknown dimension: %q", spec.TopN.Dimension)
		}
		result.TopN = TopN(view, *spec.TopN)
	case KindKPI:
		kpi := ComputeKPIs(view)
		result.KPI = &kpi
	case KindBreakdown:
		if spec.Breakdown == nil {
			return nil, fmt.Errorf("breakdown aggregation requires parameters")
		}
		if !spec.Breakdown.Primary.IsValid() {
			return nil, fmt.Errorf("unknown dimension: %q", spec.Breakdown.Primary)
		}
		if !spec.Breakdown.Secondary.IsValid() {
			return nil, fmt.Errorf("unknown dimension: %q", spec.Breakdown.Secondary)
		}
		result.Breakdown = Breakdown(view, *spec.Breakdown)
	case KindCityMetrics:
		var params CityMetricsSpec
		if spec.CityMetrics != nil {
			params = *spec.CityMetrics
		}
		result.CityMetrics = CityMetrics(view, params)
	default:
		return nil, fmt.Errorf("unknown aggregation kind: %q", spec.Kind)
	}

	return result, nil
}
