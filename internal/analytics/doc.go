// Package analytics implements the filter and aggregation engines that the
// query surface exposes over a clean incident dataset.
//
// # Architecture
//
// An Engine binds the two concerns together behind one component:
//
//  1. Filter: compiles a declarative FilterSpec (inclusive calendar-date
//     range plus tagged per-dimension selections) and scans a dataset into
//     a request-scoped view.
//  2. Aggregate: dispatches an enumerated aggregation kind over a view to
//     pure computation functions.
//
// Every computation is deterministic and side-effect free; views have no
// identity of their own and are recomputed per request.
//
// # Usage
//
//	engine := analytics.NewEngine(logger)
//	view := engine.Filter(dataset.Records, spec)
//	result, err := engine.Aggregate(view, analytics.AggregateSpec{
//	    Kind: analytics.KindMonthlyTrend,
//	})
//
// # Semantics
//
// Filtering is AND-composed, commutative and idempotent: a select-all
// selection on a dimension is exactly equivalent to leaving the dimension
// unconstrained, and applying the same spec twice returns the same view as
// applying it once. Aggregations define their own ordering guarantees; see
// the individual functions.
package analytics
