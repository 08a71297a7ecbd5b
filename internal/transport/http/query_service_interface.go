package http

import (
	"context"
	"time"

	"bitewatch/internal/analytics"
	api "bitewatch/pkg/contracts/api/v1"
	"bitewatch/pkg/contracts/domain"
)

// QueryServiceInterface defines the query operations the handlers consume.
// Implemented by services.QueryService.
type QueryServiceInterface interface {
	// Records returns one page of the filtered view.
	Records(ctx context.Context, spec domain.FilterSpec, limit, offset int) (*api.RecordsResponse, error)

	// Aggregate runs one aggregation over the filtered view.
	Aggregate(ctx context.Context, spec domain.FilterSpec, agg analytics.AggregateSpec) (*analytics.Result, error)

	// Options lists each dimension's distinct values within the date range.
	Options(ctx context.Context, from, to *time.Time) (*api.OptionsResponse, error)
}
