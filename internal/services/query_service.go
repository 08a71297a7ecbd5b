package services

import (
	"context"
	"log/slog"
	"time"

	"bitewatch/internal/analytics"
	"bitewatch/internal/infrastructure"
	api "bitewatch/pkg/contracts/api/v1"
	"bitewatch/pkg/contracts/domain"
)

const (
	// DefaultRecordLimit is the page size when the request names none;
	// MaxRecordLimit caps what it may name.
	DefaultRecordLimit = 100
	MaxRecordLimit     = 1000
)

// QueryService runs filter and aggregation queries against the current
// dataset. Each call reads the dataset pointer once and works on that
// snapshot, so a reload landing mid-query never mixes two datasets in one
// response.
type QueryService struct {
	datasets *DatasetService
	engine   *analytics.Engine
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewQueryService creates the query service backed by the dataset service
func NewQueryService(datasets *DatasetService, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		datasets: datasets,
		engine:   analytics.NewEngine(logger),
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "query_service")),
	}
}

// Records returns one page of the filtered view in dataset order. A
// non-positive limit falls back to DefaultRecordLimit; offsets past the end
// yield an empty page, not an error.
func (qs *QueryService) Records(ctx context.Context, spec domain.FilterSpec, limit, offset int) (*api.RecordsResponse, error) {
	start := time.Now()

	dataset, err := qs.datasets.Current(ctx)
	if err != nil {
		infrastructure.RecordQueryExecution(ctx, qs.metrics, "records", 0, time.Since(start), false)
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultRecordLimit
	}
	if limit > MaxRecordLimit {
		limit = MaxRecordLimit
	}
	if offset < 0 {
		offset = 0
	}

	view := qs.engine.Filter(dataset.Records, spec)
	page := pageOf(view, limit, offset)

	infrastructure.RecordQueryExecution(ctx, qs.metrics, "records", int64(len(view)), time.Since(start), true)

	return &api.RecordsResponse{
		Records:  page,
		Filtered: len(view),
		Total:    dataset.Len(),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// Aggregate filters the dataset and runs one aggregation over the view
func (qs *QueryService) Aggregate(ctx context.Context, spec domain.FilterSpec, agg analytics.AggregateSpec) (*analytics.Result, error) {
	start := time.Now()
	kind := string(agg.Kind)

	dataset, err := qs.datasets.Current(ctx)
	if err != nil {
		infrastructure.RecordQueryExecution(ctx, qs.metrics, kind, 0, time.Since(start), false)
		return nil, err
	}

	view := qs.engine.Filter(dataset.Records, spec)

	result, err := qs.engine.Aggregate(view, agg)
	if err != nil {
		infrastructure.RecordQueryExecution(ctx, qs.metrics, kind, int64(len(view)), time.Since(start), false)
		return nil, err
	}

	infrastructure.RecordQueryExecution(ctx, qs.metrics, kind, int64(len(view)), time.Since(start), true)
	return result, nil
}

// Options lists the distinct values each dimension takes, optionally
// restricted to an incident date range
func (qs *QueryService) Options(ctx context.Context, from, to *time.Time) (*api.OptionsResponse, error) {
	dataset, err := qs.datasets.Current(ctx)
	if err != nil {
		return nil, err
	}

	view := qs.engine.Filter(dataset.Records, domain.FilterSpec{From: from, To: to})

	dims := analytics.Options(view)
	options := make([]api.DimensionValues, 0, len(dims))
	for _, d := range dims {
		options = append(options, api.DimensionValues{
			Dimension: string(d.Dimension),
			Values:    d.Values,
		})
	}
	return &api.OptionsResponse{Options: options}, nil
}

// pageOf slices one page out of a view. The returned slice is never nil so
// an empty page serializes as an empty JSON array.
func pageOf(view []domain.Incident, limit, offset int) []domain.Incident {
	if offset >= len(view) {
		return []domain.Incident{}
	}
	end := offset + limit
	if end > len(view) {
		end = len(view)
	}
	return view[offset:end]
}
