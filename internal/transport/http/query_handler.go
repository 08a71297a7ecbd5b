package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bitewatch/internal/analytics"
	apierrors "bitewatch/internal/errors"
	api "bitewatch/pkg/contracts/api/v1"
	"bitewatch/pkg/contracts/domain"
)

// QueryHandler serves the filtered record and aggregation endpoints
type QueryHandler struct {
	service      QueryServiceInterface
	validate     StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service QueryServiceInterface, validate StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryHandler {
	return &QueryHandler{
		service:      service,
		validate:     validate,
		logger:       logger.With(slog.String("component", "query_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the query routes
func (h *QueryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/records", h.QueryRecords)
	r.Post("/aggregate", h.QueryAggregate)

	return r
}

// QueryRecords handles POST /api/query/records
func (h *QueryHandler) QueryRecords(w http.ResponseWriter, r *http.Request) {
	var req api.RecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	spec, err := req.Filter.ToSpec()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, apierrors.CodeValidationFailed, err.Error()))
		return
	}

	page, err := h.service.Records(r.Context(), spec, req.Limit, req.Offset)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// trace_id rides along from context via the logger's trace handler
	h.logger.DebugContext(r.Context(), "records query served",
		slog.Int("filtered", page.Filtered),
		slog.Int("returned", len(page.Records)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   page,
		"count":  len(page.Records),
	})
}

// QueryAggregate handles POST /api/query/aggregate
func (h *QueryHandler) QueryAggregate(w http.ResponseWriter, r *http.Request) {
	var req api.AggregateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	spec, err := req.Filter.ToSpec()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, apierrors.CodeValidationFailed, err.Error()))
		return
	}

	agg, err := toAggregateSpec(req)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, apierrors.CodeValidationFailed, err.Error()))
		return
	}

	result, err := h.service.Aggregate(r.Context(), spec, agg)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "aggregation served",
		slog.String("kind", string(agg.Kind)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// toAggregateSpec lowers the wire request into an engine spec, rejecting
// unknown kinds, unknown dimensions, and missing parameter blocks before
// the service layer sees them.
func toAggregateSpec(req api.AggregateRequest) (analytics.AggregateSpec, error) {
	kind := analytics.Kind(req.Kind)
	if !kind.IsValid() {
		return analytics.AggregateSpec{}, fmt.Errorf("unknown aggregation kind: %q", req.Kind)
	}

	spec := analytics.AggregateSpec{Kind: kind}

	switch kind {
	case analytics.KindTopN:
		if req.TopN == nil {
			return spec, fmt.Errorf("top_n parameters are required for kind %q", req.Kind)
		}
		dim, err := domain.ParseDimension(req.TopN.Dimension)
		if err != nil {
			return spec, err
		}
		spec.TopN = &analytics.TopNSpec{
			Dimension:      dim,
			N:              req.TopN.N,
			ExcludeUnknown: req.TopN.ExcludeUnknown,
			IncludeShare:   req.TopN.IncludeShare,
		}

	case analytics.KindBreakdown:
		if req.Breakdown == nil {
			return spec, fmt.Errorf("breakdown parameters are required for kind %q", req.Kind)
		}
		primary, err := domain.ParseDimension(req.Breakdown.Primary)
		if err != nil {
			return spec, err
		}
		secondary, err := domain.ParseDimension(req.Breakdown.Secondary)
		if err != nil {
			return spec, err
		}
		spec.Breakdown = &analytics.BreakdownSpec{
			Primary:        primary,
			Secondary:      secondary,
			TopPrimary:     req.Breakdown.TopPrimary,
			ExcludeUnknown: req.Breakdown.ExcludeUnknown,
		}

	case analytics.KindCityMetrics:
		if req.CityMetrics != nil {
			spec.CityMetrics = &analytics.CityMetricsSpec{N: req.CityMetrics.N}
		}
	}

	return spec, nil
}
