package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "bitewatch/internal/errors"
	api "bitewatch/pkg/contracts/api/v1"
)

// DatasetHandler serves the dataset lifecycle endpoints: load metadata,
// per-dimension filter options, and reload. Routes are registered by the
// application so the reload endpoint can sit behind API key auth when keys
// are configured.
type DatasetHandler struct {
	service      DatasetServiceInterface
	options      OptionsProviderInterface
	params       DateParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, options OptionsProviderInterface, params DateParamValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		options:      options,
		params:       params,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// GetDataset handles GET /api/dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.Current(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "dataset metadata served",
		slog.Int("records", dataset.Len()),
		slog.String("fingerprint", dataset.Source.Fingerprint))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   api.NewDatasetResponse(dataset),
	})
}

// GetOptions handles GET /api/dataset/options with optional from/to
// date-range query parameters
func (h *DatasetHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	from, ok := h.params.ValidateDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := h.params.ValidateDate(w, r, "to")
	if !ok {
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("to",
			"date range end must not precede start"))
		return
	}

	response, err := h.options.Options(r.Context(), from, to)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "filter options served",
		slog.Int("dimensions", len(response.Options)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   response,
		"count":  len(response.Options),
	})
}

// Reload handles POST /api/dataset/reload. The body is optional; an empty
// body requests a normal reload, {"force": true} skips the stat fast path
// and rehashes the source.
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	var req api.ReloadRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}

	h.logger.InfoContext(r.Context(), "dataset reload requested",
		slog.Bool("force", req.Force))

	outcome, err := h.service.Reload(r.Context(), req.Force)
	if err != nil {
		switch {
		case errors.Is(err, apierrors.ErrNoSourceDiscovered):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				apierrors.CodeSourceNotFound,
				"no bite report source found under the data directory",
			))
		case errors.Is(err, apierrors.ErrSourceMissing):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				apierrors.CodeSourceNotFound,
				"configured bite report source does not exist",
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	h.logger.InfoContext(r.Context(), "dataset reload finished",
		slog.Bool("changed", outcome.Changed),
		slog.Int("records", outcome.Dataset.Len()))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": api.ReloadResponse{
			Changed: outcome.Changed,
			Dataset: api.NewDatasetResponse(outcome.Dataset),
		},
	})
}
