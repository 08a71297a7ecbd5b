package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bitewatch/internal/services"
)

// HealthHandler exposes the liveness, readiness and runtime stat probes.
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates the handler mounted at /api/health.
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Routes assembles the probe subrouter.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.HealthCheck)
	r.Get("/ready", h.ReadinessCheck)
	r.Get("/live", h.LivenessCheck)
	r.Get("/stats", h.RuntimeStats)

	return r
}

// HealthCheck reports overall service health with per-component detail.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.HealthCheck(r.Context()))
}

// ReadinessCheck handles GET /api/health/ready. Not-ready responses carry
// 503 so load balancers hold traffic until the dataset is loaded.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.ReadinessCheck(r.Context())
	if status.Status != "ready" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// LivenessCheck answers the orchestrator's is-the-process-alive probe.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.LivenessCheck(r.Context()))
}

// Version reports the build identity. Mounted at /api/version rather than
// under the probe subrouter.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}

// RuntimeStats returns a Go runtime snapshot for debugging memory drift.
func (h *HealthHandler) RuntimeStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.RuntimeStats(r.Context())
	if stats == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{
			"status": "unavailable",
			"reason": "system metrics collector not running",
		})
		return
	}
	render.JSON(w, r, stats)
}
