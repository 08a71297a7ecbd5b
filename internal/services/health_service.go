package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"bitewatch/internal/config"
	"bitewatch/internal/infrastructure"
	"bitewatch/pkg/contracts"
)

// HealthService answers the liveness and readiness probes. Liveness only
// proves the process is up; readiness additionally requires a loaded
// dataset and accessible data directories, so load balancers hold traffic
// until the first pipeline run has finished.
type HealthService struct {
	version   string
	paths     *config.Paths
	datasets  *DatasetService
	hub       WebSocketHub
	collector *infrastructure.SystemMetricsCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the probe response body
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth is one dependency's readiness verdict
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version string, paths *config.Paths, datasets *DatasetService, hub WebSocketHub, collector *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("data_dir", paths.DataDir))

	return &HealthService{
		version:   version,
		paths:     paths,
		datasets:  datasets,
		hub:       hub,
		collector: collector,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status. The process answering at all
// is the health signal; dataset state belongs to readiness.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.Debug("HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status across all dependencies
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]ServiceHealth),
	}

	status.Services["dataset"] = hs.checkDatasetHealth(ctx)
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["data"] = hs.checkDataHealth()

	for _, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// VersionDetails is the version endpoint response body
type VersionDetails struct {
	contracts.VersionInfo
	Uptime      float64 `json:"uptime_seconds"`
	StartTime   string  `json:"start_time"`
	CurrentTime string  `json:"current_time"`
}

// Version returns version and build environment information. The injected
// version wins over the compiled-in one.
func (hs *HealthService) Version() VersionDetails {
	info := contracts.GetVersionInfo()
	info.Version = hs.version
	return VersionDetails{
		VersionInfo: info,
		Uptime:      time.Since(hs.startTime).Seconds(),
		StartTime:   hs.startTime.Format(time.RFC3339),
		CurrentTime: time.Now().Format(time.RFC3339),
	}
}

// RuntimeStats returns a fresh system statistics snapshot, or nil when no
// collector was configured
func (hs *HealthService) RuntimeStats(ctx context.Context) *infrastructure.SystemStats {
	if hs.collector == nil {
		return nil
	}
	return hs.collector.GetCurrentStats(ctx)
}

// checkDatasetHealth reports whether a dataset is loaded and queryable
func (hs *HealthService) checkDatasetHealth(ctx context.Context) ServiceHealth {
	dataset, err := hs.datasets.Current(ctx)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "dataset not loaded",
		}
	}

	return ServiceHealth{
		Status: "ready",
		Message: fmt.Sprintf("%d records loaded from %s",
			dataset.Len(), dataset.Source.Path),
	}
}

// checkWebSocketHealth reports hub availability
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "websocket hub not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
	}
}

// checkDataHealth verifies the data directories exist and are writable
func (hs *HealthService) checkDataHealth() ServiceHealth {
	if _, err := os.Stat(hs.paths.DataDir); os.IsNotExist(err) {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("data directory not found: %s", hs.paths.DataDir),
		}
	}

	if err := os.MkdirAll(hs.paths.ReportsDir, 0o755); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("cannot write to reports directory: %v", err),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "data directories accessible",
	}
}
