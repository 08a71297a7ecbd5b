package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"bitewatch/internal/config"
	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/infrastructure"
	customMiddleware "bitewatch/internal/middleware"
	"bitewatch/internal/services"
	handlers "bitewatch/internal/transport/http"
	ws "bitewatch/internal/websocket"
	"bitewatch/pkg/contracts"
	"bitewatch/pkg/contracts/events"
)

const (
	AppName = "BiteWatch - Dog Bite Incident Analytics"

	// statusInterval paces the periodic system status frames pushed to
	// websocket clients.
	statusInterval = 30 * time.Second
)

// Application owns every long lived piece of the web process: config,
// services, transport, websocket hub and the observability stack.
type Application struct {
	Config         *config.Config
	Paths          *config.Paths
	Router         *chi.Mux
	Server         *http.Server
	WebSocketHub   *ws.Hub
	DatasetService *services.DatasetService
	QueryService   *services.QueryService
	HealthService  *services.HealthService
	SourceWatcher  *services.SourceWatcher
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.BusinessMetrics
	Collector      *infrastructure.SystemMetricsCollector

	statusDone chan struct{}
	stopOnce   sync.Once
}

// NewApplication loads configuration and builds a fully wired, not yet
// started Application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Resolve runtime paths before the logger so the log file lands in the
	// configured logs directory
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	paths.ApplyDataConfig(cfg.Data)
	cfg.Logging.FilePath = cfg.ResolveLogPath(paths)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application configured",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		statusDone:    make(chan struct{}),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices constructs the service layer in dependency order.
func (a *Application) initializeServices() error {
	// WebSocket hub first: the dataset service broadcasts through it
	hub := ws.NewHub(a.Config.WebSocket, a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	collector, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, statusInterval)
	if err != nil {
		return fmt.Errorf("failed to create system metrics collector: %w", err)
	}
	a.Collector = collector

	a.DatasetService = services.NewDatasetService(a.Config, a.Paths, hub, metrics, a.Logger)
	a.QueryService = services.NewQueryService(a.DatasetService, metrics, a.Logger)
	a.HealthService = services.NewHealthService(contracts.Version, a.Paths, a.DatasetService, hub, collector, a.Logger)

	if a.Config.Watcher.Enabled {
		a.SourceWatcher = services.NewSourceWatcher(a.Config.Watcher, a.DatasetService, a.Logger)
	}

	return nil
}

// setupRouter assembles the middleware chain and mounts every route.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that won't interfere with the websocket upgrade.
	// Safe because neither wraps the ResponseWriter.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Unmatched routes and methods answer in the same problem-details
	// shape as the API errors.
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// WebSocket route with minimal middleware and tracing. Must be
	// registered before the full middleware group.
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	// Everything else gets the full middleware chain
	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("OpenTelemetry middleware disabled", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.Compress(5))

		secureHeaders := customMiddleware.DefaultSecureHeaders()
		secureHeaders.DevMode = a.isDevelopmentMode()
		r.Use(secureHeaders.Handler)

		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	// Prometheus exposition outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes mounts the /api surface.
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)
		queryParams := customMiddleware.NewQueryParamValidator(a.Logger, errorHandler)

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.QueryService, queryParams, a.Logger, errorHandler)
		r.Route("/dataset", func(r chi.Router) {
			r.Get("/", datasetHandler.GetDataset)
			r.Get("/options", datasetHandler.GetOptions)

			// Reload mutates shared state; it sits behind API key auth
			// whenever keys are configured and is always audit logged.
			// Read endpoints stay open.
			r.Group(func(r chi.Router) {
				if len(a.Config.Security.APIKeys) > 0 {
					r.Use(customMiddleware.APIKeyAuth(a.Logger, a.Config.Security.APIKeys))
				}
				r.Use(customMiddleware.AuditLog(a.Logger))
				r.Post("/reload", customMiddleware.ReloadTraceHandler(datasetHandler.Reload))
			})
		})

		queryHandler := handlers.NewQueryHandler(a.QueryService, validation, a.Logger, errorHandler)
		r.With(
			customMiddleware.ContentTypeValidator("application/json"),
			validation.ValidateRequest,
		).Mount("/query", queryHandler.Routes())
	})
}

// getCORSConfig picks the allowed origins for the current environment.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cors := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-API-Key",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	if a.isDevelopmentMode() {
		cors.AllowedOrigins = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		}
		a.Logger.Info("CORS allowing development origins",
			slog.Any("allowed_origins", cors.AllowedOrigins))
	} else {
		cors.AllowedOrigins = []string{
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		}
		if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
			cors.AllowedOrigins = append(cors.AllowedOrigins, a.Config.Security.AllowedOrigins...)
		}
		a.Logger.Info("CORS restricted to configured origins",
			slog.Any("allowed_origins", cors.AllowedOrigins))
	}

	return cors
}

// isDevelopmentMode reports whether relaxed development settings apply.
func (a *Application) isDevelopmentMode() bool {
	if a.Config.Logging.Development {
		return true
	}
	if env := os.Getenv("GO_ENV"); env == "development" {
		return true
	}
	return false
}

// createServer wraps the router in an http.Server with the configured
// timeouts.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start brings up the collector, the first dataset load, the source
// watcher and the HTTP listener. A fatal listener error cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	// Start the metrics collector before the first load so the reload
	// shows up in the gauges. Start blocks, so it gets its own goroutine.
	go a.Collector.Start(ctx)

	// First dataset load. A missing or unusable source is not fatal:
	// readiness gates traffic and the watcher keeps retrying.
	if _, err := a.DatasetService.Load(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Initial dataset load failed",
			slog.String("error", err.Error()))
	}

	if a.SourceWatcher != nil {
		if err := a.SourceWatcher.Start(); err != nil {
			return fmt.Errorf("failed to start source watcher: %w", err)
		}
	}

	go a.broadcastSystemStatus()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "HTTP listener failed", slog.String("error", err.Error()))
			// Let Run observe the failure rather than exiting here
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup checks flagged warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop drains the server and shuts the background workers down in order.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Stopping")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.SourceWatcher != nil {
		a.SourceWatcher.Stop()
	}

	// Hub and watcher stops are idempotent; the status broadcaster and
	// collector are not, so they are guarded.
	a.stopOnce.Do(func() {
		close(a.statusDone)
		a.Collector.Stop()
	})
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Shutdown complete")

	// Last so the shutdown messages above still reach the file
	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}

// Run blocks until an interrupt or a fatal server error, then stops
// the application cleanly.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	// Wait for interrupt or fatal server error
	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Interrupt received")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Shutting down after server error")
	}

	return a.Stop(context.Background())
}

// broadcastSystemStatus pushes a periodic status frame so dashboards can
// show dataset age and connection counts without polling.
func (a *Application) broadcastSystemStatus() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.statusDone:
			return
		case <-ticker.C:
			status := "healthy"
			age := ""
			if dataset, err := a.DatasetService.Current(context.Background()); err != nil {
				status = "degraded"
			} else {
				age = time.Since(dataset.LoadedAt).Round(time.Second).String()
			}

			a.WebSocketHub.Broadcast(events.NewMessage(events.MessageTypeSystemStatus, events.SystemStatus{
				Status:      status,
				DatasetAge:  age,
				Connections: a.WebSocketHub.ClientCount(),
				Version:     contracts.Version,
			}))
		}
	}
}

// handleWebSocket upgrades the connection and hands it to the hub
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade requested",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Same-origin and non-browser clients send no Origin header
			if origin == "" {
				return true
			}

			if a.isDevelopmentMode() {
				return true
			}

			for _, allowed := range a.getCORSConfig().AllowedOrigins {
				if origin == allowed {
					return true
				}
			}

			a.Logger.WarnContext(ctx, "WebSocket origin rejected",
				slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade refused",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))

			// A custom Error func replaces the upgrader's default response,
			// so the refusal has to be written here
			problem := apierrors.NewProblemDetails(
				status,
				apierrors.TypeWebSocketUpgrade,
				"WebSocket Upgrade Failed",
				reason.Error(),
				r.URL.Path,
			).WithExtension("trace_id", reqID)
			apierrors.WriteProblem(w, problem)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The Error callback above already answered the request
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	ws.ServeWS(a.WebSocketHub, conn, reqID, a.Logger)

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))
}

// performStartupHealthCheck verifies critical paths and the source file
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	// Probe each directory with a throwaway write
	directories := map[string]string{
		"data":    a.Paths.DataDir,
		"reports": a.Paths.ReportsDir,
		"cache":   a.Paths.CacheDir,
		"logs":    a.Paths.LogsDir,
	}

	for name, dir := range directories {
		probe := filepath.Join(dir, ".writable")
		if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(probe)
		}
	}

	// A configured source that does not exist is worth flagging early,
	// even though the watcher will keep looking for it.
	if source := a.Config.ResolveSourcePath(a.Paths); source != "" && !config.FileExists(source) {
		warnings = append(warnings, fmt.Sprintf("configured source not found: %s", source))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup checks passed")
	return nil
}
