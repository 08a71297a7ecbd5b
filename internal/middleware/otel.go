package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"bitewatch/internal/infrastructure"
)

// OTelMiddleware wraps requests in a server span and records the HTTP
// request metrics.
type OTelMiddleware struct {
	tracer          trace.Tracer
	meter           metric.Meter
	businessMetrics *infrastructure.BusinessMetrics
	logger          *slog.Logger
}

// NewOTelMiddleware creates the middleware and the metric instruments it
// records into.
func NewOTelMiddleware(providers *infrastructure.OTelProviders) (*OTelMiddleware, error) {
	businessMetrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return &OTelMiddleware{
		tracer:          providers.Tracer,
		meter:           providers.Meter,
		businessMetrics: businessMetrics,
		logger:          providers.Logger,
	}, nil
}

// Metrics exposes the business metrics bundle for services that record
// dataset and query measurements outside the HTTP path.
func (m *OTelMiddleware) Metrics() *infrastructure.BusinessMetrics {
	return m.businessMetrics
}

// Handler instruments a request: it continues any incoming trace context,
// opens a server span, counts the request, and emits one structured
// completion line correlated by trace ID.
func (m *OTelMiddleware) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := m.tracer.Start(ctx,
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(r)...),
		)
		defer span.End()

		// From here on logs correlate through the span's trace ID
		traceID := span.SpanContext().TraceID().String()
		ctx = infrastructure.WithTraceID(ctx, traceID)
		r = r.WithContext(ctx)

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		m.businessMetrics.HTTPActiveRequests.Add(ctx, 1)
		defer m.businessMetrics.HTTPActiveRequests.Add(ctx, -1)

		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start)

		metricAttrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routePattern(r)),
			attribute.Int("status_code", ww.statusCode),
		)
		m.businessMetrics.HTTPRequestsTotal.Add(ctx, 1, metricAttrs)
		m.businessMetrics.HTTPRequestDuration.Record(ctx, duration.Seconds(), metricAttrs)

		span.SetAttributes(
			semconv.HTTPResponseStatusCodeKey.Int(ww.statusCode),
			semconv.HTTPResponseBodySizeKey.Int64(ww.bytesWritten),
			attribute.Float64("http.request.duration", duration.Seconds()),
		)
		if ww.statusCode >= 400 {
			span.SetStatus(codes.Error, http.StatusText(ww.statusCode))
		}

		m.logger.InfoContext(ctx, "HTTP request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("route", routePattern(r)),
			slog.Int("status_code", ww.statusCode),
			slog.Duration("duration", duration),
			slog.String("user_agent", r.UserAgent()),
			slog.String("remote_addr", GetRealIP(r)),
			slog.Int64("bytes_written", ww.bytesWritten),
			slog.String("trace_id", traceID),
		)
	}
	return http.HandlerFunc(fn)
}

// requestAttributes builds the semantic convention attributes for an
// incoming request span.
func requestAttributes(r *http.Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(r.URL.Path),
		semconv.URLSchemeKey.String(r.URL.Scheme),
		semconv.ServerAddressKey.String(r.Host),
		semconv.UserAgentOriginalKey.String(r.UserAgent()),
		semconv.HTTPRequestBodySizeKey.Int64(r.ContentLength),
		semconv.ClientAddressKey.String(GetRealIP(r)),
	}
}

// responseWriter captures status and size for span and metric recording.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// routePattern prefers the chi route pattern over the raw path so metrics
// stay low cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

// WebSocketTraceMiddleware traces the upgrade handshake of hub connections.
// The /ws route skips the regular middleware chain, so it gets its own
// narrow instrumentation here.
func WebSocketTraceMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			tracer := otel.Tracer("bitewatch.websocket")
			ctx, span := tracer.Start(r.Context(), "websocket_upgrade",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String("/ws"),
					attribute.String("connection.type", "websocket"),
					attribute.String("origin", r.Header.Get("Origin")),
					attribute.String("sec_websocket_protocol", r.Header.Get("Sec-WebSocket-Protocol")),
				),
			)
			defer span.End()

			traceID := span.SpanContext().TraceID().String()
			ctx = infrastructure.WithTraceID(ctx, traceID)

			logger.InfoContext(ctx, "WebSocket upgrade attempt",
				slog.String("origin", r.Header.Get("Origin")),
				slog.String("trace_id", traceID),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// BusinessMetricsMiddleware stores the metrics bundle in the request context
// so deep call sites can record without threading the dependency through.
func BusinessMetricsMiddleware(businessMetrics *infrastructure.BusinessMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), metricsKey, businessMetrics)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// GetBusinessMetricsFromContext returns the metrics bundle stored by
// BusinessMetricsMiddleware, or nil outside an instrumented request.
func GetBusinessMetricsFromContext(ctx context.Context) *infrastructure.BusinessMetrics {
	if metrics, ok := ctx.Value(metricsKey).(*infrastructure.BusinessMetrics); ok {
		return metrics
	}
	return nil
}

// ReloadTraceHandler opens a span for an operator-triggered dataset reload.
func ReloadTraceHandler(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("bitewatch.dataset")
		ctx, span := tracer.Start(r.Context(), "dataset.reload.start",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("operation.type", "dataset_reload"),
				attribute.String("operation", "start"),
			),
		)
		defer span.End()

		// Reload counts and durations are recorded by the dataset service,
		// which also covers reloads triggered by the source watcher.
		handler(w, r.WithContext(ctx))
	}
}

// RecordSystemError counts an internal failure against the system error
// metric. A nil bundle outside instrumented requests makes this a no-op.
func RecordSystemError(ctx context.Context, errorType, component string) {
	metrics := GetBusinessMetricsFromContext(ctx)
	if metrics == nil {
		return
	}
	metrics.SystemErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("error_type", errorType),
		attribute.String("component", component),
	))
}
