package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "bitewatch-incident-analytics"
	ServiceVersion = "v0.3.0"
	MeterName      = "bitewatch"
)

// OTelConfig selects the exporters and sampling for this process.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
	PrometheusPort string
}

// OTelProviders bundles everything InitializeOTel set up, so Shutdown can
// tear it down again in one call.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns the development setup: every trace sampled,
// spans pretty-printed to stdout, metrics scraped from /metrics.
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
		PrometheusPort: "9090",
	}
}

// InitializeOTel wires tracing and metrics according to cfg and installs
// the global propagator. A nil cfg falls back to the development defaults.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()
	providers := &OTelProviders{Logger: logger}

	res, err := buildResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	if cfg.EnableTracing {
		if err := providers.setupTracing(ctx, cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := providers.setupMetrics(ctx, cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	// W3C trace context plus baggage, so traces started by callers continue
	// through this service
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "observability initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing", cfg.EnableTracing),
		slog.Bool("metrics", cfg.EnableMetrics))

	return providers, nil
}

// buildResource identifies this process in everything it exports.
func buildResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	), nil
}

func (p *OTelProviders) setupTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)

	p.TracerProvider = tp
	p.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	p.Logger.InfoContext(ctx, "tracing ready",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func (p *OTelProviders) setupMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(mp)

		p.MeterProvider = mp
		p.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		p.PrometheusHTTP = promhttp.Handler()

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	p.Logger.InfoContext(ctx, "metrics ready",
		slog.String("exporter", cfg.MetricExporter))
	return nil
}

// Shutdown flushes and stops both providers. Spans buffered in the batch
// exporter are lost if this is skipped.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// BusinessMetrics holds the instruments the service records against. One
// bundle is created at startup and threaded through the middleware and
// the dataset service.
type BusinessMetrics struct {
	// Request traffic
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Dataset lifecycle
	DatasetReloadsTotal metric.Int64Counter
	DatasetLoadDuration metric.Float64Histogram
	DatasetRowsKept     metric.Int64Counter
	DatasetRowsDropped  metric.Int64Counter

	// Query engine
	QueryExecutionsTotal metric.Int64Counter
	QueryDuration        metric.Float64Histogram

	// WebSocket hub
	WSActiveConnections metric.Int64UpDownCounter
	WSMessagesSent      metric.Int64Counter

	// Process health
	SystemErrors metric.Int64Counter
	SystemUptime metric.Float64UpDownCounter
}

// instrumentBuilder registers instruments and keeps the first error, so
// CreateBusinessMetrics reads as one literal instead of a wall of checks.
type instrumentBuilder struct {
	meter metric.Meter
	err   error
}

func (b *instrumentBuilder) counter(name, desc string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return c
}

func (b *instrumentBuilder) seconds(name, desc string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return h
}

func (b *instrumentBuilder) upDown(name, desc string) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return c
}

func (b *instrumentBuilder) floatUpDown(name, desc, unit string) metric.Float64UpDownCounter {
	c, err := b.meter.Float64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return c
}

func (b *instrumentBuilder) gauge(name, desc string) metric.Int64Gauge {
	g, err := b.meter.Int64Gauge(name, metric.WithDescription(desc))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return g
}

func (b *instrumentBuilder) gaugeBytes(name, desc string) metric.Int64Gauge {
	g, err := b.meter.Int64Gauge(name, metric.WithDescription(desc), metric.WithUnit("By"))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return g
}

func (b *instrumentBuilder) gaugeSeconds(name, desc string) metric.Float64Gauge {
	g, err := b.meter.Float64Gauge(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return g
}

// CreateBusinessMetrics registers every instrument the service records.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	b := &instrumentBuilder{meter: meter}

	m := &BusinessMetrics{
		HTTPRequestsTotal:   b.counter("http_requests_total", "Total number of HTTP requests"),
		HTTPRequestDuration: b.seconds("http_request_duration_seconds", "HTTP request duration in seconds"),
		HTTPActiveRequests:  b.upDown("http_active_requests", "Number of active HTTP requests"),

		DatasetReloadsTotal: b.counter("dataset_reloads_total", "Total number of dataset reloads"),
		DatasetLoadDuration: b.seconds("dataset_load_duration_seconds", "Dataset cleaning pipeline duration in seconds"),
		DatasetRowsKept:     b.counter("dataset_rows_kept_total", "Total source rows retained by the cleaning pipeline"),
		DatasetRowsDropped:  b.counter("dataset_rows_dropped_total", "Total source rows dropped for unparseable incident dates"),

		QueryExecutionsTotal: b.counter("query_executions_total", "Total number of filter and aggregation queries"),
		QueryDuration:        b.seconds("query_duration_seconds", "Query execution duration in seconds"),

		WSActiveConnections: b.upDown("websocket_active_connections", "Number of active WebSocket connections"),
		WSMessagesSent:      b.counter("websocket_messages_sent_total", "Total number of WebSocket messages sent"),

		SystemErrors: b.counter("system_errors_total", "Total number of system errors"),
		SystemUptime: b.floatUpDown("system_uptime_seconds", "System uptime in seconds", "s"),
	}

	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordError marks the active span failed. The error handler calls it so
// failed requests show up as failed traces.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func statusAttribute(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordDatasetReload records one pass of the cleaning pipeline. Row counts
// only accumulate on success, a failed reload kept nothing.
func RecordDatasetReload(ctx context.Context, metrics *BusinessMetrics, source string, rowsKept, rowsDropped int64, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("source", source),
		statusAttribute(success),
	)
	metrics.DatasetReloadsTotal.Add(ctx, 1, attrs)
	metrics.DatasetLoadDuration.Record(ctx, duration.Seconds(), attrs)

	if success {
		sourceAttr := metric.WithAttributes(attribute.String("source", source))
		metrics.DatasetRowsKept.Add(ctx, rowsKept, sourceAttr)
		metrics.DatasetRowsDropped.Add(ctx, rowsDropped, sourceAttr)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("dataset.reload_recorded", trace.WithAttributes(
			attribute.String("source", source),
			attribute.Int64("rows_kept", rowsKept),
			attribute.Int64("rows_dropped", rowsDropped),
			attribute.Float64("duration_seconds", duration.Seconds()),
			attribute.Bool("success", success),
		))
	}
}

// RecordQueryExecution records one filter or aggregation run.
func RecordQueryExecution(ctx context.Context, metrics *BusinessMetrics, kind string, matched int64, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		statusAttribute(success),
	)
	metrics.QueryExecutionsTotal.Add(ctx, 1, attrs)
	metrics.QueryDuration.Record(ctx, duration.Seconds(), attrs)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("query.kind", kind),
			attribute.Int64("query.matched", matched),
		)
	}
}
