package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/infrastructure"
)

// RequestID assigns every request an ID and echoes it back in the
// X-Request-ID response header. A client-supplied ID is kept so retries can
// be correlated across systems. The ID doubles as the trace ID for logging
// until an OpenTelemetry span takes over. Must run first in the chain.
func RequestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		ctx = infrastructure.WithTraceID(ctx, id)

		// An active span carries the authoritative trace ID
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			ctx = infrastructure.WithTraceID(ctx, span.SpanContext().TraceID().String())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// StructuredLogger logs one line at the start and one at the end of each
// request. Both carry the trace ID so log aggregation can stitch a request
// back together. Runs after RequestID and RealIP.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqLogger := logger
			if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
				reqLogger = logger.With(slog.String("trace_id", traceID))
			}

			reqLogger.InfoContext(ctx, "request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			reqLogger.InfoContext(ctx, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		}
		return http.HandlerFunc(fn)
	}
}

// Recoverer turns handler panics into a logged 500 problem response.
// http.ErrAbortHandler is re-raised untouched, the server uses it to abort
// a connection on purpose.
func Recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				RecordSystemError(ctx, "panic", "http")

				problem := apierrors.NewProblemDetails(
					http.StatusInternalServerError,
					apierrors.TypeInternal,
					"Internal Server Error",
					"The server hit an unexpected condition while handling the request.",
					r.URL.Path,
				).WithExtension("trace_id", infrastructure.GetTraceID(ctx))
				apierrors.WriteProblem(w, problem)
			}()

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// RateLimiter rejects requests over a global token bucket. One bucket covers
// the whole API, the goal is protecting the process, not fair per-client
// accounting.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimiter allows rps requests per second with the given burst.
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Handler is the middleware entry point.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if rl.limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		rl.logger.WarnContext(ctx, "rate limit exceeded",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		)

		w.Header().Set("Retry-After", "60")
		problem := apierrors.NewProblemDetails(
			http.StatusTooManyRequests,
			apierrors.TypeRateLimit,
			"Too Many Requests",
			"Request rate limit exceeded. Retry after 60 seconds.",
			r.URL.Path,
		).WithExtension("trace_id", infrastructure.GetTraceID(ctx))
		apierrors.WriteProblem(w, problem)
	}
	return http.HandlerFunc(fn)
}

// Timeout runs the handler with a deadline and answers 504 when it expires.
// Exactly one side writes the response: once the deadline response is
// claimed, late handler writes are swallowed.
func Timeout(timeout time.Duration, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			panicChan := make(chan any, 1)
			go func() {
				defer close(done)
				defer func() {
					if rvr := recover(); rvr != nil {
						panicChan <- rvr
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				// Re-raise a handler panic on the request goroutine where
				// the Recoverer can see it
				select {
				case rvr := <-panicChan:
					panic(rvr)
				default:
				}
			case <-ctx.Done():
				if !tw.claim() {
					// The handler already started the response
					return
				}
				logger.ErrorContext(r.Context(), "request timed out",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Duration("timeout", timeout),
				)
				problem := apierrors.NewProblemDetails(
					http.StatusGatewayTimeout,
					apierrors.TypeTimeout,
					"Request Timeout",
					"The request took too long to process and was cancelled.",
					r.URL.Path,
				).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))
				apierrors.WriteProblem(w, problem)
			}
		}
		return http.HandlerFunc(fn)
	}
}

// timeoutWriter hands the response to either the handler or the timeout
// branch, whichever gets there first.
type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	wrote    bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return
	}
	tw.wrote = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.wrote = true
	return tw.ResponseWriter.Write(b)
}

// claim reserves the response for the timeout branch. It fails when the
// handler has written anything already.
func (tw *timeoutWriter) claim() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wrote {
		return false
	}
	tw.timedOut = true
	return true
}

// CORSConfig describes the cross-origin policy for the dashboard.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
	Logger           *slog.Logger
}

func (c CORSConfig) withDefaults() CORSConfig {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 300
	}
	return c
}

// originAllowed reports whether the Origin header matches the allowlist.
// An empty allowlist admits every origin, the config validator keeps a
// production deployment from ending up there.
func (c CORSConfig) originAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and stamps the access-control headers on
// everything else.
func CORS(cfg CORSConfig) func(next http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := cfg.originAllowed(origin)

			if origin != "" && allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			if exposed != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposed)
			}
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				if cfg.Logger != nil {
					cfg.Logger.DebugContext(r.Context(), "CORS preflight",
						slog.String("origin", origin),
						slog.Bool("allowed", allowed),
					)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Compress is chi's gzip middleware at the given level.
func Compress(level int) func(next http.Handler) http.Handler {
	return chimw.Compress(level)
}

// RealIP rewrites RemoteAddr from proxy headers using chi's implementation.
func RealIP(next http.Handler) http.Handler {
	return chimw.RealIP(next)
}
