package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/infrastructure"
)

// APIKeyAuth guards mutating endpoints such as dataset reload. Keys come
// from configuration as key to client name pairs. An empty key set disables
// the guard entirely, which is the expected state for a local deployment.
func APIKeyAuth(logger *slog.Logger, validKeys map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if len(validKeys) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := r.Header.Get("X-API-Key")
			if key == "" {
				// Query fallback for clients that cannot set headers
				key = r.URL.Query().Get("api_key")
			}

			client, ok := validKeys[key]
			if key == "" || !ok {
				reason := "invalid API key"
				if key == "" {
					reason = "missing API key"
				}
				logger.WarnContext(ctx, reason,
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", GetRealIP(r)),
				)
				rejectUnauthorized(w, r, reason)
				return
			}

			ctx = context.WithValue(ctx, clientNameKey, client)
			logger.DebugContext(ctx, "API key accepted",
				slog.String("client", client),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

func rejectUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := apierrors.NewProblemDetails(
		http.StatusUnauthorized,
		apierrors.TypeUnauthorized,
		"Unauthorized",
		detail,
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))
	apierrors.WriteProblem(w, problem)
}

// SecureHeaders stamps browser hardening headers on every response.
// Zero-valued fields fall back to built-in defaults, DevMode relaxes the
// content security policy so local dashboards with hot reload keep working.
type SecureHeaders struct {
	// HSTS settings, applied only on TLS connections
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	// ContentSecurityPolicy overrides the built-in policy when set
	ContentSecurityPolicy string

	XFrameOptions       string
	XContentTypeOptions string
	XSSProtection       string
	ReferrerPolicy      string
	PermissionsPolicy   string

	DevMode bool
}

// DefaultSecureHeaders returns the production policy set.
func DefaultSecureHeaders() *SecureHeaders {
	return &SecureHeaders{
		HSTSMaxAge:            63072000, // 2 years
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		XSSProtection:         "1; mode=block",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// Handler builds the middleware. Header values are computed once here, only
// the HSTS header depends on the individual request.
func (sh *SecureHeaders) Handler(next http.Handler) http.Handler {
	csp := sh.ContentSecurityPolicy
	if csp == "" {
		csp = sh.buildCSP()
	}
	permissions := sh.PermissionsPolicy
	if permissions == "" && !sh.DevMode {
		permissions = defaultPermissionsPolicy()
	}
	hsts := sh.buildHSTS()

	fn := func(w http.ResponseWriter, r *http.Request) {
		// Hardening headers on an upgrade response confuse some websocket
		// clients, and the hub connection is same origin anyway
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		if hsts != "" && r.TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}
		h.Set("Content-Security-Policy", csp)
		if sh.XFrameOptions != "" {
			h.Set("X-Frame-Options", sh.XFrameOptions)
		}
		if sh.XContentTypeOptions != "" {
			h.Set("X-Content-Type-Options", sh.XContentTypeOptions)
		}
		if sh.XSSProtection != "" {
			h.Set("X-XSS-Protection", sh.XSSProtection)
		}
		if sh.ReferrerPolicy != "" {
			h.Set("Referrer-Policy", sh.ReferrerPolicy)
		}
		if permissions != "" {
			h.Set("Permissions-Policy", permissions)
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func (sh *SecureHeaders) buildHSTS() string {
	if sh.HSTSMaxAge <= 0 {
		return ""
	}
	hsts := fmt.Sprintf("max-age=%d", sh.HSTSMaxAge)
	if sh.HSTSIncludeSubdomains {
		hsts += "; includeSubDomains"
	}
	if sh.HSTSPreload {
		hsts += "; preload"
	}
	return hsts
}

// buildCSP returns the content security policy for the dashboard and API.
// The dev policy admits any host so Vite dev servers and browser tooling
// are not blocked.
func (sh *SecureHeaders) buildCSP() string {
	if sh.DevMode {
		return strings.Join([]string{
			"default-src 'self'",
			"script-src 'self' 'unsafe-inline' 'unsafe-eval' *",
			"style-src 'self' 'unsafe-inline' *",
			"img-src * data: blob:",
			"font-src *",
			"connect-src *",
		}, "; ")
	}

	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdn.jsdelivr.net https://cdnjs.cloudflare.com",
		"style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net https://cdnjs.cloudflare.com",
		"img-src 'self' data: https: blob:",
		"font-src 'self' https://cdnjs.cloudflare.com",
		"connect-src 'self' ws: wss:",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"upgrade-insecure-requests",
	}, "; ")
}

func defaultPermissionsPolicy() string {
	disabled := []string{
		"accelerometer", "camera", "geolocation", "gyroscope",
		"magnetometer", "microphone", "payment", "usb",
		"interest-cohort",
	}
	for i, feature := range disabled {
		disabled[i] = feature + "=()"
	}
	return strings.Join(disabled, ", ")
}

// AuditLog writes paired request and response entries for sensitive
// operations. Both carry the client name and request ID so an operator can
// reconstruct who triggered what.
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			logger.InfoContext(ctx, "audit: request",
				slog.String("client", ClientName(ctx)),
				slog.String("request_id", GetRequestID(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", GetRealIP(r)),
				slog.String("user_agent", r.UserAgent()),
			)

			sr := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sr, r)

			logger.InfoContext(ctx, "audit: response",
				slog.String("client", ClientName(ctx)),
				slog.String("request_id", GetRequestID(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sr.Status()),
				slog.Duration("duration", time.Since(start)),
			)
		}
		return http.HandlerFunc(fn)
	}
}

// statusRecorder remembers the first status code written.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Status returns the recorded code, defaulting to 200 when the handler
// never called WriteHeader explicitly.
func (sr *statusRecorder) Status() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}
