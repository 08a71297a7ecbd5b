package middleware

import (
	"context"
	"net/http"
	"strings"

	"bitewatch/internal/infrastructure"
)

// contextKey keeps middleware context values collision free. The pointer
// identity is the key, the name only shows up in debug output.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "bitewatch middleware context value " + k.name
}

var (
	requestIDKey  = &contextKey{"request-id"}
	clientNameKey = &contextKey{"client-name"}
	metricsKey    = &contextKey{"business-metrics"}
)

// GetRequestID returns the request ID assigned by the RequestID middleware,
// falling back to the trace ID when the middleware never ran.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return infrastructure.GetTraceID(ctx)
}

// ClientName returns the authenticated API client name, or an empty string
// on unauthenticated requests.
func ClientName(ctx context.Context) string {
	name, _ := ctx.Value(clientNameKey).(string)
	return name
}

// GetRealIP returns the originating client address. Proxy headers win over
// the socket peer, and only the first hop of a forwarded chain counts.
func GetRealIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return fwd
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
