package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// GenerateTraceID mints a fresh UUID v4 trace identifier.
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID returns a context guaranteed to carry a trace ID,
// generating one when absent. Background work such as dataset reloads and
// watcher ticks starts here so its log lines correlate the way request
// traffic does.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}
