// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is one captured log line with its resolved attributes
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that records everything logged through
// it so tests can assert on structured output. Handlers derived with
// WithAttrs share the same record buffer, so attributes bound with
// Logger.With still show up in the captured records.
type CaptureHandler struct {
	state *captureState
	bound []slog.Attr
}

type captureState struct {
	mu      sync.Mutex
	records []LogRecord
	t       *testing.T
}

// NewCaptureLogger returns a logger wired to a capture handler. Records are
// also echoed to the test log for debugging.
func NewCaptureLogger(t *testing.T) (*slog.Logger, *CaptureHandler) {
	handler := &CaptureHandler{state: &captureState{t: t}}
	return slog.New(handler), handler
}

// Enabled implements slog.Handler; every level is captured
func (h *CaptureHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.bound))
	for _, a := range h.bound {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.records = append(h.state.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	if h.state.t != nil {
		h.state.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs implements slog.Handler; the derived handler records into the
// same buffer with the extra attributes bound.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make([]slog.Attr, 0, len(h.bound)+len(attrs))
	bound = append(bound, h.bound...)
	bound = append(bound, attrs...)
	return &CaptureHandler{state: h.state, bound: bound}
}

// WithGroup implements slog.Handler. Groups are not recorded separately;
// nothing under test logs them.
func (h *CaptureHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Records returns a copy of everything captured so far
func (h *CaptureHandler) Records() []LogRecord {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	records := make([]LogRecord, len(h.state.records))
	copy(records, h.state.records)
	return records
}

// ByLevel returns the captured records at exactly the given level
func (h *CaptureHandler) ByLevel(level slog.Level) []LogRecord {
	var filtered []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ContainsMessage reports whether any captured record's message contains
// the given substring
func (h *CaptureHandler) ContainsMessage(message string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any captured record carries the attribute
func (h *CaptureHandler) ContainsAttr(key string, value any) bool {
	for _, r := range h.Records() {
		if val, ok := r.Attrs[key]; ok && val == value {
			return true
		}
	}
	return false
}

// AssertNoErrors fails the test when any error-level record was captured
func AssertNoErrors(t *testing.T, handler *CaptureHandler) {
	t.Helper()
	for _, r := range handler.ByLevel(slog.LevelError) {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}
