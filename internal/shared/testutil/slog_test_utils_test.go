package testutil

import (
	"log/slog"
	"testing"
)

func TestCaptureHandler(t *testing.T) {
	t.Run("captures records with attributes", func(t *testing.T) {
		logger, handler := NewCaptureLogger(t)

		logger.Info("dataset loaded", slog.String("source", "bites.csv"))
		logger.Error("reload failed", slog.Int("attempt", 2))

		if got := len(handler.Records()); got != 2 {
			t.Errorf("expected 2 records, got %d", got)
		}
		if !handler.ContainsMessage("dataset loaded") {
			t.Error("expected to find 'dataset loaded'")
		}
		if !handler.ContainsAttr("source", "bites.csv") {
			t.Error("expected to find attribute source=bites.csv")
		}
	})

	t.Run("bound attributes survive Logger.With", func(t *testing.T) {
		logger, handler := NewCaptureLogger(t)

		logger.With(slog.String("component", "pipeline")).Warn("row dropped", slog.Int("row", 7))

		if !handler.ContainsAttr("component", "pipeline") {
			t.Error("expected bound attribute component=pipeline")
		}
		if !handler.ContainsAttr("row", int64(7)) {
			t.Error("expected per-call attribute row=7")
		}
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewCaptureLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		if got := len(handler.ByLevel(slog.LevelInfo)); got != 1 {
			t.Errorf("expected 1 info record, got %d", got)
		}
		if got := len(handler.ByLevel(slog.LevelError)); got != 1 {
			t.Errorf("expected 1 error record, got %d", got)
		}
	})

	t.Run("concurrent logging is safe", func(t *testing.T) {
		logger, handler := NewCaptureLogger(t)

		done := make(chan struct{})
		for i := 0; i < 10; i++ {
			go func(n int) {
				logger.Info("concurrent log", slog.Int("goroutine", n))
				done <- struct{}{}
			}(i)
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		if got := len(handler.Records()); got != 10 {
			t.Errorf("expected 10 records from concurrent logging, got %d", got)
		}
	})
}
