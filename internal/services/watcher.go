package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bitewatch/internal/config"
	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/infrastructure"
)

// SourceWatcher revalidates the source export on a fixed schedule and
// rebuilds the dataset when its content changed. Ticks go through the
// reload fast path, so an untouched file costs one stat call per interval.
type SourceWatcher struct {
	datasets *DatasetService
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSourceWatcher creates a watcher over the dataset service. A
// non-positive interval falls back to the config default.
func NewSourceWatcher(cfg config.WatcherConfig, datasets *DatasetService, logger *slog.Logger) *SourceWatcher {
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = config.Default().Watcher.Interval
	}

	return &SourceWatcher{
		datasets: datasets,
		interval: interval,
		cron:     cron.New(),
		logger:   logger.With(slog.String("component", "source_watcher")),
	}
}

// Start schedules the periodic source check. Starting twice is an error.
func (w *SourceWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("source watcher already started")
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())

	spec := fmt.Sprintf("@every %s", w.interval)
	if _, err := w.cron.AddFunc(spec, w.check); err != nil {
		w.cancel()
		return fmt.Errorf("schedule source check: %w", err)
	}

	w.cron.Start()
	w.started = true

	w.logger.Info("source watcher started",
		slog.Duration("interval", w.interval))
	return nil
}

// Stop halts the schedule and waits for an in-flight check to finish
func (w *SourceWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	w.cancel()
	<-w.cron.Stop().Done()
	w.started = false

	w.logger.Info("source watcher stopped")
}

// Running reports whether the schedule is active
func (w *SourceWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// check is the cron callback. It delegates to tick and turns its outcome
// into log events; a watcher tick never escalates past logging.
func (w *SourceWatcher) check() {
	ctx, cancel := context.WithTimeout(w.ctx, w.interval)
	defer cancel()

	// One trace id per tick, shared with the reload it triggers
	ctx = infrastructure.EnsureTraceID(ctx)

	outcome, err := w.tick(ctx)
	switch {
	case errors.Is(err, apierrors.ErrWatcherStopped):
		// A queued tick fired after Stop; nothing to do.
	case errors.Is(err, apierrors.ErrNoSourceDiscovered), errors.Is(err, apierrors.ErrSourceMissing):
		// Transient on fresh deployments; the next tick retries.
		w.logger.DebugContext(ctx, "no source available",
			slog.String("error", err.Error()))
	case err != nil:
		w.logger.ErrorContext(ctx, "scheduled reload failed",
			slog.String("error", err.Error()))
	case outcome.Changed:
		w.logger.InfoContext(ctx, "source change detected",
			slog.Int("records", outcome.Dataset.Len()),
			slog.String("fingerprint", outcome.Dataset.Source.Fingerprint))
	}
}

// tick runs one revalidation pass. It returns ErrWatcherStopped when the
// watcher was stopped before the pass could start.
func (w *SourceWatcher) tick(ctx context.Context) (ReloadOutcome, error) {
	select {
	case <-ctx.Done():
		return ReloadOutcome{}, apierrors.ErrWatcherStopped
	default:
	}
	return w.datasets.Reload(ctx, false)
}
