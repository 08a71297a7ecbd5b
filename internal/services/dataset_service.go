package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bitewatch/internal/config"
	"bitewatch/internal/dataprocessing"
	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/files"
	"bitewatch/internal/infrastructure"
	"bitewatch/internal/validation"
	"bitewatch/pkg/contracts/domain"
	"bitewatch/pkg/contracts/events"
)

// WebSocketHub is the subset of the websocket hub the service layer uses
type WebSocketHub interface {
	Broadcast(msg events.Message)
	ClientCount() int
}

// ReloadOutcome reports what a reload did. Changed is false when the source
// identity matched the cached dataset and nothing was recomputed.
type ReloadOutcome struct {
	Changed bool
	Dataset *domain.Dataset
}

// DatasetService owns the clean dataset lifecycle: it resolves the source
// export, validates it, runs the cleaning pipeline, and caches the result
// keyed by content fingerprint. Datasets are immutable once built, so the
// cached pointer is handed to concurrent readers without copying; only the
// pointer swap is guarded.
type DatasetService struct {
	cfg       *config.Config
	paths     *config.Paths
	discovery *files.Discovery
	validator *validation.SourceValidator
	pipeline  *dataprocessing.Pipeline
	hub       WebSocketHub
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger

	// reloadMu serializes reload work; mu guards the cached pointers.
	reloadMu sync.Mutex
	mu       sync.RWMutex
	current  *domain.Dataset
	// lastSeen is the stat identity verified by the most recent reload.
	// It can move past the dataset's own identity when a touch changed
	// mtime without changing content.
	lastSeen domain.SourceInfo
}

// NewDatasetService creates the dataset service and its pipeline components
func NewDatasetService(cfg *config.Config, paths *config.Paths, hub WebSocketHub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DatasetService initialized",
		slog.String("data_dir", paths.DataDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("configured_source", cfg.Data.SourceFile),
		slog.Int64("max_source_size", cfg.Data.MaxSourceSize))

	return &DatasetService{
		cfg:       cfg,
		paths:     paths,
		discovery: files.NewDiscovery(paths.DataDir),
		validator: validation.NewSourceValidator(logger, cfg.Data.MaxSourceSize),
		pipeline:  dataprocessing.NewPipeline(logger),
		hub:       hub,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "dataset_service")),
	}
}

// Current returns the cached dataset, or ErrDatasetUnloaded before the
// first successful load
func (ds *DatasetService) Current(ctx context.Context) (*domain.Dataset, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.current == nil {
		return nil, apierrors.ErrDatasetUnloaded
	}
	return ds.current, nil
}

// Loaded reports whether a dataset has been built
func (ds *DatasetService) Loaded() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.current != nil
}

// Load performs the initial dataset load. It is Reload without force,
// returning the dataset directly.
func (ds *DatasetService) Load(ctx context.Context) (*domain.Dataset, error) {
	outcome, err := ds.Reload(ctx, false)
	if err != nil {
		return nil, err
	}
	return outcome.Dataset, nil
}

// Reload revalidates the source and rebuilds the dataset when its content
// changed. The check is two-tiered: an unchanged stat identity (path, size,
// mtime) short-circuits without reading the file; an unchanged content
// fingerprint short-circuits without rebuilding. Force skips the stat tier
// and always rehashes. Reloads are serialized; concurrent callers block and
// then see the fresh outcome.
func (ds *DatasetService) Reload(ctx context.Context, force bool) (ReloadOutcome, error) {
	ds.reloadMu.Lock()
	defer ds.reloadMu.Unlock()

	// Startup loads arrive without a trace id; request and watcher
	// contexts already carry one
	ctx = infrastructure.EnsureTraceID(ctx)

	start := time.Now()

	source, err := ds.resolveSource()
	if err != nil {
		ds.logger.WarnContext(ctx, "source resolution failed",
			slog.String("error", err.Error()))
		infrastructure.RecordDatasetReload(ctx, ds.metrics, ds.cfg.Data.SourceFile, 0, 0, time.Since(start), false)
		return ReloadOutcome{}, err
	}

	cached := ds.snapshot()

	if !force && cached != nil && sameStatIdentity(ds.lastIdentity(), source) {
		ds.logger.DebugContext(ctx, "source unchanged, stat identity match",
			slog.String("source", source.Path))
		return ReloadOutcome{Changed: false, Dataset: cached}, nil
	}

	if err := ds.validator.ValidateSource(source.Path); err != nil {
		infrastructure.RecordDatasetReload(ctx, ds.metrics, source.Path, 0, 0, time.Since(start), false)
		return ReloadOutcome{}, err
	}

	fingerprint, err := files.Fingerprint(source.Path)
	if err != nil {
		infrastructure.RecordDatasetReload(ctx, ds.metrics, source.Path, 0, 0, time.Since(start), false)
		return ReloadOutcome{}, err
	}
	source.Fingerprint = fingerprint

	if cached != nil && cached.Source.Fingerprint == fingerprint {
		// Content is identical even though the stat identity moved (a touch
		// or re-download of the same export). Remember the new identity so
		// the stat tier short-circuits again.
		ds.setLastIdentity(source)
		ds.logger.InfoContext(ctx, "source unchanged, fingerprint match",
			slog.String("source", source.Path),
			slog.String("fingerprint", fingerprint))
		return ReloadOutcome{Changed: false, Dataset: cached}, nil
	}

	dataset, err := ds.pipeline.Run(ctx, source)
	if err != nil {
		infrastructure.RecordDatasetReload(ctx, ds.metrics, source.Path, 0, 0, time.Since(start), false)
		return ReloadOutcome{}, err
	}

	ds.swap(dataset, source)

	duration := time.Since(start)
	infrastructure.RecordDatasetReload(ctx, ds.metrics, source.Path,
		int64(dataset.Len()), int64(dataset.DroppedRows), duration, true)

	ds.logger.InfoContext(ctx, "dataset reloaded",
		slog.String("source", source.Path),
		slog.String("fingerprint", fingerprint),
		slog.Int("records", dataset.Len()),
		slog.Int("dropped_rows", dataset.DroppedRows),
		slog.Duration("duration", duration))

	if ds.hub != nil {
		ds.hub.Broadcast(events.NewMessage(events.MessageTypeDatasetReloaded, events.DatasetReloaded{
			SourcePath:  dataset.Source.Path,
			Fingerprint: dataset.Source.Fingerprint,
			Records:     dataset.Len(),
			DroppedRows: dataset.DroppedRows,
			LoadedAt:    dataset.LoadedAt,
		}))
	}

	return ReloadOutcome{Changed: true, Dataset: dataset}, nil
}

// resolveSource returns the stat identity of the export to load: the
// configured source file when one is set, otherwise the newest export in
// the data directory.
func (ds *DatasetService) resolveSource() (domain.SourceInfo, error) {
	if explicit := ds.cfg.ResolveSourcePath(ds.paths); explicit != "" {
		return files.Describe(explicit)
	}
	newest, err := ds.discovery.NewestSource()
	if err != nil {
		return domain.SourceInfo{}, err
	}
	return files.Describe(newest.Path)
}

func (ds *DatasetService) snapshot() *domain.Dataset {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.current
}

func (ds *DatasetService) lastIdentity() domain.SourceInfo {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.lastSeen
}

func (ds *DatasetService) setLastIdentity(source domain.SourceInfo) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.lastSeen = source
}

func (ds *DatasetService) swap(dataset *domain.Dataset, source domain.SourceInfo) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.current = dataset
	ds.lastSeen = source
}

// sameStatIdentity compares the cheap stat fields only. Fingerprints are
// intentionally ignored; the caller decides when hashing is warranted.
func sameStatIdentity(a, b domain.SourceInfo) bool {
	return a.Path == b.Path && a.SizeBytes == b.SizeBytes && a.ModTime.Equal(b.ModTime)
}
