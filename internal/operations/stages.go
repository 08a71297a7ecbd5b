package operations

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bitewatch/internal/analytics"
	"bitewatch/internal/config"
	"bitewatch/internal/dataprocessing"
	"bitewatch/internal/exporter"
	"bitewatch/internal/files"
	"bitewatch/internal/validation"
)

// DiscoverStage locates the newest source export in the data directory and
// resolves its identity: path, size, mtime, and content fingerprint.
type DiscoverStage struct {
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewDiscoverStage creates the discovery stage
func NewDiscoverStage(discovery *files.Discovery, logger *slog.Logger) *DiscoverStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoverStage{
		discovery: discovery,
		logger:    logger.With(slog.String("stage", StageIDDiscover)),
	}
}

func (s *DiscoverStage) ID() string   { return StageIDDiscover }
func (s *DiscoverStage) Name() string { return StageNameDiscover }

// Validate always passes; discovery has no prerequisites
func (s *DiscoverStage) Validate(state *OperationState) error {
	return nil
}

// Execute finds the newest export and stores its full identity in the state
func (s *DiscoverStage) Execute(ctx context.Context, state *OperationState) error {
	info, err := s.discovery.NewestSource()
	if err != nil {
		return NewExecutionError(StageIDDiscover, err)
	}

	source, err := files.Describe(info.Path)
	if err != nil {
		return NewExecutionError(StageIDDiscover, err)
	}

	fingerprint, err := files.Fingerprint(info.Path)
	if err != nil {
		return NewExecutionError(StageIDDiscover, err)
	}
	source.Fingerprint = fingerprint

	state.SetSource(source)
	s.logger.InfoContext(ctx, "source discovered",
		slog.String("path", source.Path),
		slog.Int64("size_bytes", source.SizeBytes),
		slog.String("fingerprint", source.Fingerprint))
	return nil
}

// ValidateStage rejects a discovered source that is unreadable, empty, of an
// unsupported format, or over the configured size limit before any parsing
// work is spent on it.
type ValidateStage struct {
	validator *validation.SourceValidator
}

// NewValidateStage creates the validation stage
func NewValidateStage(validator *validation.SourceValidator) *ValidateStage {
	return &ValidateStage{validator: validator}
}

func (s *ValidateStage) ID() string   { return StageIDValidate }
func (s *ValidateStage) Name() string { return StageNameValidate }

// Validate requires a discovered source in the state
func (s *ValidateStage) Validate(state *OperationState) error {
	if state.Source().Path == "" {
		return NewValidationError(StageIDValidate, "no source discovered")
	}
	return nil
}

// Execute runs the source file checks
func (s *ValidateStage) Execute(ctx context.Context, state *OperationState) error {
	if err := s.validator.ValidateSource(state.Source().Path); err != nil {
		return NewExecutionError(StageIDValidate, err)
	}
	return nil
}

// BuildStage runs the cleaning pipeline over the validated source and stores
// the resulting dataset in the state.
type BuildStage struct {
	pipeline *dataprocessing.Pipeline
}

// NewBuildStage creates the build stage
func NewBuildStage(pipeline *dataprocessing.Pipeline) *BuildStage {
	return &BuildStage{pipeline: pipeline}
}

func (s *BuildStage) ID() string   { return StageIDBuild }
func (s *BuildStage) Name() string { return StageNameBuild }

// Validate requires a discovered source in the state
func (s *BuildStage) Validate(state *OperationState) error {
	if state.Source().Path == "" {
		return NewValidationError(StageIDBuild, "no source discovered")
	}
	return nil
}

// Execute parses, cleans, and derives; the dataset lands in the state
func (s *BuildStage) Execute(ctx context.Context, state *OperationState) error {
	dataset, err := s.pipeline.Run(ctx, state.Source())
	if err != nil {
		return NewExecutionError(StageIDBuild, err)
	}
	state.SetDataset(dataset)
	return nil
}

// ExportStage writes the report artifacts for the built dataset: the clean
// dataset export, the monthly trend and city metrics tables, and the
// summary JSON.
type ExportStage struct {
	datasets   *exporter.DatasetExporter
	aggregates *exporter.AggregateExporter
	paths      *config.Paths
	logger     *slog.Logger
}

// NewExportStage creates the export stage
func NewExportStage(datasets *exporter.DatasetExporter, aggregates *exporter.AggregateExporter, paths *config.Paths, logger *slog.Logger) *ExportStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStage{
		datasets:   datasets,
		aggregates: aggregates,
		paths:      paths,
		logger:     logger.With(slog.String("stage", StageIDExport)),
	}
}

func (s *ExportStage) ID() string   { return StageIDExport }
func (s *ExportStage) Name() string { return StageNameExport }

// Validate requires a built dataset in the state
func (s *ExportStage) Validate(state *OperationState) error {
	if state.Dataset() == nil {
		return NewValidationError(StageIDExport, "no dataset built")
	}
	return nil
}

// Execute writes all artifacts and reports the first write error. The four
// artifacts are independent, so they are written concurrently: each
// aggregation reads the immutable record slice and each write lands in its
// own file.
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	dataset := state.Dataset()

	var g errgroup.Group
	g.Go(func() error {
		return s.datasets.ExportClean(dataset, s.paths.CleanCSV)
	})
	g.Go(func() error {
		return s.aggregates.ExportMonthlyTrend(analytics.MonthlyTrend(dataset.Records), s.paths.MonthlyTrendCSV)
	})
	g.Go(func() error {
		// Default city count, matching the dashboard's top cities table
		cities := analytics.CityMetrics(dataset.Records, analytics.CityMetricsSpec{})
		return s.aggregates.ExportCityMetrics(cities, s.paths.CityMetricsCSV)
	})
	g.Go(func() error {
		summary := exporter.BuildSummary(dataset, analytics.ComputeKPIs(dataset.Records))
		return s.aggregates.ExportSummaryJSON(summary, s.paths.SummaryJSON)
	})
	if err := g.Wait(); err != nil {
		return NewExecutionError(StageIDExport, err)
	}

	s.logger.InfoContext(ctx, "artifacts exported",
		slog.Int("records", len(dataset.Records)),
		slog.String("reports_dir", s.paths.ReportsDir))
	return nil
}
