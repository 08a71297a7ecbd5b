package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bitewatch/internal/config"
	"bitewatch/internal/dataprocessing"
	"bitewatch/internal/exporter"
	"bitewatch/internal/files"
	"bitewatch/internal/infrastructure"
	"bitewatch/internal/operations"
	"bitewatch/internal/validation"
	"bitewatch/pkg/contracts"
)

// Clean dataset artifact formats accepted by -format
const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

// stageOrder lists the refresh stages in execution order for reporting
var stageOrder = []string{
	operations.StageIDDiscover,
	operations.StageIDValidate,
	operations.StageIDBuild,
	operations.StageIDExport,
}

func main() {
	source := flag.String("source", "", "source export file, or a directory to discover the newest export in (defaults to data relative to executable)")
	outDir := flag.String("out", "", "directory for report artifacts (defaults to data/reports relative to executable)")
	format := flag.String("format", formatCSV, "clean dataset artifact format: csv or xlsx")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit %s, built %s)\n", contracts.GetVersionString(), contracts.GitCommit, contracts.BuildTime)
		return
	}

	if *format != formatCSV && *format != formatXLSX {
		slog.Error("Unsupported clean artifact format", "format", *format)
		os.Exit(1)
	}

	// Initialize paths first to get default directories
	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = "processor.log"
	}

	// Configured directories first, then flags on top of them
	paths.ApplyDataConfig(cfg.Data)
	applyOverrides(paths, *outDir, *format)

	// Ensure all required directories exist
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = cfg.ResolveLogPath(paths)
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	logger.Info("Starting dataset refresh",
		slog.String("source", *source),
		slog.String("data_dir", paths.DataDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("clean_format", *format))

	// An interrupt cancels between stages; a running stage sees it through
	// its own context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("Interrupt received, cancelling refresh")
		cancel()
	}()

	discovery := sourceDiscovery(*source, paths.DataDir)
	state, err := newRefreshRunner(discovery, paths, cfg.Data.MaxSourceSize, logger).Run(ctx)
	writeRunReport(os.Stdout, state, paths)
	if err != nil {
		logger.Error("Dataset refresh failed",
			slog.String("operation_id", state.ID),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Dataset refresh completed",
		slog.String("operation_id", state.ID),
		slog.Int("records", state.Dataset().Len()),
		slog.Duration("duration", state.Duration()))
}

// applyOverrides points the path set at the flag-selected output. An
// overridden reports directory carries the artifact paths with it; the xlsx
// format swaps the clean artifact's extension so the exporter writes a
// workbook.
func applyOverrides(paths *config.Paths, outDir, format string) {
	if outDir != "" {
		paths.ReportsDir = outDir
		paths.CleanCSV = filepath.Join(outDir, "incidents_clean.csv")
		paths.MonthlyTrendCSV = filepath.Join(outDir, "monthly_trend.csv")
		paths.CityMetricsCSV = filepath.Join(outDir, "city_metrics.csv")
		paths.SummaryJSON = filepath.Join(outDir, "summary.json")
	}
	if format == formatXLSX {
		paths.CleanCSV = strings.TrimSuffix(paths.CleanCSV, ".csv") + ".xlsx"
	}
}

// sourceDiscovery maps the -source flag onto discovery: empty scans the data
// directory, a directory scans that directory, anything else is pinned as
// the export itself.
func sourceDiscovery(source, dataDir string) *files.Discovery {
	if source == "" {
		return files.NewDiscovery(dataDir)
	}
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return files.NewDiscovery(source)
	}
	return files.NewPinnedDiscovery(source)
}

// newRefreshRunner wires the four refresh stages the same way the web
// application does
func newRefreshRunner(discovery *files.Discovery, paths *config.Paths, maxSourceSize int64, logger *slog.Logger) *operations.Runner {
	writer := exporter.NewCSVWriter(paths)
	return operations.NewRunner(logger,
		operations.NewDiscoverStage(discovery, logger),
		operations.NewValidateStage(validation.NewSourceValidator(logger, maxSourceSize)),
		operations.NewBuildStage(dataprocessing.NewPipeline(logger)),
		operations.NewExportStage(exporter.NewDatasetExporter(writer), exporter.NewAggregateExporter(writer), paths, logger),
	)
}

// writeRunReport prints a human-readable account of one refresh run: the
// per-stage outcomes, then the dataset and artifact summary when the build
// got that far.
func writeRunReport(w io.Writer, state *operations.OperationState, paths *config.Paths) {
	fmt.Fprintf(w, "dataset refresh %s in %s\n", state.CurrentStatus(), state.Duration().Round(time.Millisecond))

	for _, id := range stageOrder {
		step := state.GetStage(id)
		if step == nil {
			continue
		}
		line := fmt.Sprintf("  %-18s %s", step.Name, step.CurrentStatus())
		switch step.CurrentStatus() {
		case operations.StepStatusCompleted:
			line += fmt.Sprintf(" (%s)", step.Duration().Round(time.Millisecond))
		case operations.StepStatusFailed:
			if step.Error != nil {
				line += ": " + step.Error.Error()
			}
		case operations.StepStatusSkipped:
			if step.Message != "" {
				line += ": " + step.Message
			}
		}
		fmt.Fprintln(w, line)
	}

	dataset := state.Dataset()
	if dataset == nil {
		return
	}

	fmt.Fprintf(w, "source: %s\n", dataset.Source.Path)
	fmt.Fprintf(w, "records: %d clean, %d dropped of %d raw\n", dataset.Len(), dataset.DroppedRows, dataset.RawRows)
	if !dataset.FirstIncident.IsZero() {
		fmt.Fprintf(w, "span: %s to %s\n",
			dataset.FirstIncident.Format("2006-01-02"),
			dataset.LastIncident.Format("2006-01-02"))
	}

	// A failed or cancelled export leaves artifacts missing or stale, so
	// they are only listed for a completed run
	if state.CurrentStatus() != operations.OperationStatusCompleted {
		return
	}
	fmt.Fprintln(w, "artifacts:")
	for _, artifact := range []string{paths.CleanCSV, paths.MonthlyTrendCSV, paths.CityMetricsCSV, paths.SummaryJSON} {
		fmt.Fprintf(w, "  %s\n", artifact)
	}
}
