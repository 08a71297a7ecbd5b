package operations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitewatch/internal/config"
	"bitewatch/internal/dataprocessing"
	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/exporter"
	"bitewatch/internal/files"
	"bitewatch/internal/validation"
)

const sourceHeader = "Bite Number,Incident Date,Date Reported ,Victim Age,Incident Location,Victim Relationship,Bite Location,Bite Severity,Bite Circumstance,Controlled By,Bite Type,Treatment Cost"

func stageTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func stageTestPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	data := filepath.Join(base, "data")
	reports := filepath.Join(data, "reports")
	require.NoError(t, os.MkdirAll(reports, 0o755))
	return &config.Paths{
		ExecutableDir: base,
		DataDir:       data,
		ReportsDir:    reports,
		CacheDir:      filepath.Join(data, "cache"),
		LogsDir:       filepath.Join(base, "logs"),

		CleanCSV:        filepath.Join(reports, "incidents_clean.csv"),
		MonthlyTrendCSV: filepath.Join(reports, "monthly_trend.csv"),
		CityMetricsCSV:  filepath.Join(reports, "city_metrics.csv"),
		SummaryJSON:     filepath.Join(reports, "summary.json"),
	}
}

func writeSource(t *testing.T, paths *config.Paths, name, content string) string {
	t.Helper()
	path := filepath.Join(paths.DataDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// refreshRunner wires the four real stages the way the application does
func refreshRunner(paths *config.Paths) *Runner {
	logger := stageTestLogger()
	writer := exporter.NewCSVWriter(paths)
	return NewRunner(logger,
		NewDiscoverStage(files.NewDiscovery(paths.DataDir), logger),
		NewValidateStage(validation.NewSourceValidator(logger, 0)),
		NewBuildStage(dataprocessing.NewPipeline(logger)),
		NewExportStage(exporter.NewDatasetExporter(writer), exporter.NewAggregateExporter(writer), paths, logger),
	)
}

func TestRefreshPipeline_EndToEnd(t *testing.T) {
	paths := stageTestPaths(t)
	content := sourceHeader + "\n" +
		"2015-001,2015 Jul 04 06:15:00 PM,2015 Jul 06 09:00:00 AM,7,\"400 Elm St, Dallas, TX 75201\",OWNER,ARM,SEVERE,PROVOKED,OWNER,PUBLIC,\"$1,250.00\"\n" +
		"2015-002,2015 Jul 05 04:00:00 AM,,34,\"Garland, TX 75040\",STRANGER,LEG,MINOR,,,PRIVATE,80\n" +
		"2015-003,garbled,2015 Jul 06 09:00:00 AM,50,,,,,,,,\n"
	writeSource(t, paths, "bites.csv", content)

	state, err := refreshRunner(paths).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, state.CurrentStatus())
	for _, id := range []string{StageIDDiscover, StageIDValidate, StageIDBuild, StageIDExport} {
		assert.Equal(t, StepStatusCompleted, state.GetStage(id).CurrentStatus(), "stage %s", id)
	}

	dataset := state.Dataset()
	require.NotNil(t, dataset)
	assert.Equal(t, 3, dataset.RawRows)
	assert.Equal(t, 1, dataset.DroppedRows, "the garbled-date row is dropped")
	require.Len(t, dataset.Records, 2)
	assert.Len(t, dataset.Source.Fingerprint, 64, "content fingerprint carried into the dataset")

	for _, artifact := range []string{paths.CleanCSV, paths.MonthlyTrendCSV, paths.CityMetricsCSV, paths.SummaryJSON} {
		info, statErr := os.Stat(artifact)
		require.NoError(t, statErr, artifact)
		assert.Greater(t, info.Size(), int64(0), artifact)
	}

	raw, err := os.ReadFile(paths.SummaryJSON)
	require.NoError(t, err)
	var summary exporter.Summary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 1, summary.DroppedRows)
	assert.Equal(t, "2", summary.KPIs.TotalIncidents.Formatted)
}

func TestRefreshPipeline_NoSourceFailsDiscovery(t *testing.T) {
	paths := stageTestPaths(t)

	state, err := refreshRunner(paths).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apierrors.ErrNoSourceDiscovered))
	assert.Equal(t, OperationStatusFailed, state.CurrentStatus())
	assert.Equal(t, StepStatusFailed, state.GetStage(StageIDDiscover).CurrentStatus())
	assert.Equal(t, StepStatusSkipped, state.GetStage(StageIDValidate).CurrentStatus())
	assert.Equal(t, StepStatusSkipped, state.GetStage(StageIDBuild).CurrentStatus())
	assert.Equal(t, StepStatusSkipped, state.GetStage(StageIDExport).CurrentStatus())
}

func TestRefreshPipeline_EmptySourceFailsValidation(t *testing.T) {
	paths := stageTestPaths(t)
	writeSource(t, paths, "bites.csv", "")

	state, err := refreshRunner(paths).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apierrors.ErrEmptySource))
	assert.Equal(t, StepStatusCompleted, state.GetStage(StageIDDiscover).CurrentStatus())
	assert.Equal(t, StepStatusFailed, state.GetStage(StageIDValidate).CurrentStatus())
	assert.Equal(t, StepStatusSkipped, state.GetStage(StageIDBuild).CurrentStatus())
}

func TestRefreshPipeline_HeaderMismatchFailsBuild(t *testing.T) {
	paths := stageTestPaths(t)
	writeSource(t, paths, "bites.csv", "Totally,Different,Columns\n1,2,3\n")

	state, err := refreshRunner(paths).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apierrors.ErrHeaderMismatch))
	assert.Equal(t, StepStatusCompleted, state.GetStage(StageIDValidate).CurrentStatus())
	assert.Equal(t, StepStatusFailed, state.GetStage(StageIDBuild).CurrentStatus())
	assert.Equal(t, StepStatusSkipped, state.GetStage(StageIDExport).CurrentStatus())
}

func TestRefreshPipeline_PicksNewestSource(t *testing.T) {
	paths := stageTestPaths(t)
	old := sourceHeader + "\n2014-001,2014 Jan 01 10:00:00 AM,,5,\"Plano, TX 75023\",OWNER,ARM,MINOR,,,PUPPY,10\n"
	current := sourceHeader + "\n2015-001,2015 Jul 04 06:15:00 PM,,7,\"400 Elm St, Dallas, TX 75201\",OWNER,ARM,SEVERE,PROVOKED,OWNER,PUBLIC,100\n"

	oldPath := writeSource(t, paths, "bites_2014.csv", old)
	writeSource(t, paths, "bites_2015.csv", current)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	state, err := refreshRunner(paths).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, state.Dataset().Records, 1)
	assert.Equal(t, "2015-001", state.Dataset().Records[0].IncidentID)
	assert.Equal(t, filepath.Join(paths.DataDir, "bites_2015.csv"), state.Source().Path)
}

func TestValidateStage_RequiresDiscoveredSource(t *testing.T) {
	stage := NewValidateStage(validation.NewSourceValidator(stageTestLogger(), 0))

	err := stage.Validate(NewOperationState("op-1"))

	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
}

func TestExportStage_RequiresBuiltDataset(t *testing.T) {
	paths := stageTestPaths(t)
	writer := exporter.NewCSVWriter(paths)
	stage := NewExportStage(exporter.NewDatasetExporter(writer), exporter.NewAggregateExporter(writer), paths, stageTestLogger())

	err := stage.Validate(NewOperationState("op-1"))

	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
}
