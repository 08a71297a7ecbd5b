package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bitewatch/internal/analytics"
	"bitewatch/pkg/contracts"
	"bitewatch/pkg/contracts/domain"
)

// AggregateExporter writes derived report artifacts next to the clean CSV
type AggregateExporter struct {
	writer *CSVWriter
}

// NewAggregateExporter creates an aggregate exporter
func NewAggregateExporter(writer *CSVWriter) *AggregateExporter {
	return &AggregateExporter{writer: writer}
}

// ExportMonthlyTrend writes the month-by-month incident counts
func (a *AggregateExporter) ExportMonthlyTrend(points []analytics.TrendPoint, outputPath string) error {
	records := make([][]string, 0, len(points))
	for _, point := range points {
		records = append(records, []string{point.Month, formatInt(point.Count)})
	}
	return a.writer.WriteSimpleCSV(outputPath, []string{"Month", "Incidents"}, records)
}

// ExportCityMetrics writes the ranked per-city metrics table
func (a *AggregateExporter) ExportCityMetrics(metrics []analytics.CityMetric, outputPath string) error {
	records := make([][]string, 0, len(metrics))
	for _, metric := range metrics {
		records = append(records, []string{
			metric.City,
			formatInt(metric.Count),
			formatCost(metric.AvgCost),
			formatFloat(metric.AvgDelay),
		})
	}
	headers := []string{"City", "Incidents", "AvgTreatmentCost", "AvgReportDelayDays"}
	return a.writer.WriteSimpleCSV(outputPath, headers, records)
}

// Summary is the run manifest written alongside the CSV artifacts. It ties
// the artifacts back to the exact source bytes they were derived from.
type Summary struct {
	FormatVersion string            `json:"format_version"`
	GeneratedAt   time.Time         `json:"generated_at"`
	Source        domain.SourceInfo `json:"source"`
	RawRows       int               `json:"raw_rows"`
	DroppedRows   int               `json:"dropped_rows"`
	Records       int               `json:"records"`
	AgeMedian     float64           `json:"age_median"`
	FirstIncident time.Time         `json:"first_incident"`
	LastIncident  time.Time         `json:"last_incident"`
	KPIs          analytics.KPISet  `json:"kpis"`
}

// BuildSummary assembles the summary for a dataset
func BuildSummary(dataset *domain.Dataset, kpis analytics.KPISet) Summary {
	return Summary{
		FormatVersion: contracts.DataFormatVersion,
		GeneratedAt:   time.Now().UTC(),
		Source:        dataset.Source,
		RawRows:       dataset.RawRows,
		DroppedRows:   dataset.DroppedRows,
		Records:       dataset.Len(),
		AgeMedian:     dataset.AgeMedian,
		FirstIncident: dataset.FirstIncident,
		LastIncident:  dataset.LastIncident,
		KPIs:          kpis,
	}
}

// ExportSummaryJSON writes the summary as indented JSON
func (a *AggregateExporter) ExportSummaryJSON(summary Summary, outputPath string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
