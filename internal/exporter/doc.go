// Package exporter writes the pipeline's report artifacts.
//
// This package contains three main components:
//
// CSVWriter: core CSV writing with headers, streaming for large datasets,
// and a UTF-8 BOM so spreadsheet tools open the files cleanly.
//
// DatasetExporter: writes the full cleaned dataset as one CSV with the
// canonical column layout, one row per incident.
//
// AggregateExporter: writes derived artifacts next to the clean CSV: the
// monthly trend table, the city metrics table, and a summary.json carrying
// source identity, row accounting, and the headline KPIs.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths)
//	datasets := exporter.NewDatasetExporter(writer)
//	err := datasets.ExportCleanCSV(dataset, paths.CleanCSV)
//
//	aggregates := exporter.NewAggregateExporter(writer)
//	err = aggregates.ExportMonthlyTrend(points, paths.MonthlyTrendCSV)
package exporter
