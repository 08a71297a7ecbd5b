package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"bitewatch/pkg/contracts/domain"
)

// DatasetExporter writes the cleaned dataset artifact, CSV or workbook
type DatasetExporter struct {
	writer *CSVWriter
}

// NewDatasetExporter creates a dataset exporter
func NewDatasetExporter(writer *CSVWriter) *DatasetExporter {
	return &DatasetExporter{writer: writer}
}

// ExportClean writes the clean dataset artifact at outputPath, choosing the
// encoding by extension: .xlsx produces a single-sheet workbook, anything
// else the canonical CSV.
func (d *DatasetExporter) ExportClean(dataset *domain.Dataset, outputPath string) error {
	if strings.EqualFold(filepath.Ext(outputPath), ".xlsx") {
		return d.ExportCleanXLSX(dataset, outputPath)
	}
	return d.ExportCleanCSV(dataset, outputPath)
}

// ExportCleanCSV streams every clean record to outputPath in the canonical
// column layout, one row per incident, in dataset order.
func (d *DatasetExporter) ExportCleanCSV(dataset *domain.Dataset, outputPath string) error {
	stream, err := d.writer.CreateStreamWriter(outputPath, cleanHeaders())
	if err != nil {
		return fmt.Errorf("failed to create clean CSV writer: %w", err)
	}

	for i := range dataset.Records {
		if err := stream.WriteRecord(incidentToCSVRow(&dataset.Records[i])); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return stream.Close()
}

// ExportCleanXLSX streams every clean record into a single-sheet workbook
// with the same column layout and cell formatting the CSV export uses.
func (d *DatasetExporter) ExportCleanXLSX(dataset *domain.Dataset, outputPath string) error {
	fullPath := d.writer.resolvePath(outputPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	stream, err := f.NewStreamWriter(f.GetSheetName(0))
	if err != nil {
		return fmt.Errorf("failed to create workbook writer: %w", err)
	}

	if err := writeSheetRow(stream, 1, cleanHeaders()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := range dataset.Records {
		if err := writeSheetRow(stream, i+2, incidentToCSVRow(&dataset.Records[i])); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	return f.SaveAs(fullPath)
}

// writeSheetRow writes one row of string cells starting at column A
func writeSheetRow(stream *excelize.StreamWriter, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return stream.SetRow(cell, cells)
}

// cleanHeaders returns the clean CSV column names, mirroring the Incident
// contract's csv tags in declaration order
func cleanHeaders() []string {
	return []string{
		"IncidentID",
		"IncidentDate",
		"DateReported",
		"ReportDelayDays",
		"IncidentYear",
		"DayOfWeek",
		"TimeOfDay",
		"VictimAge",
		"VictimAgeGroup",
		"City",
		"State",
		"VictimRelationship",
		"BiteLocation",
		"BiteSeverity",
		"BiteCircumstance",
		"ControlledBy",
		"BiteType",
		"TreatmentCost",
	}
}

func incidentToCSVRow(rec *domain.Incident) []string {
	return []string{
		rec.IncidentID,
		formatTimestamp(rec.IncidentDate),
		formatOptionalTimestamp(rec.DateReported),
		formatInt(rec.ReportDelayDays),
		formatInt(rec.IncidentYear),
		string(rec.DayOfWeek),
		string(rec.TimeOfDay),
		formatInt(rec.VictimAge),
		string(rec.VictimAgeGroup),
		rec.City,
		rec.State,
		rec.VictimRelationship,
		rec.BiteLocation,
		rec.BiteSeverity,
		rec.BiteCircumstance,
		rec.ControlledBy,
		rec.BiteType,
		formatCost(rec.TreatmentCost),
	}
}
