package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bitewatch/pkg/contracts/domain"
)

// Pipeline assembles clean datasets from raw source files. All transforms
// are pure and deterministic, so a pipeline is stateless and safe for
// concurrent use; the only instance state is the logger.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a pipeline that logs stage progress to logger
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger: logger.With(slog.String("component", "pipeline")),
	}
}

// Run executes the full cleaning pipeline for one source file: ingest the
// raw rows, derive every feature, and assemble the immutable dataset. The
// source identity (path, fingerprint, size, mtime) is computed by the
// caller and stamped onto the result unchanged.
//
// The returned error is source-level only; row- and cell-level defects are
// resolved by the deterministic per-field rules and reflected in the
// dataset's drop count.
func (p *Pipeline) Run(ctx context.Context, source domain.SourceInfo) (*domain.Dataset, error) {
	start := time.Now()

	rows, err := ReadSource(source.Path)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", source.Path, err)
	}
	ingestDone := time.Now()

	dataset := p.Assemble(rows, source)

	p.logger.InfoContext(ctx, "pipeline complete",
		slog.String("source", source.Path),
		slog.Int("raw_rows", dataset.RawRows),
		slog.Int("records", len(dataset.Records)),
		slog.Int("dropped_rows", dataset.DroppedRows),
		slog.Float64("age_median", dataset.AgeMedian),
		slog.Duration("ingest_duration", ingestDone.Sub(start)),
		slog.Duration("assemble_duration", time.Since(ingestDone)),
	)

	return dataset, nil
}

// Assemble converts typed raw rows into the clean dataset. Rows whose
// incident date never parsed are dropped here and counted, so
// RawRows == len(Records) + DroppedRows always holds. The age median is
// computed over the full column before any imputation.
func (p *Pipeline) Assemble(rows []RawRecord, source domain.SourceInfo) *domain.Dataset {
	// Full-column age pass first: the imputation median must not depend on
	// which rows survive the date check.
	ages := make([]int, len(rows))
	ageKnown := make([]bool, len(rows))
	parsed := make([]int, 0, len(rows))
	for i, row := range rows {
		age, ok := ExtractAge(row.VictimAgeText)
		ages[i], ageKnown[i] = age, ok
		if ok {
			parsed = append(parsed, age)
		}
	}
	median := MedianAge(parsed)
	imputedAge := int(median)

	records := make([]domain.Incident, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		if row.IncidentDate == nil {
			dropped++
			continue
		}

		age := ages[i]
		if !ageKnown[i] {
			age = imputedAge
		}

		incidentDate := *row.IncidentDate
		records = append(records, domain.Incident{
			IncidentID:         row.BiteNumber,
			IncidentDate:       incidentDate,
			DateReported:       row.DateReported,
			ReportDelayDays:    ReportDelayDays(incidentDate, row.DateReported),
			IncidentYear:       incidentDate.Year(),
			DayOfWeek:          domain.DayOfWeekFromTime(incidentDate),
			TimeOfDay:          domain.TimeOfDayFromHour(incidentDate.Hour()),
			VictimAge:          age,
			VictimAgeGroup:     domain.AgeGroupFromAge(age),
			City:               ExtractCity(row.IncidentLocation),
			State:              ExtractState(row.IncidentLocation),
			VictimRelationship: NormalizeCategory(row.VictimRelationship),
			BiteLocation:       NormalizeCategory(row.BiteLocation),
			BiteSeverity:       NormalizeCategory(row.BiteSeverity),
			BiteCircumstance:   NormalizeCategory(row.BiteCircumstance),
			ControlledBy:       NormalizeCategory(row.ControlledBy),
			BiteType:           NormalizeCategory(row.BiteType),
			TreatmentCost:      row.TreatmentCost,
		})
	}

	dataset := &domain.Dataset{
		Records:     records,
		Source:      source,
		LoadedAt:    time.Now().UTC(),
		RawRows:     len(rows),
		DroppedRows: dropped,
		AgeMedian:   median,
	}

	for _, rec := range records {
		if dataset.FirstIncident.IsZero() || rec.IncidentDate.Before(dataset.FirstIncident) {
			dataset.FirstIncident = rec.IncidentDate
		}
		if rec.IncidentDate.After(dataset.LastIncident) {
			dataset.LastIncident = rec.IncidentDate
		}
	}

	return dataset
}
