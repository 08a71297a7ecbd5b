package dataprocessing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitewatch/pkg/contracts/domain"
)

func testPipeline() *Pipeline {
	return NewPipeline(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func rawRow(id string, incident *time.Time, ageText string) RawRecord {
	return RawRecord{
		BiteNumber:    id,
		IncidentDate:  incident,
		VictimAgeText: ageText,
	}
}

func TestAssemble_DropsNullIncidentDates(t *testing.T) {
	d1 := time.Date(2019, time.May, 3, 18, 0, 0, 0, time.UTC)
	d2 := time.Date(2019, time.May, 4, 4, 0, 0, 0, time.UTC)
	rows := []RawRecord{
		rawRow("A", &d1, "10"),
		rawRow("B", nil, "20"),
		rawRow("C", &d2, "30"),
		rawRow("D", nil, ""),
	}

	dataset := testPipeline().Assemble(rows, domain.SourceInfo{Path: "bites.csv"})

	assert.Equal(t, 4, dataset.RawRows)
	assert.Equal(t, 2, dataset.DroppedRows)
	require.Len(t, dataset.Records, 2)
	assert.Equal(t, dataset.RawRows, len(dataset.Records)+dataset.DroppedRows)
	assert.Equal(t, "A", dataset.Records[0].IncidentID)
	assert.Equal(t, "C", dataset.Records[1].IncidentID)
}

func TestAssemble_MedianUsesFullColumnBeforeImputation(t *testing.T) {
	d := time.Date(2019, time.May, 3, 12, 0, 0, 0, time.UTC)
	// The dropped row's age still participates in the median: 10, 20, 30.
	rows := []RawRecord{
		rawRow("A", &d, "10"),
		rawRow("B", nil, "20"),
		rawRow("C", &d, "30"),
		rawRow("D", &d, "no age given"),
	}

	dataset := testPipeline().Assemble(rows, domain.SourceInfo{})

	assert.Equal(t, 20.0, dataset.AgeMedian)
	require.Len(t, dataset.Records, 3)
	assert.Equal(t, 20, dataset.Records[2].VictimAge, "missing age imputed with the median")
}

func TestAssemble_FractionalMedianTruncates(t *testing.T) {
	d := time.Date(2019, time.May, 3, 12, 0, 0, 0, time.UTC)
	rows := []RawRecord{
		rawRow("A", &d, "10"),
		rawRow("B", &d, "21"),
		rawRow("C", &d, "unknown"),
	}

	dataset := testPipeline().Assemble(rows, domain.SourceInfo{})

	assert.Equal(t, 15.5, dataset.AgeMedian)
	require.Len(t, dataset.Records, 3)
	assert.Equal(t, 15, dataset.Records[2].VictimAge)
	assert.Equal(t, domain.AgeGroupTeen, dataset.Records[2].VictimAgeGroup)
}

func TestAssemble_DerivedFeatures(t *testing.T) {
	// Saturday evening incident reported two days later.
	incident := time.Date(2015, time.July, 4, 18, 15, 0, 0, time.UTC)
	reported := incident.Add(49 * time.Hour)
	rows := []RawRecord{
		{
			BiteNumber:         "2015-001",
			IncidentDate:       &incident,
			DateReported:       &reported,
			VictimAgeText:      "Age: 7 years",
			IncidentLocation:   "400 Elm St, Dallas, TX 75201",
			VictimRelationship: "owner",
			BiteLocation:       " arm ",
			BiteSeverity:       "nan",
			BiteCircumstance:   "",
			ControlledBy:       "Owner",
			BiteType:           "n/a",
			TreatmentCost:      1250,
		},
	}

	dataset := testPipeline().Assemble(rows, domain.SourceInfo{})
	require.Len(t, dataset.Records, 1)
	rec := dataset.Records[0]

	assert.Equal(t, "2015-001", rec.IncidentID)
	assert.Equal(t, 2015, rec.IncidentYear)
	assert.Equal(t, domain.Saturday, rec.DayOfWeek)
	assert.Equal(t, domain.Evening, rec.TimeOfDay)
	assert.Equal(t, 2, rec.ReportDelayDays)
	assert.Equal(t, 7, rec.VictimAge)
	assert.Equal(t, domain.AgeGroupChild, rec.VictimAgeGroup)
	assert.Equal(t, "St", rec.City)
	assert.Equal(t, "TX", rec.State)
	assert.Equal(t, "OWNER", rec.VictimRelationship)
	assert.Equal(t, "ARM", rec.BiteLocation)
	assert.Equal(t, domain.UnknownValue, rec.BiteSeverity)
	assert.Equal(t, domain.UnknownValue, rec.BiteCircumstance)
	assert.Equal(t, "OWNER", rec.ControlledBy)
	assert.Equal(t, domain.UnknownValue, rec.BiteType)
	assert.Equal(t, 1250.0, rec.TreatmentCost)
}

func TestAssemble_DelayNeverNegative(t *testing.T) {
	base := time.Date(2019, time.May, 3, 12, 0, 0, 0, time.UTC)
	early := base.Add(-72 * time.Hour)
	late := base.Add(72 * time.Hour)
	rows := []RawRecord{
		{BiteNumber: "A", IncidentDate: &base, DateReported: &early},
		{BiteNumber: "B", IncidentDate: &base, DateReported: &late},
		{BiteNumber: "C", IncidentDate: &base},
	}

	dataset := testPipeline().Assemble(rows, domain.SourceInfo{})
	for _, rec := range dataset.Records {
		assert.GreaterOrEqual(t, rec.ReportDelayDays, 0, "record %s", rec.IncidentID)
	}
}

func TestAssemble_DatasetBounds(t *testing.T) {
	mid := time.Date(2018, time.June, 1, 10, 0, 0, 0, time.UTC)
	first := time.Date(2015, time.January, 2, 9, 0, 0, 0, time.UTC)
	last := time.Date(2021, time.November, 30, 22, 0, 0, 0, time.UTC)
	rows := []RawRecord{
		rawRow("A", &mid, "1"),
		rawRow("B", &first, "2"),
		rawRow("C", &last, "3"),
	}

	dataset := testPipeline().Assemble(rows, domain.SourceInfo{})

	assert.True(t, dataset.FirstIncident.Equal(first))
	assert.True(t, dataset.LastIncident.Equal(last))
}

func TestAssemble_EmptyInput(t *testing.T) {
	dataset := testPipeline().Assemble(nil, domain.SourceInfo{Path: "empty.csv"})

	assert.True(t, dataset.Empty())
	assert.Zero(t, dataset.RawRows)
	assert.Zero(t, dataset.DroppedRows)
	assert.Zero(t, dataset.AgeMedian)
	assert.True(t, dataset.FirstIncident.IsZero())
	assert.True(t, dataset.LastIncident.IsZero())
}

func TestPipelineRun_EndToEnd(t *testing.T) {
	content := csvHeader + "\n" +
		"2015-001,2015 Jul 04 06:15:00 PM,2015 Jul 06 09:00:00 AM,Age: 7 years,\"400 Elm St, Dallas, TX 75201\",OWNER,ARM,SEVERE,PROVOKED,OWNER,PUBLIC,\"$1,250.00\"\n" +
		"2015-002,garbled,2015 Jul 06 09:00:00 AM,34,,STRANGER,LEG,MINOR,,,PRIVATE,80\n" +
		"2015-003,2015 Jul 05 04:00:00 AM,,,\"Garland, TX 75040\",,,,,,,\n"

	path := writeTempCSV(t, content)
	source := domain.SourceInfo{Path: path, Fingerprint: "abc123"}

	dataset, err := testPipeline().Run(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, source, dataset.Source, "source identity stamped unchanged")
	assert.Equal(t, 3, dataset.RawRows)
	assert.Equal(t, 1, dataset.DroppedRows)
	require.Len(t, dataset.Records, 2)

	assert.Equal(t, domain.Evening, dataset.Records[0].TimeOfDay)
	assert.Equal(t, domain.Night, dataset.Records[1].TimeOfDay)
	assert.Equal(t, "Garland", dataset.Records[1].City)

	// Ages 7 and 34 parsed; the third row imputes int(20.5) = 20.
	assert.Equal(t, 20.5, dataset.AgeMedian)
	assert.Equal(t, 20, dataset.Records[1].VictimAge)
	assert.False(t, dataset.LoadedAt.IsZero())
}

func TestPipelineRun_SourceErrorsPropagate(t *testing.T) {
	_, err := testPipeline().Run(context.Background(), domain.SourceInfo{Path: "/nonexistent/bites.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest")
}
