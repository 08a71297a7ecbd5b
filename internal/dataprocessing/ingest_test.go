package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bitewatch/internal/config"
	apierrors "bitewatch/internal/errors"
)

const csvHeader = "Bite Number,Incident Date,Date Reported ,Victim Age,Incident Location,Victim Relationship,Bite Location,Bite Severity,Bite Circumstance,Controlled By,Bite Type,Treatment Cost"

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bites.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSource_CSV(t *testing.T) {
	content := csvHeader + "\n" +
		"2015-001,2015 Jul 04 02:30:00 PM,2015 Jul 06 09:00:00 AM,Age: 7 years,\"400 Elm St, Dallas, TX 75201\",OWNER,ARM,SEVERE,PROVOKED,OWNER,PUBLIC,\"$1,250.00\"\n" +
		"2015-002,not a date,,34,,stranger,leg,minor,unprovoked,,private,-40\n"

	records, err := ReadSource(writeTempCSV(t, content))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "2015-001", first.BiteNumber)
	require.NotNil(t, first.IncidentDate)
	assert.Equal(t, time.Date(2015, time.July, 4, 14, 30, 0, 0, time.UTC), *first.IncidentDate)
	require.NotNil(t, first.DateReported)
	assert.Equal(t, "Age: 7 years", first.VictimAgeText)
	assert.Equal(t, "400 Elm St, Dallas, TX 75201", first.IncidentLocation)
	assert.Equal(t, 1250.0, first.TreatmentCost)

	second := records[1]
	assert.Nil(t, second.IncidentDate, "non-conforming timestamp must parse to nil")
	assert.Nil(t, second.DateReported)
	assert.Equal(t, "34", second.VictimAgeText)
	assert.Zero(t, second.TreatmentCost, "negative cost must clamp to 0")
}

func TestReadSource_CSVWithBOM(t *testing.T) {
	content := "\uFEFF" + csvHeader + "\n" +
		"B-1,2019 Mar 15 08:00:00 AM,,5,,,,,,,,0\n"

	records, err := ReadSource(writeTempCSV(t, content))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B-1", records[0].BiteNumber)
	require.NotNil(t, records[0].IncidentDate)
}

func TestReadSource_RaggedAndEmptyRows(t *testing.T) {
	content := csvHeader + "\n" +
		"B-1,2019 Mar 15 08:00:00 AM\n" + // short row: remaining cells empty
		",,,,,,,,,,,\n" + // fully empty row: skipped
		"B-2,2019 Mar 16 09:00:00 PM,,12,,,,,,,,75\n"

	records, err := ReadSource(writeTempCSV(t, content))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "B-1", records[0].BiteNumber)
	assert.Empty(t, records[0].VictimAgeText)
	assert.Equal(t, "B-2", records[1].BiteNumber)
	assert.Equal(t, 75.0, records[1].TreatmentCost)
}

func TestReadSource_HeaderMismatch(t *testing.T) {
	// "Date Reported" without its trailing space is a different column.
	content := "Bite Number,Incident Date,Date Reported,Victim Age,Incident Location,Victim Relationship,Bite Location,Bite Severity,Bite Circumstance,Controlled By,Bite Type,Treatment Cost\nB-1,,,,,,,,,,,\n"

	_, err := ReadSource(writeTempCSV(t, content))
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrHeaderMismatch)
	assert.Contains(t, err.Error(), "Date Reported ")
}

func TestReadSource_EmptyFile(t *testing.T) {
	_, err := ReadSource(writeTempCSV(t, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrEmptySource)
}

func TestReadSource_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bites.parquet")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := ReadSource(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source format")
}

func TestReadSource_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, col := range config.RawColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, col))
	}
	row := []interface{}{
		"X-9", "2021 Dec 01 11:45:00 PM", "2021 Dec 03 10:00:00 AM", "61",
		"12 Oak Ln, Austin, TX 78701", "Neighbor", "Hand", "Moderate",
		"Provoked", "Owner", "Private", "320.5",
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, val))
	}
	path := filepath.Join(t.TempDir(), "bites.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := ReadSource(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "X-9", rec.BiteNumber)
	require.NotNil(t, rec.IncidentDate)
	assert.Equal(t, 23, rec.IncidentDate.Hour())
	assert.Equal(t, 320.5, rec.TreatmentCost)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want *time.Time
	}{
		{
			name: "canonical layout",
			cell: "2015 Jul 04 02:30:00 PM",
			want: timePtr(time.Date(2015, time.July, 4, 14, 30, 0, 0, time.UTC)),
		},
		{
			name: "midnight twelve hour clock",
			cell: "2020 Jan 01 12:00:00 AM",
			want: timePtr(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "surrounding whitespace tolerated",
			cell: "  2018 Feb 10 09:15:30 AM  ",
			want: timePtr(time.Date(2018, time.February, 10, 9, 15, 30, 0, time.UTC)),
		},
		{name: "empty cell", cell: "", want: nil},
		{name: "iso layout rejected", cell: "2015-07-04 14:30:00", want: nil},
		{name: "unpadded day rejected", cell: "2015 Jul 4 02:30:00 PM", want: nil},
		{name: "garbage", cell: "pending review", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.cell)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %v got %v", tt.want, got)
		})
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want float64
	}{
		{"plain number", "250", 250},
		{"decimal", "320.5", 320.5},
		{"currency and separators", "$1,250.00", 1250},
		{"whitespace", "  99  ", 99},
		{"empty", "", 0},
		{"unparseable", "pending", 0},
		{"negative clamped", "-40", 0},
		{"negative with symbol clamped", "-$500", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCost(tt.cell))
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
