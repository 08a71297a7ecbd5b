package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"bitewatch/internal/config"
	apierrors "bitewatch/internal/errors"
)

// utf8BOM is the byte-order mark some spreadsheet tools prepend to CSV
// exports. It arrives glued to the first header cell and must be stripped
// before header matching.
const utf8BOM = "\uFEFF"

// ReadSource parses a raw bite export into typed rows. The format is chosen
// by file extension: .csv or .xlsx (first sheet). The header row must
// contain every required column name exactly, including the trailing space
// in "Date Reported "; extra columns are ignored.
//
// Cell-level defects never fail a row. Timestamps that do not match the
// export layout come back nil, costs that do not coerce come back 0.
func ReadSource(path string) ([]RawRecord, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case config.SourceCSVExtension:
		rows, err = readCSV(path)
	case config.SourceXLSXExtension:
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported source format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	return rowsToRecords(rows)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Municipal exports have ragged rows and stray quotes; tolerate both.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s: %w", filepath.Base(path), apierrors.ErrEmptySource)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// rowsToRecords maps the header, then converts every non-empty data row.
func rowsToRecords(rows [][]string) ([]RawRecord, error) {
	if len(rows) == 0 {
		return nil, apierrors.ErrEmptySource
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		records = append(records, RawRecord{
			BiteNumber:         cellAt(row, index[config.RawColBiteNumber]),
			IncidentDate:       ParseTimestamp(cellAt(row, index[config.RawColIncidentDate])),
			DateReported:       ParseTimestamp(cellAt(row, index[config.RawColDateReported])),
			VictimAgeText:      cellAt(row, index[config.RawColVictimAge]),
			IncidentLocation:   cellAt(row, index[config.RawColIncidentLocation]),
			VictimRelationship: cellAt(row, index[config.RawColVictimRelation]),
			BiteLocation:       cellAt(row, index[config.RawColBiteLocation]),
			BiteSeverity:       cellAt(row, index[config.RawColBiteSeverity]),
			BiteCircumstance:   cellAt(row, index[config.RawColBiteCircumstance]),
			ControlledBy:       cellAt(row, index[config.RawColControlledBy]),
			BiteType:           cellAt(row, index[config.RawColBiteType]),
			TreatmentCost:      ParseCost(cellAt(row, index[config.RawColTreatmentCost])),
		})
	}

	return records, nil
}

// headerIndex maps required column names to their positions. Matching is
// exact: no trimming, no case folding. The only normalization is stripping
// a UTF-8 BOM from the first cell.
func headerIndex(header []string) (map[string]int, error) {
	cells := make([]string, len(header))
	copy(cells, header)
	if len(cells) > 0 {
		cells[0] = strings.TrimPrefix(cells[0], utf8BOM)
	}

	positions := make(map[string]int, len(cells))
	for i, cell := range cells {
		if _, seen := positions[cell]; !seen {
			positions[cell] = i
		}
	}

	index := make(map[string]int, len(config.RawColumns))
	var missing []string
	for _, col := range config.RawColumns {
		pos, ok := positions[col]
		if !ok {
			missing = append(missing, fmt.Sprintf("%q", col))
			continue
		}
		index[col] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", apierrors.ErrHeaderMismatch, strings.Join(missing, ", "))
	}
	return index, nil
}

// ParseTimestamp parses one raw timestamp cell using the fixed export
// layout. Empty and non-conforming cells yield nil, never an error.
func ParseTimestamp(cell string) *time.Time {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	t, err := time.Parse(config.TimestampLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// ParseCost coerces one raw treatment-cost cell to a non-negative amount.
// Currency symbols and thousands separators are ignored; anything that
// still does not coerce, and any negative amount, yields 0.
func ParseCost(cell string) float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
