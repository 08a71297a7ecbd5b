package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bitewatch/internal/config"
)

// Excel assumes a legacy code page for CSV unless the file opens with a BOM.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes report files under the configured data tree. Every CSV
// export funnels through it so path resolution and BOM handling live in
// one place.
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a writer rooted at the given paths.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures a single CSV export.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // prefix a UTF-8 BOM so Excel detects the encoding
}

// WriteCSV writes a complete table in one call. Larger exports should use
// CreateStreamWriter instead of materializing every row first.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	stream, err := w.newStream(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}

	for i := range options.Records {
		if err := stream.WriteRecord(options.Records[i]); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return err
	}

	slog.Info("csv report written",
		slog.String("file_path", filePath),
		slog.Int("rows", len(options.Records)))
	return nil
}

// WriteSimpleCSV writes headers plus records with a BOM, the shape almost
// every report in the pipeline uses.
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// StreamWriter emits rows as they are produced, for exports too large to
// hold in memory as a slice of rows.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter opens filePath, writes the BOM and header row, and
// hands back a stream for the caller to fill.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	return w.newStream(filePath, headers, true)
}

func (w *CSVWriter) newStream(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	slog.Debug("opening csv export",
		slog.String("full_path", fullPath),
		slog.Int("columns", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write byte order mark: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header row: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer}, nil
}

// WriteRecord appends one row.
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes buffered rows and closes the file. A flush error wins over
// the close error so a short write is not masked.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// resolvePath maps a relative export name into the reports tree. A cache/
// prefix redirects to the cache directory, absolute paths pass through.
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	if name, ok := strings.CutPrefix(filePath, "cache/"); ok {
		return w.paths.GetCachePath(name)
	}
	return w.paths.GetReportPath(filePath)
}
