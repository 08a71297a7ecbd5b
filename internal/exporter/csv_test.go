package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitewatch/internal/config"
)

func newTestPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	data := filepath.Join(base, "data")
	return &config.Paths{
		ExecutableDir: base,
		DataDir:       data,
		ReportsDir:    filepath.Join(data, "reports"),
		CacheDir:      filepath.Join(data, "cache"),
		LogsDir:       filepath.Join(base, "logs"),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := strings.TrimPrefix(string(raw), "\uFEFF")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteSimpleCSV(t *testing.T) {
	paths := newTestPaths(t)
	writer := NewCSVWriter(paths)

	err := writer.WriteSimpleCSV("table.csv",
		[]string{"City", "Count"},
		[][]string{{"Dallas", "10"}, {"Garland, TX", "3"}})
	require.NoError(t, err)

	// Relative paths land in the reports directory.
	fullPath := filepath.Join(paths.ReportsDir, "table.csv")
	raw, err := os.ReadFile(fullPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\uFEFF"), "BOM prefix")

	rows := readCSV(t, fullPath)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"City", "Count"}, rows[0])
	assert.Equal(t, []string{"Garland, TX", "3"}, rows[2], "comma in value survives quoting")
}

func TestWriteCSV_AbsolutePath(t *testing.T) {
	paths := newTestPaths(t)
	target := filepath.Join(t.TempDir(), "nested", "out.csv")

	err := NewCSVWriter(paths).WriteCSV(target, WriteOptions{
		Headers: []string{"a"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)

	rows := readCSV(t, target)
	assert.Equal(t, [][]string{{"a"}, {"1"}}, rows)
}

func TestWriteCSV_CachePrefix(t *testing.T) {
	paths := newTestPaths(t)

	err := NewCSVWriter(paths).WriteCSV("cache/scratch.csv", WriteOptions{
		Records: [][]string{{"x"}},
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(paths.CacheDir, "scratch.csv"))
	assert.NoError(t, err)
}

func TestStreamWriter(t *testing.T) {
	paths := newTestPaths(t)
	writer := NewCSVWriter(paths)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"id", "value"})
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"1", "alpha"}))
	require.NoError(t, stream.WriteRecord([]string{"2", "beta"}))
	require.NoError(t, stream.Close())

	rows := readCSV(t, filepath.Join(paths.ReportsDir, "stream.csv"))
	assert.Equal(t, [][]string{
		{"id", "value"},
		{"1", "alpha"},
		{"2", "beta"},
	}, rows)
}
