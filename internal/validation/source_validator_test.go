package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/shared/testutil"
)

func testValidator(maxSize int64) *SourceValidator {
	return NewSourceValidator(slog.New(slog.NewJSONHandler(io.Discard, nil)), maxSize)
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateSource(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantErr error
		errText string
	}{
		{
			name:    "valid csv",
			path:    writeSource(t, dir, "export.csv", "header\nrow\n"),
			maxSize: 1 << 20,
		},
		{
			name:    "valid xlsx by extension",
			path:    writeSource(t, dir, "export.xlsx", "not really xlsx but extension passes"),
			maxSize: 1 << 20,
		},
		{
			name:    "uppercase extension accepted",
			path:    writeSource(t, dir, "EXPORT.CSV", "header\nrow\n"),
			maxSize: 1 << 20,
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "absent.csv"),
			wantErr: apierrors.ErrSourceMissing,
		},
		{
			name:    "directory",
			path:    dir,
			wantErr: apierrors.ErrSourceMissing,
		},
		{
			name:    "unsupported extension",
			path:    writeSource(t, dir, "export.parquet", "data"),
			errText: "unsupported source extension",
		},
		{
			name:    "spreadsheet lock file",
			path:    writeSource(t, dir, "~$export.xlsx", "lock"),
			errText: "temporary spreadsheet file",
		},
		{
			name:    "empty file",
			path:    writeSource(t, dir, "empty.csv", ""),
			wantErr: apierrors.ErrEmptySource,
		},
		{
			name:    "oversized file",
			path:    writeSource(t, dir, "big.csv", "0123456789"),
			maxSize: 5,
			wantErr: apierrors.ErrSourceTooLarge,
		},
		{
			name:    "zero limit disables size check",
			path:    writeSource(t, dir, "unlimited.csv", "0123456789"),
			maxSize: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testValidator(tt.maxSize).ValidateSource(tt.path)
			if tt.wantErr == nil && tt.errText == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestValidateSource_Logging(t *testing.T) {
	t.Run("oversize failure logs the limit", func(t *testing.T) {
		logger, handler := testutil.NewCaptureLogger(t)
		path := writeSource(t, t.TempDir(), "big.csv", "0123456789")

		err := NewSourceValidator(logger, 5).ValidateSource(path)

		require.Error(t, err)
		assert.True(t, handler.ContainsMessage("source file exceeds size limit"))
		assert.True(t, handler.ContainsAttr("file", path))
		assert.True(t, handler.ContainsAttr("limit", int64(5)))
		assert.True(t, handler.ContainsAttr("component", "validation"))
	})

	t.Run("valid source logs no errors", func(t *testing.T) {
		logger, handler := testutil.NewCaptureLogger(t)
		path := writeSource(t, t.TempDir(), "export.csv", "header\nrow\n")

		require.NoError(t, NewSourceValidator(logger, 0).ValidateSource(path))
		testutil.AssertNoErrors(t, handler)
	})
}

func TestValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")

	require.NoError(t, testValidator(0).ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// The probe file must not survive validation.
	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err))
}
