// Package validation checks source exports and output locations before the
// pipeline touches them, so failures surface as typed errors up front
// instead of half-way through ingestion.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bitewatch/internal/config"
	apierrors "bitewatch/internal/errors"
)

// SourceValidator validates raw incident exports before ingestion
type SourceValidator struct {
	logger *slog.Logger
	// maxSize caps the accepted source size in bytes; 0 disables the check
	maxSize int64
}

// NewSourceValidator creates a source validator
func NewSourceValidator(logger *slog.Logger, maxSize int64) *SourceValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceValidator{
		logger:  logger.With(slog.String("component", "validation")),
		maxSize: maxSize,
	}
}

// ValidateSource checks that path names a readable, non-empty .csv or
// .xlsx file within the configured size limit. Failures map onto the
// package-level sentinel errors so handlers can translate them.
func (v *SourceValidator) ValidateSource(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("source file does not exist",
			slog.String("file", path))
		return fmt.Errorf("%w: %s", apierrors.ErrSourceMissing, path)
	}
	if err != nil {
		v.logger.Error("failed to stat source file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat source %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("source path is a directory",
			slog.String("path", path))
		return fmt.Errorf("%w: %s is a directory", apierrors.ErrSourceMissing, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != config.SourceCSVExtension && ext != config.SourceXLSXExtension {
		v.logger.Error("unsupported source extension",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("unsupported source extension %q (want %s or %s)",
			ext, config.SourceCSVExtension, config.SourceXLSXExtension)
	}

	// Excel leaves ~$ lock files next to open workbooks.
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("rejecting temporary spreadsheet lock file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary spreadsheet file", path)
	}

	if info.Size() == 0 {
		v.logger.Error("source file is empty",
			slog.String("file", path))
		return fmt.Errorf("%w: %s", apierrors.ErrEmptySource, path)
	}

	if v.maxSize > 0 && info.Size() > v.maxSize {
		v.logger.Error("source file exceeds size limit",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("limit", v.maxSize))
		return fmt.Errorf("%w: %s is %d bytes (limit %d)",
			apierrors.ErrSourceTooLarge, path, info.Size(), v.maxSize)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("source file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("source %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("source file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable, creating it
// when needed
func (v *SourceValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}
