package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Well-known output files produced by the pipeline
	CleanCSV        string
	MonthlyTrendCSV string
	CityMetricsCSV  string
	SummaryJSON     string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory, so the binaries behave the same regardless of
// where they are launched from.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to determine executable path: %w", err)
	}

	// EvalSymlinks so a symlinked install resolves to the real location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlink: %w", err)
	}

	exeDir := filepath.Dir(exe)

	// Directory structure:
	// <exe dir>/
	//   ├── data/
	//   │   ├── <source export>.csv|.xlsx
	//   │   ├── reports/       (generated artifacts)
	//   │   └── cache/         (temporary files)
	//   └── logs/              (application logs)

	dataDir := filepath.Join(exeDir, "data")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		ReportsDir:    filepath.Join(dataDir, "reports"),
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(exeDir, "logs"),
	}
	paths.setArtifacts()

	return paths, nil
}

// ApplyDataConfig points the path set at explicitly configured directories.
// Empty fields keep the executable-relative defaults; relative overrides
// resolve against the executable directory, never the working directory.
// Artifact paths follow the resolved reports directory.
func (p *Paths) ApplyDataConfig(data DataConfig) {
	if data.DataDir != "" {
		p.DataDir = p.resolveDir(data.DataDir)
		p.ReportsDir = filepath.Join(p.DataDir, "reports")
		p.CacheDir = filepath.Join(p.DataDir, "cache")
	}
	if data.ReportsDir != "" {
		p.ReportsDir = p.resolveDir(data.ReportsDir)
	}
	if data.LogsDir != "" {
		p.LogsDir = p.resolveDir(data.LogsDir)
	}
	p.setArtifacts()
}

// setArtifacts recomputes the well-known pipeline outputs under ReportsDir.
func (p *Paths) setArtifacts() {
	p.CleanCSV = filepath.Join(p.ReportsDir, "incidents_clean.csv")
	p.MonthlyTrendCSV = filepath.Join(p.ReportsDir, "monthly_trend.csv")
	p.CityMetricsCSV = filepath.Join(p.ReportsDir, "city_metrics.csv")
	p.SummaryJSON = filepath.Join(p.ReportsDir, "summary.json")
}

func (p *Paths) resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return p.GetRelativePath(dir)
}

// EnsureDirectories creates the data, reports, cache and log directories.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		slog.Debug("directory ready", slog.String("directory", dir))
	}

	return nil
}

// GetRelativePath joins subpath onto the executable directory.
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// GetDataPath locates filename inside the data directory.
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// GetReportPath locates filename inside the reports directory.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath locates filename inside the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath locates filename inside the cache directory.
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// FileExists reports whether path exists on disk.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution dumps the resolved directory and artifact layout,
// useful once at startup when diagnosing where files ended up.
func (p *Paths) LogPathResolution() {
	slog.Info("resolved application paths",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("artifacts",
			slog.String("clean_csv", p.CleanCSV),
			slog.String("monthly_trend_csv", p.MonthlyTrendCSV),
			slog.String("city_metrics_csv", p.CityMetricsCSV),
			slog.String("summary_json", p.SummaryJSON),
		))
}
