package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bitewatch/internal/config"
	apierrors "bitewatch/internal/errors"
)

// FileInfo describes one discovered candidate source file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds source exports in the data directory
type Discovery struct {
	dataDir string
	pinned  string
}

// NewDiscovery creates a discovery instance rooted at dataDir
func NewDiscovery(dataDir string) *Discovery {
	return &Discovery{dataDir: dataDir}
}

// NewPinnedDiscovery creates a discovery fixed on a single export file. It
// never scans a directory; NewestSource resolves the pinned path or fails.
func NewPinnedDiscovery(path string) *Discovery {
	return &Discovery{pinned: path}
}

// FindSourceFiles lists every .csv and .xlsx file directly under the data
// directory, newest modification time first. Equal timestamps fall back to
// descending name so discovery stays deterministic across runs.
func (d *Discovery) FindSourceFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dataDir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != config.SourceCSVExtension && ext != config.SourceXLSXExtension {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(d.dataDir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name > files[j].Name
	})

	return files, nil
}

// NewestSource returns the most recently modified source export, or
// ErrNoSourceDiscovered when the data directory holds none. A pinned
// discovery resolves its fixed path instead of scanning.
func (d *Discovery) NewestSource() (FileInfo, error) {
	if d.pinned != "" {
		info, err := os.Stat(d.pinned)
		if err != nil {
			return FileInfo{}, fmt.Errorf("%w: %s", apierrors.ErrNoSourceDiscovered, d.pinned)
		}
		if info.IsDir() {
			return FileInfo{}, fmt.Errorf("%w: %s is a directory", apierrors.ErrNoSourceDiscovered, d.pinned)
		}
		return FileInfo{
			Path:    d.pinned,
			Name:    filepath.Base(d.pinned),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}, nil
	}

	files, err := d.FindSourceFiles()
	if err != nil {
		return FileInfo{}, err
	}
	if len(files) == 0 {
		return FileInfo{}, fmt.Errorf("%w: %s", apierrors.ErrNoSourceDiscovered, d.dataDir)
	}
	return files[0], nil
}
