package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the semantic version of this release, bumped by hand
	Version = "1.0.0"

	// DataFormatVersion tags the clean dataset export format. Bump it when
	// the exported column set changes shape.
	DataFormatVersion = "v1"

	// APIVersion covers the HTTP and WebSocket surface
	APIVersion = "v1"
)

// Injected at link time:
//
//	go build -ldflags "-X bitewatch/pkg/contracts.GitCommit=$(git rev-parse HEAD)"
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the build identity reported by the health endpoint.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo assembles the full build identity, mixing the compiled
// constants with what the runtime reports.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetVersionString is the one line form printed by --version.
func GetVersionString() string {
	return fmt.Sprintf("bitewatch v%s", Version)
}
