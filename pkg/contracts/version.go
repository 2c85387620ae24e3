// Package contracts holds the build metadata and data-format version shared
// by the CLI, the HTTP API and telemetry.
package contracts

import (
	"fmt"
	"runtime"
	"strings"
)

// Version of sheetkpi. DataFormatVersion changes only when the layout of
// dashboard_data.json does.
const (
	Version           = "0.1.0"
	DataFormatVersion = "v1"
)

// Stamped by the release build:
//
//	go build -ldflags "-X sheetkpi/pkg/contracts.GitCommit=$(git rev-parse --short HEAD) -X sheetkpi/pkg/contracts.BuildTime=$(date -u +%FT%TZ)"
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version      string `json:"version"`
	DataFormat   string `json:"data_format"`
	GitCommit    string `json:"git_commit"`
	BuildTime    string `json:"build_time"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo reads the stamped metadata and the Go runtime
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		DataFormat:   DataFormatVersion,
		GitCommit:    GitCommit,
		BuildTime:    BuildTime,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// GetFullVersionString renders the banner printed by `name version`
func GetFullVersionString(name string) string {
	info := GetVersionInfo()

	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s (data format %s)\n", name, info.Version, info.DataFormat)
	fmt.Fprintf(&b, "Git Commit: %s\n", info.GitCommit)
	fmt.Fprintf(&b, "Build Time: %s\n", info.BuildTime)
	fmt.Fprintf(&b, "Go Version: %s %s/%s", info.GoVersion, info.OS, info.Architecture)
	return b.String()
}
