package boxoffice

import (
	"fmt"
	"runtime"
)

// Version information
const (
	Version       = "0.3.0"
	SchemaVersion = "0001"
)

// BuildInfo contains build information
var BuildInfo = struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}{
	Version:   Version,
	GoVersion: runtime.Version(),
}

// SetBuildInfo is called from main with values injected at link time
func SetBuildInfo(commit, date string) {
	BuildInfo.GitCommit = commit
	BuildInfo.BuildDate = date
}

// VersionInfo returns a one-line version string
func VersionInfo() string {
	return fmt.Sprintf("boxoffice %s (schema %s)", BuildInfo.Version, SchemaVersion)
}

// FullVersionInfo returns detailed version information
func FullVersionInfo() string {
	info := fmt.Sprintf("boxoffice %s\n", BuildInfo.Version)
	info += fmt.Sprintf("Schema Version: %s\n", SchemaVersion)
	info += fmt.Sprintf("Go Version: %s\n", BuildInfo.GoVersion)

	if BuildInfo.GitCommit != "" {
		info += fmt.Sprintf("Git Commit: %s\n", BuildInfo.GitCommit)
	}

	if BuildInfo.BuildDate != "" {
		info += fmt.Sprintf("Build Date: %s\n", BuildInfo.BuildDate)
	}

	return info
}
