// Package version exposes build-time version information. The variables
// are injected through -ldflags; without them the binary reports "dev".
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version.
	Version = "dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build date.
	BuildDate = "unknown"
)

// GetVersion returns the bare version string, as printed in the
// conversion report banner.
func GetVersion() string {
	return Version
}

// GetFullVersion returns a detailed version string with build info.
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s %s/%s)",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
