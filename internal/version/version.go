// Package version holds build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for the named binary.
func String(binary string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", binary, Version, Commit, Date, runtime.Version())
}
