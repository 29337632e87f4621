// Package version records build metadata injected at link time.
package version

import "fmt"

// Populated via -ldflags at build time, e.g.
//
//	go build -ldflags "-X sheetpilot/internal/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a single-line human-readable version string.
func Info() string {
	return fmt.Sprintf("sheetpilot %s (commit %s, built %s)", Version, Commit, Date)
}
