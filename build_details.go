package schemafetch

import (
	"fmt"
	"runtime"
)

// Set via ldflags at release build time; development builds keep the
// defaults.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Version returns the module version, or "dev" when built from source.
func Version() string {
	return version
}

// BuildInfo returns a one-line description of the build, suitable for a
// --version flag.
func BuildInfo() string {
	return fmt.Sprintf("schemafetch %s (commit %s, built %s, %s)",
		version, commit, buildTime, runtime.Version())
}

// UserAgent returns the User-Agent string sent when the caller did not
// supply one.
func UserAgent() string {
	return fmt.Sprintf("schemafetch/%s", version)
}
