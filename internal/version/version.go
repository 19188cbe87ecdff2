// Package version reports the putz build.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Full returns "version (commit) date".
func Full() string {
	return fmt.Sprintf("%s (%s) %s", Version, Commit, Date)
}

// Short returns the version alone.
func Short() string {
	return Version
}

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(info)
	}
}

// fromBuildInfo fills whatever ldflags left at its default from the module
// and VCS stamps of a `go install` build.
func fromBuildInfo(info *debug.BuildInfo) {
	if info == nil {
		return
	}
	if v := info.Main.Version; Version == "dev" && v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		if s.Value == "" {
			continue
		}
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value[:min(len(s.Value), 7)]
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		}
	}
}
