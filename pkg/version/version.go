// Package version holds build metadata for the namefix binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

// Set through -ldflags "-X github.com/Sumatoshi-tech/namefix/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills in values the linker did not set from the module
// build information, so that `go install` builds still report a version.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String renders the version line printed by `namefix version`.
func String() string {
	return fmt.Sprintf("namefix %s (commit: %s, built: %s)", Version, Commit, Date)
}
