// Package version holds build information stamped in by the linker:
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/autoimport/pkg/version.Version=v1.2.3"
package version

import (
	"fmt"
	"runtime/debug"
)

// unknown is reported for fields the build did not stamp.
const unknown = "unknown"

var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = unknown
	// Date is the build timestamp.
	Date = unknown
)

// InitBinaryVersion fills Commit and Date from the embedded VCS build
// settings when the linker did not set them.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
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

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
