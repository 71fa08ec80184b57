package internal

import (
	"runtime/debug"
	"time"
)

// Version control details embedded by the go tool. They keep their
// defaults in test binaries and builds outside a checkout.
var (
	BuildRevision      = "unknown"
	BuildRevisionTime  time.Time
	BuildLocalModified = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		readBuildSettings(info.Settings)
	}
}

func readBuildSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		if s.Value == "" {
			continue
		}

		switch s.Key {
		case "vcs.revision":
			BuildRevision = s.Value
		case "vcs.modified":
			BuildLocalModified = s.Value
		case "vcs.time":
			// An unparsable time leaves the zero value, it only ends up in logs.
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				BuildRevisionTime = t
			}
		}
	}
}
