// Package version reports build metadata for the glb binary.
package version

import (
	"runtime/debug"
	"time"
)

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
	// BuildTime is the build timestamp (set via -ldflags).
	BuildTime = ""
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Resolve merges ldflags values with the module build info. Ldflags win.
func Resolve() Info {
	return resolve(Info{Version: Version, Commit: Commit, BuildTime: BuildTime}, readBuildInfo)
}

func resolve(info Info, buildInfo func() (*debug.BuildInfo, bool)) Info {
	if bi, ok := buildInfo(); ok && bi != nil {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}

	if info.Version == "" {
		if info.BuildTime != "" {
			info.Version = info.BuildTime
		} else {
			info.Version = time.Now().UTC().Format("20060102T150405Z")
		}
	}
	return info
}

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

func String() string {
	info := Resolve()
	if info.Commit == "" {
		return info.Version
	}
	return info.Version + " (" + shortCommit(info.Commit) + ")"
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
