// Package version reports what build of the label service is running.
package version

import (
	"runtime"
	"runtime/debug"
	"strconv"
)

// Set with -ldflags "-X plantapp/version.BuildVersion=...".
var (
	BuildVersion = "dev"
	GitSHA       = ""
	BuildTime    = ""
)

// visionModule is the client library whose version is reported alongside the build.
const visionModule = "cloud.google.com/go/vision/v2"

// Info is the body of the version endpoint.
type Info struct {
	Service      string `json:"service"`
	Version      string `json:"version"`
	GitSHA       string `json:"git_sha,omitempty"`
	BuildTime    string `json:"build_time,omitempty"`
	Dirty        *bool  `json:"dirty,omitempty"`
	VisionClient string `json:"vision_client,omitempty"`
	GoVersion    string `json:"go_version"`
}

// Get describes the running binary. Values not set at link time are taken from the
// embedded build information when available.
func Get(service string) Info {
	info := Info{
		Service:   service,
		Version:   BuildVersion,
		GitSHA:    GitSHA,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	applyBuildInfo(&info, build)
	return info
}

func applyBuildInfo(info *Info, build *debug.BuildInfo) {
	if info.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}
	for _, dep := range build.Deps {
		if dep.Path == visionModule {
			info.VisionClient = dep.Version
		}
	}
	for _, s := range build.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitSHA == "" {
				info.GitSHA = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			if b, err := strconv.ParseBool(s.Value); err == nil {
				info.Dirty = &b
			}
		}
	}
}
