// Package versioning carries the build identity served by the /version
// endpoint.
package versioning

import "runtime"

// Info describes the running build. The fields come from ldflags at build
// time; defaults identify a local build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

// NewInfo fills in the runtime Go version alongside the injected build
// metadata.
func NewInfo(version, gitCommit, buildTime string) Info {
	if version == "" {
		version = "dev"
	}
	return Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}
