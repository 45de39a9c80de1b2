// Package version reports the build of the running binary.
//
// Version and Commit are set with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/careerauth/version.Version=1.2.0" ./cmd/careerauth
//
// When Commit is not set, the VCS revision recorded by the Go toolchain is used.
package version

import (
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
)

// Info is the build description.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
}

// Get returns the build description, filling gaps from debug.ReadBuildInfo.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// String renders the build as version[-commit][-dirty].
func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Dirty {
		s += "-dirty"
	}
	return s
}
