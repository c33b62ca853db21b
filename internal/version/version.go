// Package version carries the build metadata stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
)

// Overridden at build time:
//
//	go build -ldflags "-X github.com/soyeahso/annobot/internal/version.Version=0.3.0 \
//	  -X github.com/soyeahso/annobot/internal/version.Commit=$(git rev-parse HEAD) \
//	  -X github.com/soyeahso/annobot/internal/version.Date=$(date -u +%F)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Build is the structured form of the stamped metadata, as reported by status.
type Build struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Date     string `json:"date"`
	Platform string `json:"platform"`
}

// Current returns the metadata of the running binary.
func Current() Build {
	return Build{
		Version:  Version,
		Commit:   abbrev(Commit),
		Date:     Date,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Info returns a one-line description for `annobot version`.
func Info() string {
	b := Current()
	return fmt.Sprintf("annobot %s (commit %s, built %s, %s)", b.Version, b.Commit, b.Date, b.Platform)
}

func abbrev(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
