// Package version reports build information for the kairos binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
	arrowModule      = "github.com/apache/arrow-go/v18"
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains build information
type BuildInfo struct {
	Version      string `json:"version"`
	BuildDate    string `json:"build_date"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	ArrowVersion string `json:"arrow_version"`
	Dirty        bool   `json:"dirty"`
	Release      bool   `json:"release"`
	Module       string `json:"module"`
}

// Info returns build information. The Arrow version comes from the
// module dependencies embedded in the binary.
func Info() BuildInfo {
	info := BuildInfo{
		Version:      Version,
		BuildDate:    BuildDate,
		GitCommit:    GitCommit,
		GoVersion:    GoVersion,
		ArrowVersion: unknownValue,
		Dirty:        strings.HasSuffix(GitCommit, "-dirty"),
		Release:      IsRelease(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Module = bi.Main.Path
		for _, dep := range bi.Deps {
			if dep.Path == arrowModule {
				info.ArrowVersion = dep.Version
			}
		}
	}
	return info
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "kairos %s", b.Version)
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		fmt.Fprintf(&sb, "Build Date: %s\n", b.BuildDate)
	}
	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		fmt.Fprintf(&sb, "Git Commit: %s\n", commit)
	}
	fmt.Fprintf(&sb, "Go Version: %s\n", b.GoVersion)
	fmt.Fprintf(&sb, "Arrow: %s\n", b.ArrowVersion)
	return sb.String()
}

// IsRelease reports whether this is a tagged release build
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
