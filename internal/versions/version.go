// Package versions exposes build metadata injected at link time.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Set via -ldflags "-X github.com/einvoice-sync/lhdn-sync-server/internal/versions.Version=..."
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

const unknown = "unknown"

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns build metadata, filling gaps from the embedded build info
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   NormalizeVersion(Version),
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}

	if info.Commit == "" {
		info.Commit = unknown
	}
	if info.BuildDate == "" {
		info.BuildDate = unknown
	}
	return info
}

// NormalizeVersion renders a semantic version with a leading "v".
// Values that are not semver are returned trimmed but otherwise unchanged.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return v
	}
	return "v" + parsed.String()
}

// IsRelease reports whether the version is a semver release without a prerelease tag
func (i VersionInfo) IsRelease() bool {
	parsed, err := semver.NewVersion(i.Version)
	if err != nil {
		return false
	}
	return parsed.Prerelease() == ""
}
