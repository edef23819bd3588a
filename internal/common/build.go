package common

import (
	"fmt"
	"runtime/debug"
)

const AppName = "console"

// Version and GitCommit are set via ldflags for release builds.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func GetModuleBuildInfo() (string, string, bool) {
	if Version != "dev" {
		return Version, GitCommit, true
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", "", false
	}

	gitCommit := GitCommit
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			gitCommit = setting.Value
			break
		}
	}

	return info.Main.Version, gitCommit, true
}

func GetVersion() string {
	version, gitCommit, ok := GetModuleBuildInfo()
	if !ok {
		return "unknown"
	}
	if len(gitCommit) > 8 {
		gitCommit = gitCommit[:8]
	}
	return fmt.Sprintf("%s (git: %s)", version, gitCommit)
}

// UserAgent is sent with every request to the remote API.
func UserAgent() string {
	version, _, ok := GetModuleBuildInfo()
	if !ok || len(version) == 0 {
		version = "unknown"
	}
	return fmt.Sprintf("%s/%s", AppName, version)
}
