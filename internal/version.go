package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Name used for the binary, the log group, and path components.
const Name = "forged"

const (

	// Placeholder for variables that were never set.
	defaultUndefined = "(undefined)"

	// Version string reported by builds made outside the release pipeline.
	defaultLocalBuild = "(local)"

	// Branch whose name is omitted from version strings.
	mainBranch = "main"
)

var (
	version   = "" // Release version (e.g., "0.3.1").
	stage     = "" // Git branch the release was cut from.
	gitCommit = "" // Git commit hash.
)

// Returns the release version with any "v" prefix stripped, or "(undefined)"
// when the version was not set at link time.
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		return defaultUndefined
	}

	v = strings.ToLower(v)
	v = strings.TrimPrefix(v, "v")

	return v
}

// Returns the release stage (branch name), or "(undefined)" when unset.
func Stage() string {
	s := strings.TrimSpace(stage)
	if s == "" {
		return defaultUndefined
	}
	return strings.ToLower(s)
}

// Returns the git commit hash, or "(undefined)" when unset.
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Returns the build architecture.
func Arch() string {
	return runtime.GOARCH
}

// Reports whether this binary was built outside the release pipeline.
//
// Pipeline builds set version, stage, and gitCommit via linker flags; a
// build missing any of them is considered local.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(gitCommit) == "" ||
		strings.TrimSpace(stage) == ""
}

// Returns a detailed version string.
//
// Local builds report "(local)". Pipeline builds report
// "<version>+<stage> <git-commit> [<arch>]", with the stage omitted for the
// main branch.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	s := Stage()
	if s == mainBranch {
		s = ""
	} else {
		s = "+" + s
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), s, GitCommit(), Arch())
}
