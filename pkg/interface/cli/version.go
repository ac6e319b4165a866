package cli

import (
	"fmt"
	"strings"
)

var (
	// Version is the current version of the program, set with -ldflags
	Version = "dev"
	// CommitHash is the current commit hash of the program
	CommitHash = "none"
	// BuildTime is the current build time of the program
	BuildTime = "unknown"
)

// ProgramVersion is the version object of the program
type ProgramVersion struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
}

// CurrentVersion returns the version baked into the binary
func CurrentVersion() ProgramVersion {
	return ProgramVersion{Version: Version, CommitHash: CommitHash, BuildTime: BuildTime}
}

// Short returns the short version of the program
func (v ProgramVersion) Short() string {
	return fmt.Sprintf("v%s-%s-%s", strings.TrimPrefix(v.Version, "v"), v.CommitHash, v.BuildTime)
}

// String returns the verbose version of the program
func (v ProgramVersion) String() string {
	var b strings.Builder
	b.WriteString("domain-prioritizer\n")
	fmt.Fprintf(&b, "Version: v%s\n", strings.TrimPrefix(v.Version, "v"))
	fmt.Fprintf(&b, "Commit: %s\n", v.CommitHash)
	fmt.Fprintf(&b, "Build Date: %s", v.BuildTime)
	return b.String()
}
