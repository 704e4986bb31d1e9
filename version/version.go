// Package version carries build metadata stamped in with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/grovetools/ludics/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "none"
	Branch    = "unknown"
	BuildDate = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the stamped metadata plus the Go runtime's.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsDev reports whether the binary was built without a release tag.
func (i Info) IsDev() bool {
	return i.Version == "" || i.Version == "dev"
}

// Format renders the aligned multi-line block printed by `ludics version`.
func (i Info) Format(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", name, i.Version)
	fmt.Fprintf(&b, "  Commit:    %s\n", i.Commit)
	fmt.Fprintf(&b, "  Branch:    %s\n", i.Branch)
	fmt.Fprintf(&b, "  Built:     %s\n", i.BuildDate)
	fmt.Fprintf(&b, "  Go:        %s\n", i.GoVersion)
	fmt.Fprintf(&b, "  Platform:  %s\n", i.Platform)
	return b.String()
}
