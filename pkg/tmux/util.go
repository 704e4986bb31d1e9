package tmux

import (
	"regexp"
	"strings"
)

var attachTargetPattern = regexp.MustCompile(`tmux\s+attach\S*\s+-t\s+(\S+)`)

// AttachTarget extracts the session name from a command line that runs
// `tmux attach[-session] -t <name>`. It returns "" when there is none.
func AttachTarget(commandLine string) string {
	m := attachTargetPattern.FindStringSubmatch(commandLine)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `"'`)
}
