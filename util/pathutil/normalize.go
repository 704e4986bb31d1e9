package pathutil

import "strings"

// NormalizeCwd strips trailing slashes from a working directory.
// The root "/" is preserved as-is.
func NormalizeCwd(cwd string) string {
	if cwd == "/" {
		return cwd
	}
	trimmed := strings.TrimRight(cwd, "/")
	if trimmed == "" && cwd != "" {
		return "/"
	}
	return trimmed
}

// IsWithin reports whether path equals dir or lies below it on a directory boundary.
// Both arguments are expected to be normalized.
func IsWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	if dir == "/" {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, dir+"/")
}
