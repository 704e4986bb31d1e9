// Package paths provides XDG-compliant path resolution for ludics.
//
// Resolution order:
// 1. LUDICS_HOME (portable root) → $LUDICS_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/ludics
// 3. Platform defaults → ~/.config/ludics, ~/.local/state/ludics, ~/.cache/ludics
package paths

import (
	"os"
	"path/filepath"
)

const appName = "ludics"

// baseDir resolves one XDG base directory.
func baseDir(portable, xdgVar string, fallback ...string) string {
	if home := os.Getenv("LUDICS_HOME"); home != "" {
		return filepath.Join(home, portable)
	}
	if dir := os.Getenv(xdgVar); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, fallback...)...)
	}
	return ""
}

// ConfigDir returns the ludics configuration directory.
// The pointer config.yaml lives here.
func ConfigDir() string {
	base := baseDir("config", "XDG_CONFIG_HOME", ".config")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the ludics state directory.
// Used for logs.
func StateDir() string {
	base := baseDir("state", "XDG_STATE_HOME", ".local", "state")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// CacheDir returns the ludics cache directory.
func CacheDir() string {
	base := baseDir("cache", "XDG_CACHE_HOME", ".cache")
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// LogsDir returns the directory holding per-component log files.
func LogsDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// EnsureDirs creates all ludics directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), CacheDir(), LogsDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
