package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindLatestLogFile finds the most recently modified log in dir. When
// component is set only "<component>-*.log" files are considered.
// Non-empty files are preferred over empty ones.
func FindLatestLogFile(dir, component string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not read log directory %s: %w", dir, err)
	}

	var (
		latestPath, latestNonEmptyPath string
		latestTime, latestNonEmptyTime time.Time
	)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		if component != "" && !strings.HasPrefix(entry.Name(), component+"-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if latestPath == "" || info.ModTime().After(latestTime) {
			latestPath, latestTime = path, info.ModTime()
		}
		if info.Size() > 0 && (latestNonEmptyPath == "" || info.ModTime().After(latestNonEmptyTime)) {
			latestNonEmptyPath, latestNonEmptyTime = path, info.ModTime()
		}
	}

	if latestNonEmptyPath != "" {
		return latestNonEmptyPath, nil
	}
	if latestPath != "" {
		return latestPath, nil
	}
	return "", fmt.Errorf("no log files found in %s", dir)
}
