// Package sessions discovers running agent sessions, merges them per working
// directory and classifies them against slot paths.
package sessions

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/grovetools/ludics/pkg/models"
)

const (
	// DefaultMaxScanLines bounds how far into a JSONL log discoverers look for metadata.
	DefaultMaxScanLines = 20

	// DefaultScanConcurrency limits concurrent file scans per discoverer.
	DefaultScanConcurrency = 8

	// DefaultMarkerDir is the orchestration marker directory name.
	DefaultMarkerDir = ".peer-sync"

	// DefaultDiscovererTimeout is the wall-clock budget for a single discoverer.
	DefaultDiscovererTimeout = 5 * time.Second

	// DefaultStaleThreshold marks sessions idle for a day as stale.
	DefaultStaleThreshold = 24 * time.Hour

	// UnknownCwd is the cwd recorded for ttyd processes whose directory cannot be resolved.
	UnknownCwd = "unknown"
)

// Discoverer produces raw sessions from one source. Implementations return an
// empty list, not an error, when their tool is missing or nothing is running.
type Discoverer interface {
	Name() models.AgentType
	Discover(ctx context.Context) ([]models.DiscoveredSession, error)
}

// DiscoveryConfig carries everything the pipeline needs. The pipeline never
// reads configuration or environment on its own.
type DiscoveryConfig struct {
	StaleThreshold    time.Duration
	SlotPaths         []models.SlotPath
	CodexHome         string
	ClaudeProjectsDir string
	MarkerDir         string
	DiscovererTimeout time.Duration

	// Ignore holds glob patterns; sessions whose cwd matches are dropped.
	Ignore []string
	// Disabled skips these discoverers entirely.
	Disabled []models.AgentType

	MaxScanLines    int
	ScanConcurrency int

	// Now is the clock; tests pin it.
	Now func() time.Time
}

// WithDefaults fills zero fields with their defaults.
func (c DiscoveryConfig) WithDefaults() DiscoveryConfig {
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = DefaultStaleThreshold
	}
	home, _ := os.UserHomeDir()
	if c.CodexHome == "" {
		c.CodexHome = filepath.Join(home, ".codex")
	}
	if c.ClaudeProjectsDir == "" {
		c.ClaudeProjectsDir = filepath.Join(home, ".claude", "projects")
	}
	if c.MarkerDir == "" {
		c.MarkerDir = DefaultMarkerDir
	}
	if c.DiscovererTimeout <= 0 {
		c.DiscovererTimeout = DefaultDiscovererTimeout
	}
	if c.MaxScanLines <= 0 {
		c.MaxScanLines = DefaultMaxScanLines
	}
	if c.ScanConcurrency <= 0 {
		c.ScanConcurrency = DefaultScanConcurrency
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.SlotPaths == nil {
		c.SlotPaths = []models.SlotPath{}
	}
	return c
}

// IsDisabled reports whether the discoverer for agent is switched off.
func (c DiscoveryConfig) IsDisabled(agent models.AgentType) bool {
	for _, d := range c.Disabled {
		if d == agent {
			return true
		}
	}
	return false
}

// staleSeconds is the threshold in whole seconds.
func (c DiscoveryConfig) staleSeconds() int64 {
	return int64(c.StaleThreshold / time.Second)
}

// isStale applies the strict "older than threshold" comparison.
func isStale(now, epoch, thresholdSeconds int64) bool {
	return now-epoch > thresholdSeconds
}
