package sessions

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/util/pathutil"
	"github.com/sirupsen/logrus"
)

const claudeIndexFile = "sessions-index.json"

type claudeIndex struct {
	Entries []claudeIndexEntry `json:"entries"`
}

type claudeIndexEntry struct {
	SessionID    string  `json:"sessionId"`
	GitBranch    *string `json:"gitBranch"`
	Summary      *string `json:"summary"`
	MessageCount *int    `json:"messageCount"`
	IsSidechain  *bool   `json:"isSidechain"`
}

type claudeLine struct {
	Cwd       string `json:"cwd"`
	SessionID string `json:"sessionId"`
}

// ClaudeDiscoverer scans <projects>/<project>/*.jsonl Claude Code transcripts.
type ClaudeDiscoverer struct {
	cfg DiscoveryConfig
	log *logrus.Entry
}

// NewClaudeDiscoverer creates a Claude Code transcript discoverer.
func NewClaudeDiscoverer(cfg DiscoveryConfig, log *logrus.Entry) *ClaudeDiscoverer {
	return &ClaudeDiscoverer{cfg: cfg.WithDefaults(), log: log}
}

func (d *ClaudeDiscoverer) Name() models.AgentType { return models.AgentClaudeCode }

func (d *ClaudeDiscoverer) Discover(ctx context.Context) ([]models.DiscoveredSession, error) {
	entries, err := os.ReadDir(d.cfg.ClaudeProjectsDir)
	if err != nil {
		d.log.WithField("dir", d.cfg.ClaudeProjectsDir).Debug("claude projects directory not readable")
		return []models.DiscoveredSession{}, nil
	}

	var files []string
	indexFor := make(map[string]map[string]models.SessionMeta)
	for _, entry := range entries {
		projectDir := filepath.Join(d.cfg.ClaudeProjectsDir, entry.Name())
		if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
			continue
		}
		jsonl, err := os.ReadDir(projectDir)
		if err != nil {
			continue
		}
		index := loadClaudeIndex(filepath.Join(projectDir, claudeIndexFile), d.log)
		for _, f := range jsonl {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			path := filepath.Join(projectDir, f.Name())
			files = append(files, path)
			indexFor[path] = index
		}
	}

	now := d.cfg.Now().Unix()
	threshold := d.cfg.staleSeconds()

	return scanFiles(ctx, files, d.cfg.ScanConcurrency, func(file string) (models.DiscoveredSession, bool) {
		mtime, ok := mtimeEpoch(file)
		if !ok || isStale(now, mtime, threshold) {
			return models.DiscoveredSession{}, false
		}
		lines, err := readFirstLines(file, d.cfg.MaxScanLines)
		if err != nil && len(lines) == 0 {
			d.log.WithError(err).WithField("file", file).Debug("skipping unreadable claude transcript")
			return models.DiscoveredSession{}, false
		}
		s, ok := parseClaudeLines(file, lines)
		if !ok {
			return s, false
		}
		s.LastActivityEpoch = mtime
		if meta, found := indexFor[file][s.SessionID]; found {
			s.Meta = meta
		}
		return s, true
	})
}

// parseClaudeLines takes the first entry carrying a cwd, conventionally the
// root entry of the transcript.
func parseClaudeLines(file string, lines []string) (models.DiscoveredSession, bool) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry claudeLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Cwd == "" {
			continue
		}
		id := entry.SessionID
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(file), ".jsonl")
		}
		norm := pathutil.NormalizeCwd(entry.Cwd)
		return models.DiscoveredSession{
			AgentType:     models.AgentClaudeCode,
			Cwd:           norm,
			CwdNormalized: norm,
			SessionID:     id,
			Source:        models.SourceUnknown,
		}, true
	}
	return models.DiscoveredSession{}, false
}

// loadClaudeIndex reads the optional sessions-index.json sidecar. A missing or
// corrupt index yields an empty lookup.
func loadClaudeIndex(path string, log *logrus.Entry) map[string]models.SessionMeta {
	lookup := make(map[string]models.SessionMeta)
	data, err := os.ReadFile(path)
	if err != nil {
		return lookup
	}
	var index claudeIndex
	if err := json.Unmarshal(data, &index); err != nil {
		log.WithError(err).WithField("file", path).Debug("ignoring corrupt sessions index")
		return lookup
	}
	for _, e := range index.Entries {
		if e.SessionID == "" {
			continue
		}
		sidechain := false
		if e.IsSidechain != nil {
			sidechain = *e.IsSidechain
		}
		meta := models.SessionMeta{
			MessageCount: e.MessageCount,
			IsSidechain:  &sidechain,
		}
		if e.GitBranch != nil {
			meta.GitBranch = *e.GitBranch
		}
		if e.Summary != nil {
			meta.Summary = *e.Summary
		}
		lookup[e.SessionID] = meta
	}
	return lookup
}
