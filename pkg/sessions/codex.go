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

// codexRecord is the envelope of every line in a codex rollout log.
type codexRecord struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// codexSessionMeta is the session_meta payload. Fields stay raw so one
// oddly typed value does not discard the rest.
type codexSessionMeta struct {
	ID            json.RawMessage `json:"id"`
	Cwd           json.RawMessage `json:"cwd"`
	Source        json.RawMessage `json:"source"`
	CLIVersion    json.RawMessage `json:"cli_version"`
	ModelProvider json.RawMessage `json:"model_provider"`
}

// codexLooseRecord covers older and non-meta records that may still carry a cwd.
type codexLooseRecord struct {
	ID               json.RawMessage `json:"id"`
	Cwd              json.RawMessage `json:"cwd"`
	Workdir          json.RawMessage `json:"workdir"`
	WorkingDirectory json.RawMessage `json:"workingDirectory"`
	Source           json.RawMessage `json:"source"`
	Payload          json.RawMessage `json:"payload"`
}

type codexLoosePayload struct {
	ID     json.RawMessage `json:"id"`
	Cwd    json.RawMessage `json:"cwd"`
	Source json.RawMessage `json:"source"`
}

// CodexDiscoverer scans $CODEX_HOME/sessions/**/*.jsonl rollout logs.
type CodexDiscoverer struct {
	cfg DiscoveryConfig
	log *logrus.Entry
}

// NewCodexDiscoverer creates a codex log discoverer.
func NewCodexDiscoverer(cfg DiscoveryConfig, log *logrus.Entry) *CodexDiscoverer {
	return &CodexDiscoverer{cfg: cfg.WithDefaults(), log: log}
}

func (d *CodexDiscoverer) Name() models.AgentType { return models.AgentCodex }

// SessionsDir is the directory tree holding rollout logs.
func (d *CodexDiscoverer) SessionsDir() string {
	return filepath.Join(d.cfg.CodexHome, "sessions")
}

func (d *CodexDiscoverer) Discover(ctx context.Context) ([]models.DiscoveredSession, error) {
	dir := d.SessionsDir()
	if _, err := os.Stat(dir); err != nil {
		d.log.WithField("dir", dir).Debug("codex sessions directory not found")
		return []models.DiscoveredSession{}, nil
	}

	now := d.cfg.Now().Unix()
	threshold := d.cfg.staleSeconds()

	return scanFiles(ctx, walkJSONL(dir), d.cfg.ScanConcurrency, func(file string) (models.DiscoveredSession, bool) {
		mtime, ok := mtimeEpoch(file)
		if !ok || isStale(now, mtime, threshold) {
			return models.DiscoveredSession{}, false
		}
		lines, err := readFirstLines(file, d.cfg.MaxScanLines)
		if err != nil && len(lines) == 0 {
			d.log.WithError(err).WithField("file", file).Debug("skipping unreadable codex log")
			return models.DiscoveredSession{}, false
		}
		s, ok := parseCodexLines(file, lines)
		if !ok {
			d.log.WithField("file", file).Debug("no cwd in codex log")
			return s, false
		}
		s.LastActivityEpoch = mtime
		return s, true
	})
}

// parseCodexLines extracts a session from the head of a rollout log. The
// session_meta record on the first line wins; otherwise any record exposing a
// working directory is used.
func parseCodexLines(file string, lines []string) (models.DiscoveredSession, bool) {
	if len(lines) == 0 {
		return models.DiscoveredSession{}, false
	}

	var (
		id, cwd string
		source  = models.SourceUnknown
		meta    = models.SessionMeta{File: file}
	)

	if m, ok := parseCodexSessionMeta(lines[0]); ok && rawString(m.Cwd) != "" {
		id = rawID(m.ID)
		cwd = rawString(m.Cwd)
		source = sourceKind(m.Source)
		meta.CLIVersion = rawString(m.CLIVersion)
		meta.ModelProvider = rawString(m.ModelProvider)
	} else if fid, fcwd, fsource, ok := parseCodexFallback(lines); ok {
		id = fid
		cwd = fcwd
		source = fsource
	}

	if cwd == "" {
		return models.DiscoveredSession{}, false
	}
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(file), ".jsonl")
	}

	norm := pathutil.NormalizeCwd(cwd)
	return models.DiscoveredSession{
		AgentType:     models.AgentCodex,
		Cwd:           norm,
		CwdNormalized: norm,
		SessionID:     id,
		Source:        source,
		Meta:          meta,
	}, true
}

func parseCodexSessionMeta(line string) (codexSessionMeta, bool) {
	var rec codexRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return codexSessionMeta{}, false
	}
	if rec.Type != "session_meta" || len(rec.Payload) == 0 {
		return codexSessionMeta{}, false
	}
	var m codexSessionMeta
	if err := json.Unmarshal(rec.Payload, &m); err != nil {
		return codexSessionMeta{}, false
	}
	return m, true
}

func parseCodexFallback(lines []string) (id, cwd string, source models.SourceKind, ok bool) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec codexLooseRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		var payload codexLoosePayload
		if len(rec.Payload) > 0 && rec.Payload[0] == '{' {
			_ = json.Unmarshal(rec.Payload, &payload)
		}

		cwd = firstNonEmpty(rawString(rec.Cwd), rawString(payload.Cwd), rawString(rec.Workdir), rawString(rec.WorkingDirectory))
		if cwd == "" {
			continue
		}
		id = firstNonEmpty(rawID(rec.ID), rawID(payload.ID))
		source = sourceKind(rec.Source)
		if source == models.SourceUnknown {
			source = sourceKind(payload.Source)
		}
		return id, cwd, source, true
	}
	return "", "", models.SourceUnknown, false
}

// sourceKind reads a provenance tag. Structured sources such as subagent
// descriptors are reported as unknown.
func sourceKind(raw json.RawMessage) models.SourceKind {
	if s := rawString(raw); s != "" {
		return models.SourceKind(s)
	}
	return models.SourceUnknown
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
