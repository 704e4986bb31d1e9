package sessions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) DiscoveryConfig {
	t.Helper()
	root := t.TempDir()
	return DiscoveryConfig{
		StaleThreshold:    24 * time.Hour,
		CodexHome:         filepath.Join(root, "codex"),
		ClaudeProjectsDir: filepath.Join(root, "claude", "projects"),
		Now:               testutil.FixedClock(testNow),
	}
}

func TestCodexDiscoverSessionMeta(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(cfg.CodexHome, "sessions", "2026", "03", "14", "rollout-2026-03-14T11-00-00-abc.jsonl")
	testutil.WriteJSONL(t, file, testNow, testutil.CodexSessionMeta("abc", "/home/u/proj", "cli"))

	d := NewCodexDiscoverer(cfg, testutil.DiscardLogger())
	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, models.AgentCodex, s.AgentType)
	assert.Equal(t, "/home/u/proj", s.Cwd)
	assert.Equal(t, "/home/u/proj", s.CwdNormalized)
	assert.Equal(t, "abc", s.SessionID)
	assert.Equal(t, models.SourceCLI, s.Source)
	assert.Equal(t, testNow.Unix(), s.LastActivityEpoch)
	assert.Equal(t, "0.46.0", s.Meta.CLIVersion)
	assert.Equal(t, "openai", s.Meta.ModelProvider)
	assert.Equal(t, file, s.Meta.File)
}

func TestCodexDiscoverSkipsStaleFiles(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.CodexHome, "sessions", "2026", "03")
	testutil.WriteJSONL(t, filepath.Join(dir, "fresh.jsonl"), testNow.Add(-time.Hour),
		testutil.CodexSessionMeta("fresh", "/p/fresh", "cli"))
	testutil.WriteJSONL(t, filepath.Join(dir, "old.jsonl"), testNow.Add(-25*time.Hour),
		testutil.CodexSessionMeta("old", "/p/old", "cli"))

	got, err := NewCodexDiscoverer(cfg, testutil.DiscardLogger()).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].SessionID)
}

func TestCodexDiscoverMissingDir(t *testing.T) {
	cfg := testConfig(t)
	got, err := NewCodexDiscoverer(cfg, testutil.DiscardLogger()).Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseCodexLines(t *testing.T) {
	file := "/logs/rollout-xyz.jsonl"

	t.Run("fallback scans later lines", func(t *testing.T) {
		lines := []string{
			`not json`,
			`{"type":"event_msg","payload":{"type":"token_count"}}`,
			`{"type":"turn_context","payload":{"cwd":"/home/u/work/","id":"p-1","source":"vscode"}}`,
		}
		s, ok := parseCodexLines(file, lines)
		require.True(t, ok)
		assert.Equal(t, "/home/u/work", s.Cwd)
		assert.Equal(t, "p-1", s.SessionID)
		assert.Equal(t, models.SourceVSCode, s.Source)
		assert.Equal(t, file, s.Meta.File)
		assert.Empty(t, s.Meta.CLIVersion)
	})

	t.Run("workdir key", func(t *testing.T) {
		s, ok := parseCodexLines(file, []string{`{"workdir":"/srv/app"}`})
		require.True(t, ok)
		assert.Equal(t, "/srv/app", s.Cwd)
		assert.Equal(t, "rollout-xyz", s.SessionID)
		assert.Equal(t, models.SourceUnknown, s.Source)
	})

	t.Run("workingDirectory key", func(t *testing.T) {
		s, ok := parseCodexLines(file, []string{`{"id":"w","workingDirectory":"/srv/w"}`})
		require.True(t, ok)
		assert.Equal(t, "/srv/w", s.Cwd)
		assert.Equal(t, "w", s.SessionID)
	})

	t.Run("session_meta without id uses file name", func(t *testing.T) {
		s, ok := parseCodexLines(file, []string{`{"type":"session_meta","payload":{"cwd":"/p"}}`})
		require.True(t, ok)
		assert.Equal(t, "rollout-xyz", s.SessionID)
		assert.Equal(t, models.SourceUnknown, s.Source)
	})

	t.Run("structured source is unknown", func(t *testing.T) {
		s, ok := parseCodexLines(file, []string{`{"type":"session_meta","payload":{"id":"a","cwd":"/p","source":{"subagent":"review"}}}`})
		require.True(t, ok)
		assert.Equal(t, models.SourceUnknown, s.Source)
	})

	t.Run("numeric session_meta id", func(t *testing.T) {
		s, ok := parseCodexLines(file, []string{`{"type":"session_meta","payload":{"id":42,"cwd":"/home/u/proj","cli_version":"1.0"}}`})
		require.True(t, ok)
		assert.Equal(t, "42", s.SessionID)
		assert.Equal(t, "/home/u/proj", s.Cwd)
		assert.Equal(t, "1.0", s.Meta.CLIVersion)
	})

	t.Run("numeric fallback id", func(t *testing.T) {
		s, ok := parseCodexLines(file, []string{`{"id":7,"cwd":"/srv/n"}`})
		require.True(t, ok)
		assert.Equal(t, "7", s.SessionID)
	})

	t.Run("root cwd preserved", func(t *testing.T) {
		s, ok := parseCodexLines(file, []string{`{"type":"session_meta","payload":{"id":"a","cwd":"/"}}`})
		require.True(t, ok)
		assert.Equal(t, "/", s.CwdNormalized)
	})

	t.Run("no cwd is dropped", func(t *testing.T) {
		_, ok := parseCodexLines(file, []string{`{"type":"session_meta","payload":{"id":"a"}}`, `{"foo":1}`})
		assert.False(t, ok)
	})

	t.Run("empty file is dropped", func(t *testing.T) {
		_, ok := parseCodexLines(file, nil)
		assert.False(t, ok)
	})
}

func TestCodexDiscoverOnlyScansFirstLines(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxScanLines = 3
	records := []interface{}{`{"type":"event_msg"}`, `{"type":"event_msg"}`, `{"type":"event_msg"}`, `{"cwd":"/too/late"}`}
	testutil.WriteJSONL(t, filepath.Join(cfg.CodexHome, "sessions", "late.jsonl"), testNow, records...)

	got, err := NewCodexDiscoverer(cfg, testutil.DiscardLogger()).Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCodexDiscoverKeepsWalkOrder(t *testing.T) {
	cfg := testConfig(t)
	cfg.ScanConcurrency = 2
	dir := filepath.Join(cfg.CodexHome, "sessions")
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		testutil.WriteJSONL(t, filepath.Join(dir, id+".jsonl"), testNow, testutil.CodexSessionMeta(id, "/p/"+id, "exec"))
	}

	got, err := NewCodexDiscoverer(cfg, testutil.DiscardLogger()).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, got[i].SessionID)
	}
}
