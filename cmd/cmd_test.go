package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/ludics/errors"
	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/pkg/sessions"
	"github.com/grovetools/ludics/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedDiscoverer struct {
	name     models.AgentType
	sessions []models.DiscoveredSession
}

func (d fixedDiscoverer) Name() models.AgentType { return d.name }

func (d fixedDiscoverer) Discover(context.Context) ([]models.DiscoveredSession, error) {
	return d.sessions, nil
}

// harness is an isolated HOME with a config pointing at $HOME/state/harness.
type harness struct {
	home       string
	configPath string
	dir        string
}

func setupHarness(t *testing.T, withConfig bool) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LUDICS_HOME", filepath.Join(home, ".ludics"))
	t.Setenv("LUDICS_LOG_LEVEL", "error")
	t.Setenv("CODEX_HOME", "")
	t.Setenv("CLAUDE_PROJECTS_DIR", "")
	t.Setenv("SESSIONS_STALE_THRESHOLD", "")

	h := &harness{
		home:       home,
		configPath: filepath.Join(home, "config.yaml"),
		dir:        filepath.Join(home, "state", "harness"),
	}
	t.Setenv("LUDICS_CONFIG", h.configPath)
	if withConfig {
		testutil.WriteFile(t, h.configPath, "state_repo: me/state\n")
		testutil.WriteFile(t, filepath.Join(h.dir, "slots.md"), strings.Join([]string{
			"# Slots",
			"",
			"## Slot 1",
			"**Mode:** pair",
			"**Path:** /work/api",
			"",
			"## Slot 2",
			"**Mode:** (empty)",
			"",
		}, "\n"))
	}

	now := time.Now().Unix()
	pipelineOptions = []sessions.Option{sessions.WithDiscoverers(
		fixedDiscoverer{name: models.AgentCodex, sessions: []models.DiscoveredSession{{
			AgentType: models.AgentCodex, Cwd: "/work/api", CwdNormalized: "/work/api",
			SessionID: "codex-1", Source: models.SourceCLI, LastActivityEpoch: now - 60,
		}}},
		fixedDiscoverer{name: models.AgentTmux, sessions: []models.DiscoveredSession{{
			AgentType: models.AgentTmux, Cwd: "/tmp/scratch", CwdNormalized: "/tmp/scratch",
			SessionID: "tmux:scratch", Source: models.SourceUnknown, LastActivityEpoch: now - 30,
			Meta: models.SessionMeta{TmuxSession: "scratch"},
		}}},
	)}
	t.Cleanup(func() { pipelineOptions = nil })
	return h
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSessionsSummary(t *testing.T) {
	setupHarness(t, true)

	out, _, err := execute(t, "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "Sessions: 2 total (1 codex, 1 tmux)")
	assert.Contains(t, out, "Classified: 1 | Unclassified: 1")
	assert.Contains(t, out, "Slot 1: codex /work/api (codex-1)")
	assert.Contains(t, out, "tmux: /tmp/scratch (tmux:scratch)")
}

func TestSessionsWithoutConfigUsesDefaults(t *testing.T) {
	setupHarness(t, false)

	out, _, err := execute(t, "sessions", "--json")
	require.NoError(t, err)

	var result models.DiscoveryResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Classified)
	assert.Len(t, result.Unclassified, 2)
	assert.Equal(t, 24.0, result.StaleAfterHours)
}

func TestSessionsReport(t *testing.T) {
	h := setupHarness(t, true)

	out, errOut, err := execute(t, "sessions", "report")
	require.NoError(t, err)

	reportPath := filepath.Join(h.dir, "sessions.md")
	jsonPath := filepath.Join(h.dir, "sessions.json")
	assert.Contains(t, out, "Classified: 1 | Unclassified: 1")
	assert.True(t, strings.HasSuffix(out, reportPath+"\n"))
	assert.Contains(t, errOut, "ludics: sessions report written to "+reportPath)
	assert.Contains(t, errOut, "ludics: sessions JSON written to "+jsonPath)

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "### codex — /work/api")
	assert.Contains(t, string(md), "Operator action needed.")

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var result models.DiscoveryResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, []models.SlotPath{{Slot: 1, Path: "/work/api"}}, result.Slots)
}

func TestSessionsRefresh(t *testing.T) {
	h := setupHarness(t, true)

	_, errOut, err := execute(t, "sessions", "refresh")
	require.NoError(t, err)
	assert.Contains(t, errOut, "ludics: sessions refreshed")
	assert.FileExists(t, filepath.Join(h.dir, "sessions.md"))
}

func TestSessionsReportRequiresConfig(t *testing.T) {
	setupHarness(t, false)

	_, _, err := execute(t, "sessions", "report")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestSessionsShow(t *testing.T) {
	setupHarness(t, true)

	out, _, err := execute(t, "sessions", "show", "scratch")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tmux [unclassified] — /tmp/scratch\n"))
	assert.NotContains(t, out, "/work/api")

	out, _, err = execute(t, "sessions", "show", "nothing-matches")
	require.NoError(t, err)
	assert.Equal(t, "No sessions matching \"nothing-matches\"\n", out)
}

func TestSessionsUnknownSubcommand(t *testing.T) {
	setupHarness(t, true)

	_, _, err := execute(t, "sessions", "bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.Contains(t, err.Error(), "unknown sessions subcommand: bogus (use: report, refresh, show [filter], or omit for summary; add --json for JSON output)")
}

func TestSessionsSchema(t *testing.T) {
	setupHarness(t, false)

	out, _, err := execute(t, "sessions", "schema")
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, out, "unclassified")
}

func TestSessionsInvalidIgnorePattern(t *testing.T) {
	h := setupHarness(t, false)
	testutil.WriteFile(t, h.configPath, "sessions:\n  ignore:\n    - \"[\"\n")

	_, _, err := execute(t, "sessions")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestDiscoveryConfigFromConfig(t *testing.T) {
	h := setupHarness(t, false)
	testutil.WriteFile(t, h.configPath, strings.Join([]string{
		"sessions:",
		"  stale_threshold_seconds: 3600",
		"  discoverer_timeout: 2s",
		"  codex_home: ~/codex",
		"  disabled_sources: [ttyd]",
		"  ignore: [\"/tmp/**\"]",
		"",
	}, "\n"))

	root := NewRootCmd()
	root.SetArgs([]string{"sessions"})
	sessionsCmd, _, err := root.Find([]string{"sessions"})
	require.NoError(t, err)

	env, err := loadSessionsEnv(sessionsCmd, false)
	require.NoError(t, err)
	dc := env.discovery
	assert.Equal(t, time.Hour, dc.StaleThreshold)
	assert.Equal(t, 2*time.Second, dc.DiscovererTimeout)
	assert.Equal(t, filepath.Join(h.home, "codex"), dc.CodexHome)
	assert.Equal(t, filepath.Join(h.home, ".claude", "projects"), dc.ClaudeProjectsDir)
	assert.Equal(t, []models.AgentType{models.AgentTtyd}, dc.Disabled)
	assert.Equal(t, []string{"/tmp/**"}, dc.Ignore)
	assert.Empty(t, dc.SlotPaths, "harness has no slots.md")
}

func TestConfigShowAndValidate(t *testing.T) {
	h := setupHarness(t, true)

	out, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+h.configPath)
	assert.Contains(t, out, "state_repo: me/state")

	out, _, err = execute(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := filepath.Join(h.home, "bad.yaml")
	testutil.WriteFile(t, bad, "slots:\n  count: many\n")
	_, _, err = execute(t, "config", "validate", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))
}

func TestPathsCommand(t *testing.T) {
	h := setupHarness(t, true)

	out, _, err := execute(t, "paths")
	require.NoError(t, err)
	var got PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, h.configPath, got.ConfigFile)
	assert.Equal(t, h.dir, got.HarnessDir)
	assert.Equal(t, filepath.Join(h.dir, "sessions.md"), got.SessionsFile)
	assert.Equal(t, filepath.Join(h.home, ".ludics", "state", "ludics", "logs"), got.LogsDir)
	assert.NoDirExists(t, got.CacheDir)

	_, _, err = execute(t, "paths", "--ensure")
	require.NoError(t, err)
	assert.DirExists(t, got.CacheDir)
	assert.DirExists(t, got.LogsDir)
}

func TestStreamLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions-2026-03-14.log")
	testutil.WriteFile(t, path, strings.Join([]string{
		"first",
		"second",
		`{"time":"2026-03-14T12:00:00Z","level":"warning","msg":"discoverer timed out","component":"sessions","source":"ttyd"}`,
		"",
	}, "\n"))

	var buf bytes.Buffer
	require.NoError(t, streamLog(context.Background(), path, logsOptions{lines: 2}, &buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "second", lines[0])
	assert.Contains(t, lines[1], "discoverer timed out")
	assert.Contains(t, lines[1], "WARNING")

	buf.Reset()
	require.NoError(t, streamLog(context.Background(), path, logsOptions{lines: -1, json: true}, &buf))
	lines = strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"raw_line":"first"}`, lines[0])
	assert.Contains(t, lines[2], `"source":"ttyd"`)
}

func TestSessionsHelpListsFiles(t *testing.T) {
	setupHarness(t, false)

	out, _, err := execute(t, "sessions", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "FILES")
	assert.Contains(t, out, "<harness>/sessions.json")
	assert.Contains(t, out, "report")
}
