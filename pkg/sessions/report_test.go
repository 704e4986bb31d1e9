package sessions

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }

func sampleResult() *models.DiscoveryResult {
	now := testNow.Unix()
	return &models.DiscoveryResult{
		GeneratedAt:     "2026-03-14T12:00:00Z",
		StaleAfterHours: 24,
		Sources:         map[models.AgentType]int{models.AgentCodex: 1, models.AgentTmux: 2},
		Slots:           []models.SlotPath{{Slot: 2, Path: "/home/u/proj"}},
		Classified: []models.MergedSession{{
			Cwd:           "/home/u/proj",
			CwdNormalized: "/home/u/proj",
			Sources: []models.DiscoveredSession{
				{AgentType: models.AgentCodex, SessionID: "abc", Meta: models.SessionMeta{GitBranch: "main", Summary: "Refactor auth"}},
				{AgentType: models.AgentTmux, SessionID: "tmux:work", Meta: models.SessionMeta{TmuxSession: "work"}},
			},
			Agents:            []models.AgentType{models.AgentCodex, models.AgentTmux},
			IDs:               []string{"abc", "tmux:work"},
			LastActivityEpoch: now - 120,
			LastActivity:      FormatActivity(now - 120),
			Slot:              intPtr(2),
			SlotPath:          strPtr("/home/u/proj"),
			Orchestration: &models.Orchestration{
				Type:         models.OrchestrationPairCodex,
				Mode:         "pair",
				Feature:      "auth",
				Round:        "1",
				CoderAgent:   "codex",
				PeerSyncPath: "/home/u/proj/.peer-sync",
			},
		}},
		Unclassified: []models.MergedSession{{
			Cwd:               "/tmp/scratch",
			CwdNormalized:     "/tmp/scratch",
			Sources:           []models.DiscoveredSession{{AgentType: models.AgentTmux, SessionID: "tmux:scratch", Meta: models.SessionMeta{TmuxSession: "scratch"}}},
			Agents:            []models.AgentType{models.AgentTmux},
			IDs:               []string{"tmux:scratch"},
			LastActivityEpoch: now - 3*86400,
			LastActivity:      FormatActivity(now - 3*86400),
			Stale:             true,
		}},
	}
}

func TestGenerateMarkdownReport(t *testing.T) {
	got := GenerateMarkdownReport(sampleResult(), testNow)

	want := strings.Join([]string{
		"# Discovered Sessions",
		"",
		"Generated: 2026-03-14T12:00:00Z",
		"",
		"## Classified Sessions",
		"",
		"### codex — /home/u/proj",
		"- **Slot:** 2",
		"- **Session ID:** abc, tmux:work",
		"- **Sources:** codex, tmux",
		"- **Last activity:** 2m ago",
		"- **Git branch:** main",
		"- **Summary:** Refactor auth",
		"- **tmux session:** work",
		"- **Orchestration:** agent-pair-codex (feature: auth, phase: ?, round: 1)",
		"",
		"## Unclassified Sessions",
		"",
		"*These sessions could not be matched to any slot. Operator action needed.*",
		"",
		"### tmux — /tmp/scratch",
		"- **Session ID:** tmux:scratch",
		"- **Sources:** tmux",
		"- **Last activity:** 3d ago (STALE)",
		"- **tmux session:** scratch",
		"",
		"---",
		"",
		"**Summary:** 1 classified, 1 unclassified",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestGenerateMarkdownReportEmpty(t *testing.T) {
	got := GenerateMarkdownReport(&models.DiscoveryResult{GeneratedAt: "2026-03-14T12:00:00Z"}, testNow)
	assert.Equal(t, "# Discovered Sessions\n\nGenerated: 2026-03-14T12:00:00Z\n\n---\n\n**Summary:** 0 classified, 0 unclassified", got)
}

func TestFormatAge(t *testing.T) {
	now := testNow.Unix()
	tests := []struct {
		epoch int64
		want  string
	}{
		{now, "0s ago"},
		{now - 59, "59s ago"},
		{now - 60, "1m ago"},
		{now - 3599, "59m ago"},
		{now - 3600, "1h ago"},
		{now - 86399, "23h ago"},
		{now - 86400, "1d ago"},
		{now - 10*86400, "10d ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(tt.epoch, testNow))
	}
}

func TestToJSONStripsSources(t *testing.T) {
	data, err := ToJSON(sampleResult())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "{\n  \"generatedAt\""))
	assert.False(t, strings.HasSuffix(string(data), "\n"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	classified := decoded["classified"].([]interface{})
	first := classified[0].(map[string]interface{})
	assert.NotContains(t, first, "sources")
	assert.Equal(t, float64(2), first["slot"])
	assert.Equal(t, "agent-pair-codex", first["orchestration"].(map[string]interface{})["type"])

	unclassified := decoded["unclassified"].([]interface{})[0].(map[string]interface{})
	assert.Nil(t, unclassified["slot"])
	assert.Nil(t, unclassified["slotPath"])
	assert.Nil(t, unclassified["orchestration"])
	assert.Equal(t, true, unclassified["stale"])

	assert.Equal(t, map[string]interface{}{"codex": float64(1), "tmux": float64(2)}, decoded["sources"])
}

func TestJSONPathFor(t *testing.T) {
	assert.Equal(t, "/h/sessions.json", JSONPathFor("/h/sessions.md"))
	assert.Equal(t, "/h/sessions.md.bak.json", JSONPathFor("/h/sessions.md.bak"))
}

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "harness", "nested")
	reportPath := filepath.Join(dir, "sessions.md")

	jsonPath, err := WriteReport(reportPath, sampleResult(), testNow)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sessions.json"), jsonPath)

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Discovered Sessions")

	js, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var result models.DiscoveryResult
	require.NoError(t, json.Unmarshal(js, &result))
	assert.Len(t, result.Classified, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestWriteReportFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := WriteReport(filepath.Join(blocker, "sessions.md"), sampleResult(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessions.md")
}
