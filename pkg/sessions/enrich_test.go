package sessions

import (
	"path/filepath"
	"testing"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discovered(agent models.AgentType, cwd, id string, epoch int64) models.DiscoveredSession {
	return models.DiscoveredSession{
		AgentType:         agent,
		Cwd:               cwd,
		CwdNormalized:     cwd,
		SessionID:         id,
		Source:            models.SourceUnknown,
		LastActivityEpoch: epoch,
	}
}

func TestEnrichPairCodex(t *testing.T) {
	root := t.TempDir()
	proj := testutil.MkdirAll(t, filepath.Join(root, "p"))
	marker := testutil.WriteMarker(t, proj, DefaultMarkerDir, map[string]string{
		"mode":        "pair",
		"coder-agent": "codex",
		"feature":     "auth",
		"phase":       "review",
		"round":       "2",
	})
	sub := testutil.MkdirAll(t, filepath.Join(proj, "src", "pkg"))

	cache := EnrichWithOrchestration([]models.DiscoveredSession{
		discovered(models.AgentCodex, proj, "a", 1),
		discovered(models.AgentTmux, sub, "tmux:w", 1),
	}, DefaultMarkerDir)
	assert.Equal(t, 1, cache.Len())

	o := cache.ForCwd(sub)
	require.NotNil(t, o)
	assert.Equal(t, &models.Orchestration{
		Type:         models.OrchestrationPairCodex,
		Mode:         "pair",
		Feature:      "auth",
		Phase:        "review",
		Round:        "2",
		CoderAgent:   "codex",
		PeerSyncPath: marker,
	}, o)
	assert.Same(t, o, cache.ForCwd(proj))
}

func TestEnrichTypes(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  models.OrchestrationType
	}{
		{"duo", map[string]string{"mode": "duo"}, models.OrchestrationDuo},
		{"empty mode", map[string]string{"feature": "x"}, models.OrchestrationDuo},
		{"solo", map[string]string{"mode": "solo"}, models.OrchestrationSolo},
		{"pair claude", map[string]string{"mode": "pair", "coder-agent": "claude"}, models.OrchestrationPairClaude},
		{"pair generic", map[string]string{"mode": "pair"}, models.OrchestrationPair},
		{"coder agent ignored outside pair", map[string]string{"mode": "duo", "coder-agent": "codex"}, models.OrchestrationDuo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj := t.TempDir()
			testutil.WriteMarker(t, proj, DefaultMarkerDir, tt.files)
			cache := EnrichWithOrchestration([]models.DiscoveredSession{discovered(models.AgentCodex, proj, "a", 1)}, "")
			o := cache.ForCwd(proj)
			require.NotNil(t, o)
			assert.Equal(t, tt.want, o.Type)
			if tt.files["mode"] != "pair" {
				assert.Empty(t, o.CoderAgent)
			}
		})
	}
}

func TestEnrichStateFileFallback(t *testing.T) {
	proj := t.TempDir()
	testutil.WriteMarker(t, proj, ".orch", map[string]string{
		"state.json": `{"mode":"pair","feature":"search","phase":"implement","round":3}`,
		"coder-agent": "claude",
	})

	cache := EnrichWithOrchestration([]models.DiscoveredSession{discovered(models.AgentClaudeCode, proj, "c", 1)}, ".orch")
	o := cache.ForCwd(proj)
	require.NotNil(t, o)
	assert.Equal(t, "pair", o.Mode)
	assert.Equal(t, "search", o.Feature)
	assert.Equal(t, "implement", o.Phase)
	assert.Equal(t, "3", o.Round)
	assert.Equal(t, models.OrchestrationPairClaude, o.Type)
}

func TestEnrichSkipsUnknownAndUnmarked(t *testing.T) {
	plain := t.TempDir()
	cache := EnrichWithOrchestration([]models.DiscoveredSession{
		discovered(models.AgentTtyd, UnknownCwd, "ttyd:1", 1),
		discovered(models.AgentTmux, plain, "tmux:p", 1),
	}, DefaultMarkerDir)
	assert.Zero(t, cache.Len())
	assert.Nil(t, cache.ForCwd(plain))
	assert.Nil(t, cache.ForCwd(UnknownCwd))

	var nilCache *OrchestrationCache
	assert.Nil(t, nilCache.ForCwd(plain))
}

func TestEnrichNearestMarkerWins(t *testing.T) {
	root := t.TempDir()
	testutil.WriteMarker(t, root, DefaultMarkerDir, map[string]string{"mode": "duo", "feature": "outer"})
	inner := testutil.MkdirAll(t, filepath.Join(root, "inner"))
	testutil.WriteMarker(t, inner, DefaultMarkerDir, map[string]string{"mode": "solo", "feature": "inner"})

	cache := EnrichWithOrchestration([]models.DiscoveredSession{
		discovered(models.AgentCodex, root, "a", 1),
		discovered(models.AgentCodex, inner, "b", 1),
	}, DefaultMarkerDir)
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, "inner", cache.ForCwd(filepath.Join(inner, "deeper")).Feature)
	assert.Equal(t, "outer", cache.ForCwd(root).Feature)
}

func TestForCwdOnlyReturnsCachedMarkers(t *testing.T) {
	proj := t.TempDir()
	testutil.WriteMarker(t, proj, DefaultMarkerDir, map[string]string{"mode": "duo"})

	cache := EnrichWithOrchestration(nil, DefaultMarkerDir)
	assert.Nil(t, cache.ForCwd(proj))
}
