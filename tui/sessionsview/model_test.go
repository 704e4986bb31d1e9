package sessionsview

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ludics/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testResult() *models.DiscoveryResult {
	slot := 1
	path := "/home/u/api"
	return &models.DiscoveryResult{
		Classified: []models.MergedSession{{
			Cwd:               "/home/u/api",
			CwdNormalized:     "/home/u/api",
			Agents:            []models.AgentType{models.AgentClaudeCode},
			IDs:               []string{"c-1"},
			LastActivityEpoch: fixedNow.Unix() - 90,
			Slot:              &slot,
			SlotPath:          &path,
		}},
		Unclassified: []models.MergedSession{{
			Cwd:               "/tmp/scratch",
			CwdNormalized:     "/tmp/scratch",
			Agents:            []models.AgentType{models.AgentTmux},
			IDs:               []string{"tmux:scratch"},
			LastActivityEpoch: fixedNow.Unix() - 2*86400,
			Stale:             true,
		}},
	}
}

func newTestModel(refresh RefreshFunc) Model {
	m := New(context.Background(), refresh)
	m.now = func() time.Time { return fixedNow }
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestInitRefreshes(t *testing.T) {
	var calls atomic.Int32
	m := newTestModel(func(context.Context) (*models.DiscoveryResult, error) {
		calls.Add(1)
		return testResult(), nil
	})

	cmd := m.Init()
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, int32(1), calls.Load())

	m, _ = update(t, m, msg)
	assert.False(t, m.loading)
	assert.Equal(t, fixedNow, m.lastRefresh)
	require.Len(t, m.sessions, 2)

	rows := m.rows()
	assert.Equal(t, []string{"1", "claude-code", "/home/u/api", "c-1", "1m ago"}, []string(rows[0]))
	assert.Equal(t, []string{"-", "tmux", "/tmp/scratch", "tmux:scratch", "2d ago (stale)"}, []string(rows[1]))

	view := m.View()
	assert.Contains(t, view, "/home/u/api")
	assert.Contains(t, view, "1 classified · 1 unclassified")
}

func TestRefreshKey(t *testing.T) {
	var calls atomic.Int32
	m := newTestModel(func(context.Context) (*models.DiscoveryResult, error) {
		calls.Add(1)
		return testResult(), nil
	})
	m, _ = update(t, m, resultMsg{result: testResult(), at: fixedNow})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	// A second press while a pass is running is ignored.
	_, again := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, again)

	m, _ = update(t, m, cmd())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, m.loading)
}

func TestRefreshError(t *testing.T) {
	m := newTestModel(nil)
	m, _ = update(t, m, resultMsg{err: stderrors.New("tmux exploded"), at: fixedNow})
	assert.Contains(t, m.View(), "refresh failed: tmux exploded")

	m, _ = update(t, m, resultMsg{result: testResult(), at: fixedNow})
	assert.Nil(t, m.err)
	assert.NotContains(t, m.View(), "refresh failed")
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(nil)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDetailPane(t *testing.T) {
	m := newTestModel(nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, resultMsg{result: testResult(), at: fixedNow})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.showDetail)
	assert.Contains(t, m.View(), "slot: 1 (path: /home/u/api)")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	s, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "/tmp/scratch", s.Cwd)
}

func TestEmptyResult(t *testing.T) {
	m := newTestModel(nil)
	m, _ = update(t, m, resultMsg{result: &models.DiscoveryResult{}, at: fixedNow})
	assert.Contains(t, m.View(), "No active sessions")
	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestColumnsFillWidth(t *testing.T) {
	cols := columns(140)
	assert.Equal(t, 140-6-12-24-16-2*5-2, cols[2].Width)
	assert.Equal(t, 20, columns(40)[2].Width)
}
