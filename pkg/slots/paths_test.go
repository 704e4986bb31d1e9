package slots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slotsDoc = `# Slots

## Slot 1

**Mode:** agent-duo
**Path:** /home/u/proj

## Slot 2

**Mode:** (empty)
**Path:** /home/u/ignored

## Slot 3

**Mode:** agent-pair
**Git:**
- Working directory: /home/u/wt-a (worktree)
- worktree: /home/u/wt-b
**Session:** ignored-because-git-wins

## Slot 4

**Mode:** agent-solo
**Session:** /srv/solo

## Slot 5

**Mode:** agent-solo
**Session:** relative-proj

## Slot 6

**Mode:** null
`

func TestParseSlotPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	existing := map[string]bool{
		"/srv/solo":                            true,
		filepath.Join(home, "relative-proj"): true,
	}
	got := ParseSlotPaths(slotsDoc, func(p string) bool { return existing[p] })

	assert.Equal(t, []models.SlotPath{
		{Slot: 1, Path: "/home/u/proj"},
		{Slot: 3, Path: "/home/u/wt-a"},
		{Slot: 3, Path: "/home/u/wt-b"},
		{Slot: 4, Path: "/srv/solo"},
		{Slot: 5, Path: filepath.Join(home, "relative-proj")},
	}, got)
}

func TestSessionFallbackRequiresExistingDir(t *testing.T) {
	doc := "## Slot 1\n**Mode:** agent-duo\n**Session:** /does/not/exist\n"
	got := ParseSlotPaths(doc, func(string) bool { return false })
	assert.Empty(t, got)
}

func TestGitSectionEndsAtNextField(t *testing.T) {
	doc := "## Slot 2\n**Mode:** agent-duo\n**Git:**\n- worktree: /a\n**Notes:**\n- worktree: /b\n"
	got := ParseSlotPaths(doc, func(string) bool { return false })
	assert.Equal(t, []models.SlotPath{{Slot: 2, Path: "/a"}}, got)
}

func TestExtractSlotPathsFromFile(t *testing.T) {
	dir := t.TempDir()

	got, err := ExtractSlotPaths(filepath.Join(dir, "slots.md"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	sessionDir := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(sessionDir, 0755))
	file := filepath.Join(dir, "slots.md")
	require.NoError(t, os.WriteFile(file, []byte("## Slot 1\n**Mode:** agent-duo\n**Session:** "+sessionDir+"\n"), 0644))

	got, err = ExtractSlotPaths(file)
	require.NoError(t, err)
	assert.Equal(t, []models.SlotPath{{Slot: 1, Path: sessionDir}}, got)
}
