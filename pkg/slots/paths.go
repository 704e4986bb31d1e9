// Package slots extracts slot working directories from the harness slots.md.
package slots

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/grovetools/ludics/pkg/models"
)

var (
	slotHeading    = regexp.MustCompile(`^##\s+Slot\s+(\d+)`)
	boldField      = regexp.MustCompile(`^\*\*[A-Z]`)
	workingDirLine = regexp.MustCompile(`Working directory:\s*(.+?)(?:\s*\(worktree\))?$`)
	worktreeLine   = regexp.MustCompile(`worktree:\s*(.+)$`)
)

type block struct {
	slot  int
	lines []string
}

// ExtractSlotPaths reads slotsFile and returns the directory each active slot
// works in. A missing file yields an empty list. Slots whose Mode is empty,
// "null" or "(empty)" are skipped. Path resolution order is the **Path:**
// field, then every path listed in the **Git:** section, then **Session:**
// as an existing absolute directory or a directory under $HOME.
func ExtractSlotPaths(slotsFile string) ([]models.SlotPath, error) {
	data, err := os.ReadFile(slotsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.SlotPath{}, nil
		}
		return nil, err
	}
	return ParseSlotPaths(string(data), dirExists), nil
}

// ParseSlotPaths is ExtractSlotPaths over already-read content. exists reports
// whether a Session fallback directory is present.
func ParseSlotPaths(text string, exists func(string) bool) []models.SlotPath {
	results := []models.SlotPath{}

	for _, b := range parseBlocks(text) {
		if extractField(b.lines, "Mode") == "" {
			continue
		}

		if p := extractField(b.lines, "Path"); p != "" {
			results = append(results, models.SlotPath{Slot: b.slot, Path: p})
			continue
		}

		if gitPaths := extractGitPaths(b.lines); len(gitPaths) > 0 {
			for _, p := range gitPaths {
				results = append(results, models.SlotPath{Slot: b.slot, Path: p})
			}
			continue
		}

		session := extractField(b.lines, "Session")
		if session == "" {
			continue
		}
		if strings.HasPrefix(session, "/") {
			if exists(session) {
				results = append(results, models.SlotPath{Slot: b.slot, Path: session})
			}
			continue
		}
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, session)
			if exists(candidate) {
				results = append(results, models.SlotPath{Slot: b.slot, Path: candidate})
			}
		}
	}
	return results
}

func parseBlocks(text string) []block {
	var blocks []block
	var current *block
	for _, line := range strings.Split(text, "\n") {
		if m := slotHeading.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			blocks = append(blocks, block{slot: n})
			current = &blocks[len(blocks)-1]
			continue
		}
		if current != nil {
			current.lines = append(current.lines, strings.TrimRight(line, "\r"))
		}
	}

	// Slot 0 is not a slot
	kept := blocks[:0]
	for _, b := range blocks {
		if b.slot > 0 {
			kept = append(kept, b)
		}
	}
	return kept
}

// extractField returns the trimmed value of the first "**Name:** value" line,
// or "" when absent, "null" or "(empty)".
func extractField(lines []string, name string) string {
	prefix := "**" + name + ":**"
	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		val := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		if val == "null" || val == "(empty)" {
			return ""
		}
		return val
	}
	return ""
}

func extractGitPaths(lines []string) []string {
	var paths []string
	inGit := false
	for _, line := range lines {
		if strings.HasPrefix(line, "**Git:**") {
			inGit = true
			continue
		}
		if boldField.MatchString(line) {
			inGit = false
			continue
		}
		if !inGit {
			continue
		}
		if m := workingDirLine.FindStringSubmatch(line); m != nil {
			if p := strings.TrimSpace(m[1]); p != "" {
				paths = append(paths, p)
			}
		}
		if m := worktreeLine.FindStringSubmatch(line); m != nil {
			if p := strings.TrimSpace(m[1]); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
