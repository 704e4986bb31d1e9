package sessions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/ludics/errors"
	"github.com/grovetools/ludics/pkg/models"
)

// FormatAge renders the time since epoch as "Ns ago", "Nm ago", "Nh ago" or "Nd ago".
func FormatAge(epoch int64, now time.Time) string {
	age := now.Unix() - epoch
	switch {
	case age < 60:
		return fmt.Sprintf("%ds ago", age)
	case age < 3600:
		return fmt.Sprintf("%dm ago", age/60)
	case age < 86400:
		return fmt.Sprintf("%dh ago", age/3600)
	default:
		return fmt.Sprintf("%dd ago", age/86400)
	}
}

// GenerateMarkdownReport renders the result as the sessions.md document.
func GenerateMarkdownReport(result *models.DiscoveryResult, now time.Time) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line("# Discovered Sessions")
	line("")
	line("Generated: " + result.GeneratedAt)
	line("")

	if len(result.Classified) > 0 {
		line("## Classified Sessions")
		line("")
		for i := range result.Classified {
			line(formatSessionMarkdown(&result.Classified[i], true, now))
		}
	}

	if len(result.Unclassified) > 0 {
		line("## Unclassified Sessions")
		line("")
		line("*These sessions could not be matched to any slot. Operator action needed.*")
		line("")
		for i := range result.Unclassified {
			line(formatSessionMarkdown(&result.Unclassified[i], false, now))
		}
	}

	line("---")
	line("")
	b.WriteString(fmt.Sprintf("**Summary:** %d classified, %d unclassified", len(result.Classified), len(result.Unclassified)))
	return b.String()
}

func formatSessionMarkdown(s *models.MergedSession, classified bool, now time.Time) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("### %s — %s", s.PrimaryAgent(), s.Cwd))
	if classified && s.Slot != nil {
		lines = append(lines, fmt.Sprintf("- **Slot:** %d", *s.Slot))
	}
	lines = append(lines, "- **Session ID:** "+strings.Join(s.IDs, ", "))
	lines = append(lines, "- **Sources:** "+joinAgents(s.Agents))

	stale := ""
	if s.Stale {
		stale = " (STALE)"
	}
	lines = append(lines, fmt.Sprintf("- **Last activity:** %s%s", FormatAge(s.LastActivityEpoch, now), stale))

	for _, src := range s.Sources {
		if src.Meta.TmuxSession != "" {
			lines = append(lines, "- **tmux session:** "+src.Meta.TmuxSession)
		}
		if src.Meta.GitBranch != "" {
			lines = append(lines, "- **Git branch:** "+src.Meta.GitBranch)
		}
		if src.Meta.Summary != "" {
			lines = append(lines, "- **Summary:** "+src.Meta.Summary)
		}
	}

	if o := s.Orchestration; o != nil {
		lines = append(lines, fmt.Sprintf("- **Orchestration:** %s (feature: %s, phase: %s, round: %s)",
			o.Type, orUnknown(o.Feature), orUnknown(o.Phase), orUnknown(o.Round)))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func joinAgents(agents []models.AgentType) string {
	parts := make([]string, len(agents))
	for i, a := range agents {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

// ToJSON serializes the result with two-space indentation. Merged sessions
// omit their raw sources.
func ToJSON(result *models.DiscoveryResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// JSONPathFor returns the sessions.json path written next to a sessions.md report.
func JSONPathFor(reportPath string) string {
	if strings.HasSuffix(reportPath, ".md") {
		return strings.TrimSuffix(reportPath, ".md") + ".json"
	}
	return reportPath + ".json"
}

// WriteReport atomically writes the Markdown report and its JSON sibling.
// It returns the JSON path.
func WriteReport(reportPath string, result *models.DiscoveryResult, now time.Time) (string, error) {
	if err := atomicWrite(reportPath, []byte(GenerateMarkdownReport(result, now))); err != nil {
		return "", errors.ReportWrite(reportPath, err)
	}

	jsonPath := JSONPathFor(reportPath)
	data, err := ToJSON(result)
	if err != nil {
		return "", errors.ReportWrite(jsonPath, err)
	}
	if err := atomicWrite(jsonPath, data); err != nil {
		return "", errors.ReportWrite(jsonPath, err)
	}
	return jsonPath, nil
}

// atomicWrite writes to path.tmp and renames it over path so readers never
// see a partial file.
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
