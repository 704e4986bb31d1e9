package sessions

import (
	"fmt"
	"io"
	"strings"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/tui/theme"
	"github.com/mattn/go-runewidth"
)

// Printer writes console summaries of a discovery result.
type Printer struct {
	w     io.Writer
	theme *theme.Theme
	width int
}

// NewPrinter returns a plain-text printer.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// WithTheme styles headings and stale markers.
func (p *Printer) WithTheme(t *theme.Theme) *Printer {
	p.theme = t
	return p
}

// WithWidth truncates free-text fields such as summaries to the terminal width.
// Zero disables truncation.
func (p *Printer) WithWidth(width int) *Printer {
	p.width = width
	return p
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// PrintSummary prints the one-line totals and the classified split.
func (p *Printer) PrintSummary(result *models.DiscoveryResult) {
	order, counts := result.AgentCounts()
	parts := make([]string, 0, len(order))
	for _, a := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[a], a))
	}
	breakdown := strings.Join(parts, ", ")
	if breakdown == "" {
		breakdown = "none"
	}

	total := len(result.Classified) + len(result.Unclassified)
	p.println(fmt.Sprintf("Sessions: %d total (%s)", total, breakdown))
	p.println(fmt.Sprintf("Classified: %d | Unclassified: %d", len(result.Classified), len(result.Unclassified)))
}

// PrintDetailedSummary prints the summary followed by one line per session.
func (p *Printer) PrintDetailedSummary(result *models.DiscoveryResult) {
	p.PrintSummary(result)

	if len(result.Unclassified) > 0 {
		p.println("")
		p.println(p.headingStyle("Unclassified sessions:"))
		for _, s := range result.Unclassified {
			p.println(fmt.Sprintf("  %s: %s (%s)", s.PrimaryAgent(), s.Cwd, strings.Join(s.IDs, ", ")))
		}
	}

	if len(result.Classified) > 0 {
		p.println(p.headingStyle("Classified sessions:"))
		for _, s := range result.Classified {
			p.println(fmt.Sprintf("  Slot %s: %s %s (%s)", slotLabel(s.Slot), s.PrimaryAgent(), s.Cwd, strings.Join(s.IDs, ", ")))
		}
	}
}

func (p *Printer) headingStyle(text string) string {
	if p.theme == nil {
		return text
	}
	return p.theme.Bold.Render(text)
}

// PrintJSON writes the stripped JSON form of the result.
func (p *Printer) PrintJSON(result *models.DiscoveryResult) error {
	data, err := ToJSON(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// PrintSessionDetail prints the indented field list for one session.
func (p *Printer) PrintSessionDetail(s *models.MergedSession) {
	p.println("  cwd: " + s.Cwd)
	p.println("  agents: " + joinAgents(s.Agents))
	p.println("  ids: " + strings.Join(s.IDs, ", "))
	p.println("  last activity: " + s.LastActivity)

	stale := fmt.Sprintf("%t", s.Stale)
	if s.Stale && p.theme != nil {
		stale = p.theme.Stale.Render(stale)
	}
	p.println("  stale: " + stale)

	if s.Slot != nil {
		path := ""
		if s.SlotPath != nil {
			path = *s.SlotPath
		}
		p.println(fmt.Sprintf("  slot: %d (path: %s)", *s.Slot, path))
	}
	if o := s.Orchestration; o != nil {
		p.println(fmt.Sprintf("  orchestration: %s feature=%s phase=%s round=%s", o.Type, o.Feature, o.Phase, o.Round))
	}
	for _, src := range s.Sources {
		if src.Meta.GitBranch != "" {
			p.println("  git branch: " + src.Meta.GitBranch)
		}
		if src.Meta.Summary != "" {
			p.println("  summary: " + p.truncate(src.Meta.Summary, len("  summary: ")))
		}
	}
}

// PrintShow prints every session matching filter with a header line, or a
// notice when nothing matches.
func (p *Printer) PrintShow(result *models.DiscoveryResult, filter string) {
	matched := FilterSessions(result.All(), filter)
	if len(matched) == 0 {
		if filter != "" {
			p.println(fmt.Sprintf("No sessions matching %q", filter))
		} else {
			p.println("No active sessions")
		}
		return
	}

	for i := range matched {
		s := &matched[i]
		label := " [unclassified]"
		if s.Slot != nil {
			label = fmt.Sprintf(" [Slot %d]", *s.Slot)
		}
		header := fmt.Sprintf("%s%s — %s", s.PrimaryAgent(), label, s.Cwd)
		if p.theme != nil {
			header = p.theme.Accent.Render(header)
		}
		p.println(header)
		p.PrintSessionDetail(s)
		p.println("")
	}
}

func (p *Printer) truncate(s string, indent int) string {
	if p.width <= 0 {
		return s
	}
	avail := p.width - indent
	if avail <= 1 {
		return s
	}
	return runewidth.Truncate(s, avail, "…")
}

// FilterSessions keeps sessions whose cwd, normalized cwd or any id contains
// filter. An empty filter keeps everything.
func FilterSessions(sessions []models.MergedSession, filter string) []models.MergedSession {
	if filter == "" {
		return sessions
	}
	var out []models.MergedSession
	for _, s := range sessions {
		if strings.Contains(s.Cwd, filter) || strings.Contains(s.CwdNormalized, filter) || containsAny(s.IDs, filter) {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(values []string, sub string) bool {
	for _, v := range values {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}

func slotLabel(slot *int) string {
	if slot == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *slot)
}
