package sessionsview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ludics/pkg/sessions"
)

// View renders the table, the optional detail pane and the status line.
func (m Model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Colors.Orange).Render("LUDICS SESSIONS")
	b.WriteString(title)
	if m.result != nil {
		b.WriteString(m.theme.Muted.Render(fmt.Sprintf("  %d classified · %d unclassified",
			len(m.result.Classified), len(m.result.Unclassified))))
	}
	b.WriteString("\n\n")

	switch {
	case m.result == nil && m.loading:
		b.WriteString(m.theme.Muted.Render("Discovering sessions…"))
		b.WriteString("\n")
	case len(m.sessions) == 0 && m.err == nil:
		b.WriteString(m.theme.Muted.Render("No active sessions"))
		b.WriteString("\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if m.showDetail {
		if s, ok := m.Selected(); ok {
			var detail strings.Builder
			sessions.NewPrinter(&detail).WithTheme(m.theme).WithWidth(m.width - 4).PrintSessionDetail(s)
			b.WriteString(m.theme.Box.Render(strings.TrimRight(detail.String(), "\n")))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return m.theme.Error.Render("refresh failed: " + m.err.Error())
	case m.loading:
		return m.theme.Muted.Render("refreshing…")
	case !m.lastRefresh.IsZero():
		return m.theme.Muted.Render("updated " + m.lastRefresh.Format("15:04:05"))
	}
	return ""
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
