// Package sessionsview is an interactive table of discovered agent sessions.
package sessionsview

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/pkg/sessions"
	"github.com/grovetools/ludics/tui/theme"
)

// RefreshFunc runs one discovery pass.
type RefreshFunc func(ctx context.Context) (*models.DiscoveryResult, error)

type resultMsg struct {
	result *models.DiscoveryResult
	err    error
	at     time.Time
}

// Model is the bubbletea model of the sessions table.
type Model struct {
	ctx     context.Context
	refresh RefreshFunc
	now     func() time.Time

	table  table.Model
	help   help.Model
	keys   keyMap
	theme  *theme.Theme
	width  int
	height int

	result      *models.DiscoveryResult
	sessions    []models.MergedSession
	err         error
	loading     bool
	showDetail  bool
	lastRefresh time.Time
}

var columnTitles = []string{"Slot", "Agent", "Working directory", "IDs", "Last activity"}

// New creates the model. The first refresh starts from Init.
func New(ctx context.Context, refresh RefreshFunc) Model {
	t := theme.DefaultTheme

	tbl := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = t.TableHeader.Padding(0, 1)
	styles.Selected = t.SelectedRow.Bold(true)
	tbl.SetStyles(styles)

	return Model{
		ctx:     ctx,
		refresh: refresh,
		now:     time.Now,
		table:   tbl,
		help:    help.New(),
		keys:    defaultKeyMap(),
		theme:   t,
		loading: true,
	}
}

// columns sizes the cwd column to the remaining width.
func columns(width int) []table.Column {
	fixed := []int{6, 12, 0, 24, 16}
	used := 0
	for _, w := range fixed {
		used += w + 2
	}
	cwd := width - used - 2
	if cwd < 20 {
		cwd = 20
	}
	fixed[2] = cwd

	cols := make([]table.Column, len(columnTitles))
	for i, title := range columnTitles {
		cols[i] = table.Column{Title: title, Width: fixed[i]}
	}
	return cols
}

// Init starts the first discovery pass.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, refresh, now := m.ctx, m.refresh, m.now
	return func() tea.Msg {
		result, err := refresh(ctx)
		return resultMsg{result: result, err: err, at: now()}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		m.resizeTable()
		return m, nil

	case resultMsg:
		m.loading = false
		m.lastRefresh = msg.at
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return m, tea.Quit
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.result = msg.result
		m.sessions = msg.result.All()
		m.table.SetRows(m.rows())
		if m.table.Cursor() >= len(m.sessions) {
			m.table.SetCursor(0)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.refreshCmd()
		case key.Matches(msg, m.keys.Detail):
			m.showDetail = !m.showDetail
			m.resizeTable()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resizeTable()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) resizeTable() {
	if m.height == 0 {
		return
	}
	reserved := 5
	if m.showDetail {
		reserved += 12
	}
	if m.help.ShowAll {
		reserved += 3
	}
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
}

func (m Model) rows() []table.Row {
	now := m.now()
	rows := make([]table.Row, 0, len(m.sessions))
	for i := range m.sessions {
		s := &m.sessions[i]
		slot := "-"
		if s.Slot != nil {
			slot = strconv.Itoa(*s.Slot)
		}
		age := sessions.FormatAge(s.LastActivityEpoch, now)
		if s.Stale {
			age += " (stale)"
		}
		rows = append(rows, table.Row{slot, s.PrimaryAgent(), s.Cwd, joinIDs(s.IDs), age})
	}
	return rows
}

// Selected returns the session under the cursor.
func (m Model) Selected() (*models.MergedSession, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.sessions) {
		return nil, false
	}
	return &m.sessions[i], true
}

// Run shows the table until the user quits or ctx is done.
func Run(ctx context.Context, refresh RefreshFunc) error {
	p := tea.NewProgram(New(ctx, refresh), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
