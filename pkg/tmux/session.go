package tmux

import (
	"context"
	"strconv"
	"strings"

	"github.com/grovetools/ludics/command"
)

// ListPanes lists every pane across all sessions.
func (c *Client) ListPanes(ctx context.Context) ([]Pane, error) {
	out, err := c.run(ctx, "list-panes", "-a", "-F", paneFormat)
	if err != nil {
		return nil, err
	}
	return ParsePanes(out), nil
}

// ListSessions lists sessions with their last-attached time.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	out, err := c.run(ctx, "list-sessions", "-F", sessionFormat)
	if err != nil {
		return nil, err
	}
	return ParseSessions(out), nil
}

// PaneCurrentPath returns the current path of the active pane in a session.
func (c *Client) PaneCurrentPath(ctx context.Context, sessionName string) (string, error) {
	if err := command.ValidateTmuxTarget(sessionName); err != nil {
		return "", err
	}
	out, err := c.run(ctx, "display-message", "-t", sessionName, "-p", "#{pane_current_path}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ParsePanes parses list-panes output. Lines without a session name are skipped.
// Pane paths may themselves contain '|', so only the first two separators split.
func ParsePanes(out string) []Pane {
	var panes []Pane
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 3 || parts[0] == "" {
			continue
		}
		panes = append(panes, Pane{
			SessionName: parts[0],
			Active:      parts[1] == "1",
			CurrentPath: parts[2],
		})
	}
	return panes
}

// ParseSessions parses list-sessions output. An empty or non-numeric
// last-attached field yields zero.
func ParseSessions(out string) []SessionInfo {
	var sessions []SessionInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, attached, _ := strings.Cut(line, "|")
		if name == "" {
			continue
		}
		epoch, err := strconv.ParseInt(strings.TrimSpace(attached), 10, 64)
		if err != nil {
			epoch = 0
		}
		sessions = append(sessions, SessionInfo{Name: name, LastAttached: epoch})
	}
	return sessions
}
