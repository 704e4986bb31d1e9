package tmux

// Pane is one row of `list-panes -a`.
type Pane struct {
	SessionName string `json:"session_name"`
	Active      bool   `json:"active"`
	CurrentPath string `json:"current_path"`
}

// SessionInfo is one row of `list-sessions`.
type SessionInfo struct {
	Name string `json:"name"`
	// LastAttached is unix seconds; zero when tmux reports no attach time.
	LastAttached int64 `json:"last_attached"`
}

const (
	paneFormat    = "#{session_name}|#{pane_active}|#{pane_current_path}"
	sessionFormat = "#{session_name}|#{session_last_attached}"
)
