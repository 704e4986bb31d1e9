package models

// AgentType identifies which source produced a DiscoveredSession.
type AgentType string

const (
	AgentCodex      AgentType = "codex"
	AgentClaudeCode AgentType = "claude-code"
	AgentTmux       AgentType = "tmux"
	AgentTtyd       AgentType = "ttyd"
)

// AllAgentTypes lists the agent types in the order their discoverers are concatenated.
var AllAgentTypes = []AgentType{AgentCodex, AgentClaudeCode, AgentTmux, AgentTtyd}

// TrustPriority ranks how authoritative a source's reported cwd is.
// Agent log stores record where the agent believes it operates; terminals only proxy into a directory.
func (a AgentType) TrustPriority() int {
	switch a {
	case AgentCodex, AgentClaudeCode:
		return 2
	case AgentTmux, AgentTtyd:
		return 1
	default:
		return 0
	}
}

// Valid reports whether a is a known agent type.
func (a AgentType) Valid() bool {
	for _, t := range AllAgentTypes {
		if a == t {
			return true
		}
	}
	return false
}

// SourceKind is a provenance tag. It is informational only.
type SourceKind string

const (
	SourceCLI       SourceKind = "cli"
	SourceVSCode    SourceKind = "vscode"
	SourceExec      SourceKind = "exec"
	SourceAppServer SourceKind = "appServer"
	SourceApp       SourceKind = "app"
	SourceWeb       SourceKind = "web"
	SourceUnknown   SourceKind = "unknown"
)

// SessionMeta holds the extras a source can attach. Each field is set by at most
// one agent type; the comment names which.
type SessionMeta struct {
	// codex
	File          string `json:"file,omitempty"`
	CLIVersion    string `json:"cli_version,omitempty"`
	ModelProvider string `json:"model_provider,omitempty"`

	// claude-code (from sessions-index.json)
	GitBranch    string `json:"git_branch,omitempty"`
	Summary      string `json:"summary,omitempty"`
	MessageCount *int   `json:"message_count,omitempty"`
	IsSidechain  *bool  `json:"is_sidechain,omitempty"`

	// tmux and ttyd
	TmuxSession string `json:"tmux_session,omitempty"`

	// ttyd
	PID     int    `json:"pid,omitempty"`
	Port    string `json:"port,omitempty"`
	Command string `json:"command,omitempty"`
}

// DiscoveredSession is one raw observation from one source.
type DiscoveredSession struct {
	AgentType         AgentType   `json:"agentType"`
	Cwd               string      `json:"cwd"`
	CwdNormalized     string      `json:"cwdNormalized"`
	SessionID         string      `json:"sessionId"`
	Source            SourceKind  `json:"source"`
	LastActivityEpoch int64       `json:"lastActivityEpoch"`
	Meta              SessionMeta `json:"meta"`
}

// MergedSession is the canonical record for one normalized working directory.
type MergedSession struct {
	Cwd               string              `json:"cwd"`
	CwdNormalized     string              `json:"cwdNormalized"`
	Sources           []DiscoveredSession `json:"-"`
	Agents            []AgentType         `json:"agents"`
	IDs               []string            `json:"ids"`
	LastActivityEpoch int64               `json:"lastActivityEpoch"`
	LastActivity      string              `json:"lastActivity"`
	Stale             bool                `json:"stale"`
	Slot              *int                `json:"slot"`
	SlotPath          *string             `json:"slotPath"`
	Orchestration     *Orchestration      `json:"orchestration"`
}

// PrimaryAgent returns the agent type of the highest-ranked source, or "unknown".
func (m *MergedSession) PrimaryAgent() string {
	if len(m.Agents) == 0 {
		return "unknown"
	}
	return string(m.Agents[0])
}

// SlotPath binds a slot number to the directory it works in.
type SlotPath struct {
	Slot int    `json:"slot"`
	Path string `json:"path"`
}
