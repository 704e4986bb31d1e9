package models

// OrchestrationType names the coordination style recorded in a marker directory.
type OrchestrationType string

const (
	OrchestrationDuo        OrchestrationType = "agent-duo"
	OrchestrationSolo       OrchestrationType = "agent-solo"
	OrchestrationPair       OrchestrationType = "agent-pair"
	OrchestrationPairCodex  OrchestrationType = "agent-pair-codex"
	OrchestrationPairClaude OrchestrationType = "agent-pair-claude"
)

// Orchestration describes a multi-agent coordination context found via a marker directory.
type Orchestration struct {
	Type         OrchestrationType `json:"type"`
	Mode         string            `json:"mode"`
	Feature      string            `json:"feature"`
	Phase        string            `json:"phase"`
	Round        string            `json:"round"`
	CoderAgent   string            `json:"coderAgent,omitempty"`
	PeerSyncPath string            `json:"peerSyncPath"`
}

// ClassifyOrchestration derives the orchestration type from the mode and coder-agent marker contents.
func ClassifyOrchestration(mode, coderAgent string) OrchestrationType {
	switch mode {
	case "pair":
		switch coderAgent {
		case "codex":
			return OrchestrationPairCodex
		case "claude":
			return OrchestrationPairClaude
		default:
			return OrchestrationPair
		}
	case "solo":
		return OrchestrationSolo
	default:
		return OrchestrationDuo
	}
}
