package models

// DiscoveryResult is the output of one discovery pass.
type DiscoveryResult struct {
	GeneratedAt     string            `json:"generatedAt"`
	StaleAfterHours float64           `json:"staleAfterHours"`
	Sources         map[AgentType]int `json:"sources"`
	Slots           []SlotPath        `json:"slots"`
	Classified      []MergedSession   `json:"classified"`
	Unclassified    []MergedSession   `json:"unclassified"`
}

// All returns classified sessions followed by unclassified ones.
func (r *DiscoveryResult) All() []MergedSession {
	all := make([]MergedSession, 0, len(r.Classified)+len(r.Unclassified))
	all = append(all, r.Classified...)
	return append(all, r.Unclassified...)
}

// AgentCounts counts merged sessions per agent, in first-seen order.
func (r *DiscoveryResult) AgentCounts() ([]AgentType, map[AgentType]int) {
	var order []AgentType
	counts := make(map[AgentType]int)
	for _, s := range r.All() {
		for _, a := range s.Agents {
			if _, seen := counts[a]; !seen {
				order = append(order, a)
			}
			counts[a]++
		}
	}
	return order, counts
}
