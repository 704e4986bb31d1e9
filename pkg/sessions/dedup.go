package sessions

import (
	"sort"
	"time"

	"github.com/grovetools/ludics/pkg/models"
)

// activityLayout matches JavaScript's Date.toISOString output.
const activityLayout = "2006-01-02T15:04:05.000Z"

// FormatActivity renders a unix epoch as a UTC ISO-8601 timestamp with milliseconds.
func FormatActivity(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format(activityLayout)
}

// DeduplicateAndMerge collapses sessions sharing a normalized cwd into one
// MergedSession. Groups keep the order their first member was seen in.
//
// Within a group agent logs outrank terminals, then newer outranks older; the
// top entry supplies the cwd. Liveness uses the newest member regardless of rank.
func DeduplicateAndMerge(sessions []models.DiscoveredSession, cache *OrchestrationCache, staleThreshold time.Duration, now time.Time) []models.MergedSession {
	var order []string
	groups := make(map[string][]models.DiscoveredSession)
	for _, s := range sessions {
		key := s.CwdNormalized
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	threshold := int64(staleThreshold / time.Second)
	nowEpoch := now.Unix()

	merged := make([]models.MergedSession, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			pi, pj := group[i].AgentType.TrustPriority(), group[j].AgentType.TrustPriority()
			if pi != pj {
				return pi > pj
			}
			return group[i].LastActivityEpoch > group[j].LastActivityEpoch
		})

		primary := group[0]
		var latest int64
		agents := make([]models.AgentType, 0, len(group))
		ids := make([]string, 0, len(group))
		seenAgent := make(map[models.AgentType]bool)
		seenID := make(map[string]bool)
		for i, s := range group {
			if i == 0 || s.LastActivityEpoch > latest {
				latest = s.LastActivityEpoch
			}
			if !seenAgent[s.AgentType] {
				seenAgent[s.AgentType] = true
				agents = append(agents, s.AgentType)
			}
			if !seenID[s.SessionID] {
				seenID[s.SessionID] = true
				ids = append(ids, s.SessionID)
			}
		}

		merged = append(merged, models.MergedSession{
			Cwd:               primary.Cwd,
			CwdNormalized:     key,
			Sources:           group,
			Agents:            agents,
			IDs:               ids,
			LastActivityEpoch: latest,
			LastActivity:      FormatActivity(latest),
			Stale:             isStale(nowEpoch, latest, threshold),
			Orchestration:     cache.ForCwd(primary.Cwd),
		})
	}
	return merged
}
