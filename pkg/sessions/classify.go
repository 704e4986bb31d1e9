package sessions

import (
	"strings"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/util/pathutil"
)

// Classification splits merged sessions by whether a slot path claims them.
type Classification struct {
	Classified   []models.MergedSession
	Unclassified []models.MergedSession
}

// ClassifySessions assigns each session to the slot whose path is the longest
// directory-boundary prefix of its cwd. /a/foo matches /a/foo and /a/foo/bar
// but not /a/foo2.
func ClassifySessions(sessions []models.MergedSession, slotPaths []models.SlotPath) Classification {
	result := Classification{
		Classified:   make([]models.MergedSession, 0),
		Unclassified: make([]models.MergedSession, 0),
	}

	for _, s := range sessions {
		best := -1
		bestLen := 0
		for i, sp := range slotPaths {
			p := strings.TrimRight(sp.Path, "/")
			if p == "" {
				continue
			}
			if !pathutil.IsWithin(s.CwdNormalized, p) {
				continue
			}
			if len(p) > bestLen {
				bestLen = len(p)
				best = i
			}
		}

		if best < 0 {
			result.Unclassified = append(result.Unclassified, s)
			continue
		}
		slot := slotPaths[best].Slot
		path := slotPaths[best].Path
		s.Slot = &slot
		s.SlotPath = &path
		result.Classified = append(result.Classified, s)
	}
	return result
}
