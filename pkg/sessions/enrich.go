package sessions

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/ludics/pkg/models"
)

// maxAncestorDepth caps the upward walk so a symlink loop cannot spin forever.
const maxAncestorDepth = 256

// OrchestrationCache maps marker directory paths to the orchestration they describe.
type OrchestrationCache struct {
	markerDir string
	byMarker  map[string]*models.Orchestration
}

// EnrichWithOrchestration finds the marker directory above every session's
// cwd and reads each distinct marker once.
func EnrichWithOrchestration(sessions []models.DiscoveredSession, markerDir string) *OrchestrationCache {
	if markerDir == "" {
		markerDir = DefaultMarkerDir
	}
	cache := &OrchestrationCache{
		markerDir: markerDir,
		byMarker:  make(map[string]*models.Orchestration),
	}
	for _, s := range sessions {
		if s.Cwd == UnknownCwd || s.Cwd == "" {
			continue
		}
		marker := findMarkerDir(s.Cwd, markerDir)
		if marker == "" {
			continue
		}
		if _, ok := cache.byMarker[marker]; !ok {
			cache.byMarker[marker] = readOrchestration(marker)
		}
	}
	return cache
}

// ForCwd walks up from cwd and returns the cached orchestration for the
// nearest marker, or nil.
func (c *OrchestrationCache) ForCwd(cwd string) *models.Orchestration {
	if c == nil || cwd == "" || cwd == UnknownCwd {
		return nil
	}
	marker := findMarkerDir(cwd, c.markerDir)
	if marker == "" {
		return nil
	}
	return c.byMarker[marker]
}

// Len returns the number of distinct markers found.
func (c *OrchestrationCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byMarker)
}

func findMarkerDir(cwd, markerDir string) string {
	dir := cwd
	for i := 0; i < maxAncestorDepth && dir != ""; i++ {
		candidate := filepath.Join(dir, markerDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// readOrchestration reads the marker files. Missing files read as "".
func readOrchestration(marker string) *models.Orchestration {
	o := &models.Orchestration{
		Mode:         readMarkerFile(marker, "mode"),
		Feature:      readMarkerFile(marker, "feature"),
		Phase:        readMarkerFile(marker, "phase"),
		Round:        readMarkerFile(marker, "round"),
		PeerSyncPath: marker,
	}
	if o.Mode == "" && o.Phase == "" {
		applyStateFile(o, filepath.Join(marker, "state.json"))
	}
	if o.Mode == "pair" {
		o.CoderAgent = readMarkerFile(marker, "coder-agent")
	}
	o.Type = models.ClassifyOrchestration(o.Mode, o.CoderAgent)
	return o
}

func readMarkerFile(marker, name string) string {
	data, err := os.ReadFile(filepath.Join(marker, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// markerState is the single-file form some orchestrators write instead of
// one file per field. Round may be a number.
type markerState struct {
	Mode    json.RawMessage `json:"mode"`
	Feature json.RawMessage `json:"feature"`
	Phase   json.RawMessage `json:"phase"`
	Round   json.RawMessage `json:"round"`
}

func applyStateFile(o *models.Orchestration, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var st markerState
	if err := json.Unmarshal(data, &st); err != nil {
		return
	}
	o.Mode = firstNonEmpty(o.Mode, rawText(st.Mode))
	o.Feature = firstNonEmpty(o.Feature, rawText(st.Feature))
	o.Phase = firstNonEmpty(o.Phase, rawText(st.Phase))
	o.Round = firstNonEmpty(o.Round, rawText(st.Round))
}

// rawText renders a JSON string or number as plain text.
func rawText(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
