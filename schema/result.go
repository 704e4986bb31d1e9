package schema

import (
	"encoding/json"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/invopop/jsonschema"
)

// GenerateResultSchema describes the sessions.json snapshot written next to sessions.md.
func GenerateResultSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
		DoNotReference:             true,
	}

	s := r.Reflect(&models.DiscoveryResult{})
	s.Title = "Ludics Sessions Snapshot"
	s.Description = "Deduplicated and classified agent sessions from one discovery pass."
	s.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(s, "", "  ")
}
