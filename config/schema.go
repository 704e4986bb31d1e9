package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the ludics config. Top-level
// keys outside the known set are extensions and stay allowed; nested
// sections reject unknown fields.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	s := r.Reflect(&Config{})
	s.Title = "Ludics Configuration"
	s.Description = "Schema for ludics config.yaml / config.toml."
	s.Version = "http://json-schema.org/draft-07/schema#"
	s.AdditionalProperties = jsonschema.TrueSchema

	return json.MarshalIndent(s, "", "  ")
}
