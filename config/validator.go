package config

import (
	"fmt"
	"sync"

	"github.com/grovetools/ludics/errors"
	"github.com/grovetools/ludics/schema"
)

var (
	validatorOnce sync.Once
	validatorInst *schema.Validator
	validatorErr  error
)

// SchemaValidator validates raw configuration data against the generated config schema.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator compiles the config schema once per process.
func NewSchemaValidator() (*SchemaValidator, error) {
	validatorOnce.Do(func() {
		var data []byte
		data, validatorErr = GenerateSchema()
		if validatorErr != nil {
			return
		}
		validatorInst, validatorErr = schema.NewValidator("ludics-config.json", data)
	})
	if validatorErr != nil {
		return nil, validatorErr
	}
	return &SchemaValidator{validator: validatorInst}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}

var validSources = map[string]bool{"codex": true, "claude-code": true, "tmux": true, "ttyd": true}

// Validate checks the semantic rules the schema cannot express.
func (c *Config) Validate() error {
	for _, s := range c.Sessions.DisabledSources {
		if !validSources[s] {
			return errors.ConfigInvalid(fmt.Sprintf("unknown session source %q in sessions.disabled_sources", s)).
				WithDetail("field", "sessions.disabled_sources")
		}
	}
	if c.Slots.Count < 0 {
		return errors.ConfigInvalid("slots.count must be positive").WithDetail("field", "slots.count")
	}
	return nil
}
