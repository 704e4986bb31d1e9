package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultStaleThresholdSeconds marks sessions stale after 24 hours without activity.
	DefaultStaleThresholdSeconds int64 = 86400
	DefaultStatePath                   = "harness"
	DefaultSlotCount                   = 6
	DefaultDiscovererTimeout           = 5 * time.Second
)

// Config represents the ludics config.yaml (or config.toml).
type Config struct {
	StateRepo string `yaml:"state_repo,omitempty" toml:"state_repo,omitempty" json:"state_repo,omitempty" jsonschema:"description=GitHub repository (owner/name) holding the harness state,pattern=^[^/]+/[^/]+$"`
	StatePath string `yaml:"state_path,omitempty" toml:"state_path,omitempty" json:"state_path,omitempty" jsonschema:"description=Harness directory inside the state repository (default: harness)"`

	Slots    SlotsConfig    `yaml:"slots,omitempty" toml:"slots,omitempty" json:"slots,omitempty" jsonschema:"description=Slot settings"`
	Sessions SessionsConfig `yaml:"sessions,omitempty" toml:"sessions,omitempty" json:"sessions,omitempty" jsonschema:"description=Session discovery settings"`

	// Extensions captures all other top-level keys (logging, tui, and tool-specific sections).
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`

	// path is the file the config was loaded from.
	path string
}

// SlotsConfig configures the slots file.
type SlotsConfig struct {
	Count int `yaml:"count,omitempty" toml:"count,omitempty" json:"count,omitempty" jsonschema:"description=Number of slots (default: 6),minimum=1"`
}

// SessionsConfig configures session discovery.
type SessionsConfig struct {
	StaleThresholdSeconds int64    `yaml:"stale_threshold_seconds,omitempty" toml:"stale_threshold_seconds,omitempty" json:"stale_threshold_seconds,omitempty" jsonschema:"description=Seconds without activity before a session is stale (default: 86400),minimum=1"`
	DiscovererTimeout     string   `yaml:"discoverer_timeout,omitempty" toml:"discoverer_timeout,omitempty" json:"discoverer_timeout,omitempty" jsonschema:"description=Wall-clock limit per discoverer as a Go duration (default: 5s),pattern=^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"`
	CodexHome             string   `yaml:"codex_home,omitempty" toml:"codex_home,omitempty" json:"codex_home,omitempty" jsonschema:"description=Codex home directory (default: $CODEX_HOME or ~/.codex)"`
	ClaudeProjectsDir     string   `yaml:"claude_projects_dir,omitempty" toml:"claude_projects_dir,omitempty" json:"claude_projects_dir,omitempty" jsonschema:"description=Claude Code projects directory (default: $CLAUDE_PROJECTS_DIR or ~/.claude/projects)"`
	Ignore                []string `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty" jsonschema:"description=Glob patterns of working directories to leave out of discovery"`
	DisabledSources       []string `yaml:"disabled_sources,omitempty" toml:"disabled_sources,omitempty" json:"disabled_sources,omitempty" jsonschema:"description=Agent types whose discoverer is skipped (codex; claude-code; tmux; ttyd)"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.StatePath == "" {
		c.StatePath = DefaultStatePath
	}
	if c.Slots.Count == 0 {
		c.Slots.Count = DefaultSlotCount
	}
	if c.Sessions.StaleThresholdSeconds == 0 {
		c.Sessions.StaleThresholdSeconds = DefaultStaleThresholdSeconds
	}
}

// Path returns the file this config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// StaleThreshold returns the stale threshold as a duration.
func (c *Config) StaleThreshold() time.Duration {
	return time.Duration(c.Sessions.StaleThresholdSeconds) * time.Second
}

// DiscovererTimeout parses sessions.discoverer_timeout, falling back to the default.
func (c *Config) DiscovererTimeout() time.Duration {
	if c.Sessions.DiscovererTimeout == "" {
		return DefaultDiscovererTimeout
	}
	d, err := time.ParseDuration(c.Sessions.DiscovererTimeout)
	if err != nil || d <= 0 {
		return DefaultDiscovererTimeout
	}
	return d
}

// UnmarshalExtension decodes a specific extension's configuration into the
// provided target struct. The target must be a pointer. A missing key leaves
// the target zero-valued.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
