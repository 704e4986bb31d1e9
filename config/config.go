package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/grovetools/ludics/errors"
	"github.com/grovetools/ludics/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Format is the on-disk encoding of a config file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var pointerNames = []string{"config.yaml", "config.yml", "config.toml"}

// FormatForPath picks the decoder from a file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// PointerConfigPath returns the user-level config: $LUDICS_CONFIG, else the
// first existing config.{yaml,yml,toml} in the ludics config dir, else config.yaml there.
func PointerConfigPath() string {
	if env := os.Getenv("LUDICS_CONFIG"); env != "" {
		return env
	}
	dir := paths.ConfigDir()
	for _, name := range pointerNames {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return filepath.Join(dir, pointerNames[0])
}

// ResolveConfigPath follows the pointer config to the harness config when the
// pointer names a state repository whose harness directory carries its own config.
func ResolveConfigPath() string {
	pointer := PointerConfigPath()
	if !fileExists(pointer) {
		return pointer
	}

	cfg, err := decodeFile(pointer)
	if err != nil || cfg.StateRepo == "" {
		return pointer
	}

	harness, err := harnessDirFor(cfg.StateRepo, cfg.StatePath)
	if err != nil {
		return pointer
	}
	for _, name := range pointerNames {
		candidate := filepath.Join(harness, name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return pointer
}

// LoadDefault loads the config resolved by ResolveConfigPath.
func LoadDefault() (*Config, error) {
	return Load(ResolveConfigPath())
}

// Load reads, validates and defaults a config file. Environment overrides
// (SESSIONS_STALE_THRESHOLD, CODEX_HOME, CLAUDE_PROJECTS_DIR) are applied last.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := LoadFromBytes(data, FormatForPath(path))
	if err != nil {
		if le, ok := err.(*errors.LudicsError); ok {
			return nil, le.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// LoadFromBytes parses, validates and defaults configuration data.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, err
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create validator")
	}
	if err := validator.Validate(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "schema validation failed")
	}

	cfg, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv applies environment overrides on top of file values.
func (c *Config) ApplyEnv() {
	if env := os.Getenv("SESSIONS_STALE_THRESHOLD"); env != "" {
		if secs, err := strconv.ParseInt(env, 10, 64); err == nil && secs > 0 {
			c.Sessions.StaleThresholdSeconds = secs
		}
	}
	if env := os.Getenv("CODEX_HOME"); env != "" {
		c.Sessions.CodexHome = env
	}
	if env := os.Getenv("CLAUDE_PROJECTS_DIR"); env != "" {
		c.Sessions.ClaudeProjectsDir = env
	}
}

// HarnessDir returns $HOME/<repo name>/<state_path>.
func (c *Config) HarnessDir() (string, error) {
	return harnessDirFor(c.StateRepo, c.StatePath)
}

// SlotsFilePath returns the harness slots.md.
func (c *Config) SlotsFilePath() (string, error) {
	harness, err := c.HarnessDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(harness, "slots.md"), nil
}

// SessionsReportPath returns the harness sessions.md; the JSON snapshot sits beside it.
func (c *Config) SessionsReportPath() (string, error) {
	harness, err := c.HarnessDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(harness, "sessions.md"), nil
}

func harnessDirFor(stateRepo, statePath string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "cannot resolve home directory")
	}
	if statePath == "" {
		statePath = DefaultStatePath
	}
	repoName := stateRepo
	if i := strings.LastIndex(stateRepo, "/"); i >= 0 {
		repoName = stateRepo[i+1:]
	}
	return filepath.Join(home, repoName, statePath), nil
}

func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data, FormatForPath(path))
}

// decode parses data into a Config. TOML has no inline capture, so unknown
// top-level keys are collected from a generic decode.
func decode(data []byte, format Format) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))
	var cfg Config

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(expanded, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		raw, err := decodeRaw(data, format)
		if err != nil {
			return nil, err
		}
		for key, value := range raw {
			if knownKeys[key] {
				continue
			}
			if cfg.Extensions == nil {
				cfg.Extensions = make(map[string]interface{})
			}
			cfg.Extensions[key] = value
		}
	default:
		if len(bytes.TrimSpace(expanded)) == 0 {
			return &cfg, nil
		}
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}
	return &cfg, nil
}

var knownKeys = map[string]bool{"state_repo": true, "state_path": true, "slots": true, "sessions": true}

// decodeRaw parses data into a generic map for schema validation.
func decodeRaw(data []byte, format Format) (map[string]interface{}, error) {
	expanded := []byte(expandEnvVars(string(data)))
	raw := map[string]interface{}{}

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(expanded, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
	default:
		if err := yaml.Unmarshal(expanded, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}
	return raw, nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
