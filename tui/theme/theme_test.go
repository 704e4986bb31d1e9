package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewThemeWithName(t *testing.T) {
	assert.Equal(t, "terminal", NewThemeWithName("Terminal").Name)
	assert.Equal(t, "kanagawa", NewThemeWithName("no-such-theme").Name)
}

func TestNormalizeThemeName(t *testing.T) {
	assert.Equal(t, "kanagawa-dark", normalizeThemeName("  Kanagawa_Dark "))
}

func TestThemeNameFromEnv(t *testing.T) {
	t.Setenv("LUDICS_THEME", "terminal")
	assert.Equal(t, "terminal", getThemeName())
}
