package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ludics/config"
	"github.com/muesli/termenv"
)

const defaultThemeName = "kanagawa"

// Colors is the palette a theme is built from.
type Colors struct {
	Green     lipgloss.TerminalColor
	Yellow    lipgloss.TerminalColor
	Red       lipgloss.TerminalColor
	Orange    lipgloss.TerminalColor
	Blue      lipgloss.TerminalColor
	Cyan      lipgloss.TerminalColor
	Violet    lipgloss.TerminalColor
	LightText lipgloss.TerminalColor
	MutedText lipgloss.TerminalColor
	Border    lipgloss.TerminalColor
	Selected  lipgloss.TerminalColor
}

// Theme holds the styles used by console output and the TUI.
type Theme struct {
	Name   string
	Colors Colors

	Header lipgloss.Style
	Title  lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Bold   lipgloss.Style
	Italic lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Path   lipgloss.Style

	// Stale marks sessions with no recent activity
	Stale lipgloss.Style

	TableHeader lipgloss.Style
	SelectedRow lipgloss.Style
	Box         lipgloss.Style
}

var palettes = map[string]func() Colors{
	"kanagawa": func() Colors {
		adaptive := func(light, dark string) lipgloss.AdaptiveColor {
			return lipgloss.AdaptiveColor{Light: light, Dark: dark}
		}
		return Colors{
			Green:     adaptive("#4E7C5A", "#98BB6C"),
			Yellow:    adaptive("#A68A64", "#FF9E3B"),
			Red:       adaptive("#C34043", "#FF5D62"),
			Orange:    adaptive("#CC6B4E", "#FFA066"),
			Blue:      adaptive("#4D699B", "#7FB4CA"),
			Cyan:      adaptive("#5B8BBE", "#7E9CD8"),
			Violet:    adaptive("#674D7A", "#957FB8"),
			LightText: adaptive("#2B2F42", "#DCD7BA"),
			MutedText: adaptive("#6C7086", "#727169"),
			Border:    adaptive("#B5BDC5", "#363646"),
			Selected:  adaptive("#E2E6F3", "#223249"),
		}
	},
	"terminal": func() Colors {
		return Colors{
			Green:     lipgloss.Color("2"),
			Yellow:    lipgloss.Color("3"),
			Red:       lipgloss.Color("1"),
			Orange:    lipgloss.Color("208"),
			Blue:      lipgloss.Color("4"),
			Cyan:      lipgloss.Color("6"),
			Violet:    lipgloss.Color("5"),
			LightText: lipgloss.Color("7"),
			MutedText: lipgloss.Color("8"),
			Border:    lipgloss.Color("8"),
			Selected:  lipgloss.Color("8"),
		}
	},
}

// DefaultTheme is the theme selected for the current terminal and config.
var DefaultTheme = initDefaultTheme()

// NewThemeWithName constructs a theme from a palette name, falling back to the default palette.
func NewThemeWithName(name string) *Theme {
	key := normalizeThemeName(name)
	build, ok := palettes[key]
	if !ok {
		key = defaultThemeName
		build = palettes[key]
	}
	return newThemeFromColors(key, build())
}

func initDefaultTheme() *Theme {
	// NO_COLOR disables styling entirely
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return NewThemeWithName(getThemeName())
}

func newThemeFromColors(name string, c Colors) *Theme {
	return &Theme{
		Name:   name,
		Colors: c,

		Header: lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Title:  lipgloss.NewStyle().Bold(true).Underline(true),

		Success: lipgloss.NewStyle().Foreground(c.Green),
		Error:   lipgloss.NewStyle().Foreground(c.Red),
		Warning: lipgloss.NewStyle().Foreground(c.Yellow),
		Info:    lipgloss.NewStyle().Foreground(c.Cyan),

		Bold:   lipgloss.NewStyle().Bold(true),
		Italic: lipgloss.NewStyle().Italic(true),
		Muted:  lipgloss.NewStyle().Foreground(c.MutedText),
		Accent: lipgloss.NewStyle().Foreground(c.Violet),
		Path:   lipgloss.NewStyle().Foreground(c.Cyan).Italic(true),
		Stale:  lipgloss.NewStyle().Foreground(c.Orange),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(c.Border),
		SelectedRow: lipgloss.NewStyle().Background(c.Selected).Foreground(c.LightText),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.Border).
			Padding(0, 1),
	}
}

func normalizeThemeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return strings.ReplaceAll(normalized, "_", "-")
}

// getThemeName reads LUDICS_THEME, then the `tui.theme` config key.
func getThemeName() string {
	if theme := normalizeThemeName(os.Getenv("LUDICS_THEME")); theme != "" {
		return theme
	}

	cfg, err := config.LoadDefault()
	if err != nil || cfg == nil {
		return defaultThemeName
	}

	var tuiCfg struct {
		Theme string `yaml:"theme"`
	}
	if err := cfg.UnmarshalExtension("tui", &tuiCfg); err == nil {
		if theme := normalizeThemeName(tuiCfg.Theme); theme != "" {
			return theme
		}
	}
	return defaultThemeName
}
