package render

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme for the chat interface
type TUITheme struct {
	Name        string
	Description string

	Surface lipgloss.Color
	Border  lipgloss.Color

	Primary   lipgloss.Color // assistant accents, focused borders
	Secondary lipgloss.Color // user accents, success notices
	Accent    lipgloss.Color
	Warning   lipgloss.Color // info notices
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

var themes = map[string]TUITheme{
	"tokyonight": {
		Name:        "tokyonight",
		Description: "Dark theme with blue accents",
		Surface:     lipgloss.Color("#24283b"),
		Border:      lipgloss.Color("#414868"),
		Primary:     lipgloss.Color("#7aa2f7"),
		Secondary:   lipgloss.Color("#9ece6a"),
		Accent:      lipgloss.Color("#bb9af7"),
		Warning:     lipgloss.Color("#e0af68"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
		TextMute:    lipgloss.Color("#3b4261"),
	},
	"dracula": {
		Name:        "dracula",
		Description: "Dark theme with vibrant colors",
		Surface:     lipgloss.Color("#44475a"),
		Border:      lipgloss.Color("#6272a4"),
		Primary:     lipgloss.Color("#8be9fd"),
		Secondary:   lipgloss.Color("#50fa7b"),
		Accent:      lipgloss.Color("#ff79c6"),
		Warning:     lipgloss.Color("#f1fa8c"),
		Error:       lipgloss.Color("#ff5555"),
		Text:        lipgloss.Color("#f8f8f2"),
		TextDim:     lipgloss.Color("#6272a4"),
		TextMute:    lipgloss.Color("#44475a"),
	},
	"paper": {
		Name:        "paper",
		Description: "Light theme for bright terminals",
		Surface:     lipgloss.Color("#f4f4f4"),
		Border:      lipgloss.Color("#c8c8c8"),
		Primary:     lipgloss.Color("#1f5fbf"),
		Secondary:   lipgloss.Color("#2e7d32"),
		Accent:      lipgloss.Color("#7b1fa2"),
		Warning:     lipgloss.Color("#b26a00"),
		Error:       lipgloss.Color("#c62828"),
		Text:        lipgloss.Color("#212121"),
		TextDim:     lipgloss.Color("#616161"),
		TextMute:    lipgloss.Color("#9e9e9e"),
	},
}

// DefaultThemeName is used when the configured theme is unknown.
const DefaultThemeName = "tokyonight"

// ThemeByName returns the theme registered under name.
func ThemeByName(name string) (TUITheme, bool) {
	t, ok := themes[name]
	return t, ok
}

// ThemeOrDefault returns the named theme, or the default theme.
func ThemeOrDefault(name string) TUITheme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[DefaultThemeName]
}

// ThemeNames returns the registered theme names in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
