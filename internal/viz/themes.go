package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme for the TUI and the compartments.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color

	Susceptible lipgloss.Color
	Immune      lipgloss.Color
	Exposed     lipgloss.Color
	Infectious  lipgloss.Color
	Recovered   lipgloss.Color
	Dead        lipgloss.Color
}

var (
	ThemeClinical = Theme{
		Name:        "clinical",
		Primary:     lipgloss.Color("#00ffff"),
		Secondary:   lipgloss.Color("#88aaff"),
		Accent:      lipgloss.Color("#ff00ff"),
		Text:        lipgloss.Color("#ffffff"),
		Muted:       lipgloss.Color("#666688"),
		Susceptible: lipgloss.Color("#3a7bd5"),
		Immune:      lipgloss.Color("#9ad0ff"),
		Exposed:     lipgloss.Color("#ffb020"),
		Infectious:  lipgloss.Color("#ff3b3b"),
		Recovered:   lipgloss.Color("#2ecc71"),
		Dead:        lipgloss.Color("#555555"),
	}

	ThemeRetroGreen = Theme{
		Name:        "retro",
		Primary:     lipgloss.Color("#00ff00"),
		Secondary:   lipgloss.Color("#00cc00"),
		Accent:      lipgloss.Color("#88ff88"),
		Text:        lipgloss.Color("#00ff00"),
		Muted:       lipgloss.Color("#005500"),
		Susceptible: lipgloss.Color("#004400"),
		Immune:      lipgloss.Color("#007700"),
		Exposed:     lipgloss.Color("#aaff00"),
		Infectious:  lipgloss.Color("#ffff00"),
		Recovered:   lipgloss.Color("#00cc66"),
		Dead:        lipgloss.Color("#002200"),
	}

	ThemeSunset = Theme{
		Name:        "sunset",
		Primary:     lipgloss.Color("#ff6b6b"),
		Secondary:   lipgloss.Color("#feca57"),
		Accent:      lipgloss.Color("#ff9ff3"),
		Text:        lipgloss.Color("#fff5f5"),
		Muted:       lipgloss.Color("#8b6b8c"),
		Susceptible: lipgloss.Color("#5f4b8b"),
		Immune:      lipgloss.Color("#a29bfe"),
		Exposed:     lipgloss.Color("#feca57"),
		Infectious:  lipgloss.Color("#ff4757"),
		Recovered:   lipgloss.Color("#5fd068"),
		Dead:        lipgloss.Color("#2d1b2e"),
	}

	// Default theme
	CurrentTheme = ThemeClinical

	Themes = []Theme{
		ThemeClinical,
		ThemeRetroGreen,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClinical
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
