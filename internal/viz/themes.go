package viz

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name    string
	Field   lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Good    lipgloss.Color
	Warning lipgloss.Color
	Bad     lipgloss.Color
}

var (
	ThemeCarpet = Theme{
		Name:    "carpet",
		Field:   lipgloss.Color("#5fd068"),
		Accent:  lipgloss.Color("#00ccff"),
		Text:    lipgloss.Color("#e0e0e0"),
		Muted:   lipgloss.Color("#666688"),
		Good:    lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeBlue = Theme{
		Name:    "blue",
		Field:   lipgloss.Color("#0077be"),
		Accent:  lipgloss.Color("#00a8cc"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Good:    lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffd700"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeRed = Theme{
		Name:    "red",
		Field:   lipgloss.Color("#ff6b6b"),
		Accent:  lipgloss.Color("#feca57"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Good:    lipgloss.Color("#5fd068"),
		Warning: lipgloss.Color("#ffc048"),
		Bad:     lipgloss.Color("#ff4757"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Field:   lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#cccccc"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Good:    lipgloss.Color("#ffffff"),
		Warning: lipgloss.Color("#cccccc"),
		Bad:     lipgloss.Color("#888888"),
	}

	Themes = []Theme{ThemeCarpet, ThemeBlue, ThemeRed, ThemeMono}
)

// GetTheme returns a theme by name, falling back to carpet.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCarpet
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func (t Theme) fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Flag colors a boolean indicator.
func (t Theme) Flag(on bool, label string) string {
	if on {
		return t.fg(t.Good).Bold(true).Render("● " + label)
	}
	return t.fg(t.Muted).Render("○ " + label)
}
