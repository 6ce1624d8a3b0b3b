package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette a Renderer draws with.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Value   lipgloss.Color
	Label   lipgloss.Color
	Muted   lipgloss.Color
	Low     lipgloss.Color
	Mid     lipgloss.Color
	High    lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeNeon = Theme{
		Name:    "neon",
		Title:   lipgloss.Color("#00ffff"),
		Value:   lipgloss.Color("#00ccff"),
		Label:   lipgloss.Color("#888899"),
		Muted:   lipgloss.Color("#666688"),
		Low:     lipgloss.Color("#00ff88"),
		Mid:     lipgloss.Color("#ffcc00"),
		High:    lipgloss.Color("#ff4444"),
		Warning: lipgloss.Color("#ff00ff"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Title:   lipgloss.Color("#00a8cc"),
		Value:   lipgloss.Color("#e0f0ff"),
		Label:   lipgloss.Color("#4488aa"),
		Muted:   lipgloss.Color("#335566"),
		Low:     lipgloss.Color("#00ff88"),
		Mid:     lipgloss.Color("#ffd700"),
		High:    lipgloss.Color("#ff4757"),
		Warning: lipgloss.Color("#ffc048"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Title:   lipgloss.Color("#ffffff"),
		Value:   lipgloss.Color("#ffffff"),
		Label:   lipgloss.Color("#aaaaaa"),
		Muted:   lipgloss.Color("#777777"),
		Low:     lipgloss.Color("#cccccc"),
		Mid:     lipgloss.Color("#cccccc"),
		High:    lipgloss.Color("#ffffff"),
		Warning: lipgloss.Color("#ffffff"),
	}

	Themes = []Theme{ThemeNeon, ThemeOcean, ThemeMono}
)

// GetTheme returns the named theme, falling back to neon.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNeon
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
