package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named color palette.
type Theme struct {
	Name string

	Background string // outermost background
	Surface    string // header and command bar
	SurfaceAlt string // panel interiors
	FocusBg    string // focused panel interior

	SelectionBg   string // sidebar cursor row
	SelectionText string

	Border      string
	BorderMuted string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// KindColors maps activity kinds and bot states to colors.
	KindColors map[string]string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style
	SurfaceAlt lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	kindColors map[string]string
	background string
	muted      string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	panel := func(bg string) lipgloss.Style {
		return fg(t.Text).Background(lipgloss.Color(bg))
	}

	return Styles{
		Background: lipgloss.NewStyle().Background(lipgloss.Color(t.Background)),
		Surface:    panel(t.Surface),
		SurfaceAlt: panel(t.SurfaceAlt),

		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   panel(t.Surface).Padding(0, 1),
		Footer:   fg(t.Muted).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:     fg(t.Accent).Bold(true),
		Selected: fg(t.SelectionText).Background(lipgloss.Color(t.SelectionBg)),

		kindColors: t.KindColors,
		background: t.Background,
		muted:      t.Muted,
	}
}

// KindColor returns the color for an activity kind or bot state, falling
// back to the muted text color.
func (s Styles) KindColor(kind string) lipgloss.Color {
	if color := s.kindColors[kind]; color != "" {
		return lipgloss.Color(color)
	}
	return lipgloss.Color(s.muted)
}

// BadgeStyle returns an inverted badge for the given kind.
func (s Styles) BadgeStyle(kind string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(s.KindColor(kind)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles where every style paints the given
// background, so adjacent segments never fall back to the terminal default.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, style := range []*lipgloss.Style{
		&out.Background, &out.Surface, &out.SurfaceAlt,
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Footer, &out.Logo, &out.Selected,
	} {
		*style = style.Background(bg)
	}
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Blurple"}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Blurple":  blurpleTheme(),
}

// GetTheme returns a theme by name, defaulting to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names in cycle order.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

// kindPalette builds the activity colors from a theme's accents. Errors
// share the offline color.
func kindPalette(online, offline, command, moderation, music, join, leave string) map[string]string {
	return map[string]string{
		"online":     online,
		"offline":    offline,
		"command":    command,
		"moderation": moderation,
		"music":      music,
		"join":       join,
		"leave":      leave,
		"error":      offline,
	}
}

// https://github.com/EdenEast/nightfox.nvim
func nightfoxTheme() Theme {
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24",
		Surface:       "#192330",
		SurfaceAlt:    "#212e3f",
		FocusBg:       "#29394f",
		SelectionBg:   "#2b3b51",
		SelectionText: "#cdcecf",
		Border:        "#39506d",
		BorderMuted:   "#212e3f",
		BorderFocus:   "#719cd6",
		Text:          "#cdcecf",
		Muted:         "#738091",
		Faint:         "#71839b",
		Accent:        "#719cd6",
		Success:       "#81b29a",
		Warning:       "#dbc074",
		Danger:        "#c94f6d",
		Info:          "#63cdcf",
		KindColors:    kindPalette("#81b29a", "#c94f6d", "#719cd6", "#f4a261", "#9d79d6", "#63cdcf", "#71839b"),
	}
}

// https://github.com/rebelot/kanagawa.nvim
func kanagawaTheme() Theme {
	return Theme{
		Name:          "Kanagawa",
		Background:    "#16161D",
		Surface:       "#1F1F28",
		SurfaceAlt:    "#2A2A37",
		FocusBg:       "#2A2A37",
		SelectionBg:   "#2D4F67",
		SelectionText: "#DCD7BA",
		Border:        "#54546D",
		BorderMuted:   "#2A2A37",
		BorderFocus:   "#7E9CD8",
		Text:          "#DCD7BA",
		Muted:         "#C8C093",
		Faint:         "#727169",
		Accent:        "#7E9CD8",
		Success:       "#98BB6C",
		Warning:       "#E6C384",
		Danger:        "#E46876",
		Info:          "#7FB4CA",
		KindColors:    kindPalette("#98BB6C", "#E46876", "#7E9CD8", "#FFA066", "#957FB8", "#7FB4CA", "#727169"),
	}
}

// Discord's dark client palette.
func blurpleTheme() Theme {
	return Theme{
		Name:          "Blurple",
		Background:    "#1e1f22",
		Surface:       "#2b2d31",
		SurfaceAlt:    "#313338",
		FocusBg:       "#383a40",
		SelectionBg:   "#404249",
		SelectionText: "#f2f3f5",
		Border:        "#4e5058",
		BorderMuted:   "#2b2d31",
		BorderFocus:   "#5865f2",
		Text:          "#dbdee1",
		Muted:         "#949ba4",
		Faint:         "#6d6f78",
		Accent:        "#5865f2",
		Success:       "#23a55a",
		Warning:       "#f0b232",
		Danger:        "#f23f43",
		Info:          "#00a8fc",
		KindColors:    kindPalette("#23a55a", "#f23f43", "#00a8fc", "#f0b232", "#eb459e", "#57f287", "#6d6f78"),
	}
}
