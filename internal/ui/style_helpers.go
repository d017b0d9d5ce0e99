package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints text onto a fixed background color. Lipgloss resets styling
// after every rendered string, so spaces between words are rendered as their
// own painted cells instead of being left to the terminal default.
type BgStyle struct {
	bg   lipgloss.Color
	fill lipgloss.Style
}

// NewBgStyle returns a painter for bgColor.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{bg: bg, fill: lipgloss.NewStyle().Background(bg)}
}

// Render applies style to text on the painter's background, including every
// run of spaces inside text.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(b.bg)

	var out strings.Builder
	for text != "" {
		n := strings.IndexByte(text, ' ')
		switch {
		case n < 0:
			out.WriteString(style.Render(text))
			return out.String()
		case n > 0:
			out.WriteString(style.Render(text[:n]))
			text = text[n:]
		default:
			run := len(text) - len(strings.TrimLeft(text, " "))
			out.WriteString(b.Spaces(run))
			text = text[run:]
		}
	}
	return out.String()
}

// Space returns one painted space.
func (b BgStyle) Space() string { return b.fill.Render(" ") }

// Spaces returns n painted spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return b.fill.Render(strings.Repeat(" ", n))
}

// Sep paints a separator such as " │ ".
func (b BgStyle) Sep(sep string) string { return b.fill.Render(sep) }

// FillLine pads content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return b.fill.Width(width).Render(content)
}
