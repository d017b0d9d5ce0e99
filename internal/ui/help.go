package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpKeyWidth = 12

// renderHelp draws the key reference from the live key bindings.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := styles.WarningText.Width(helpKeyWidth)

	lines := []string{
		styles.Text.Bold(true).Render("Keyboard Shortcuts"),
		styles.FaintText.Render(strings.Repeat("─", 30)),
	}
	for _, group := range m.keys.helpGroups() {
		lines = append(lines, "", styles.AccentText.Bold(true).Render(group.title))
		for _, b := range group.bindings {
			h := b.Help()
			lines = append(lines, keyStyle.Render(h.Key)+styles.Text.Render(h.Desc))
		}
	}
	return m.renderModal(strings.Join(lines, "\n"), 40, m.theme.Accent)
}

// renderConfirm draws the yes/no prompt for a pending action.
func (m Model) renderConfirm() string {
	styles := m.theme.Styles()
	hint := styles.AccentText.Render("y/enter") + styles.MutedText.Render(" confirm   ") +
		styles.AccentText.Render("any key") + styles.MutedText.Render(" cancel")

	body := styles.WarningText.Bold(true).Render(m.confirm.question) + "\n\n" + hint
	return m.renderModal(body, 36, m.theme.Warning)
}

// renderModal centers content in a rounded box over an empty screen.
func (m Model) renderModal(content string, width int, border string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(width).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
