package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/botdash/internal/logtail"
)

// syncLogViewport fits the log viewport to the window and reloads its
// content. A viewport already at the bottom keeps following new lines.
func (m *Model) syncLogViewport() {
	if !m.ready {
		return
	}
	vp := &m.logViewport
	follow := vp.AtBottom() || vp.TotalLineCount() == 0

	vp.Width, vp.Height = max(m.width-2, 1), max(m.height-4, 1)
	vp.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.SurfaceAlt))
	vp.SetContent(m.logContent())
	if follow {
		vp.GotoBottom()
	}
}

func (m Model) logContent() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	switch {
	case m.logErr != nil:
		return styles.DangerText.Render("Unable to read log: " + m.logErr.Error())
	case len(m.logLines) > 0:
		rendered := make([]string, len(m.logLines))
		for i, line := range m.logLines {
			rendered[i] = levelStyle(line, styles).Render(line.Text)
		}
		return strings.Join(rendered, "\n")
	case m.logPath == "":
		return styles.FaintText.Render("Logging to file is disabled")
	default:
		return styles.FaintText.Render("No log output yet")
	}
}

func levelStyle(line logtail.Line, styles Styles) lipgloss.Style {
	switch {
	case line.Level >= zerolog.ErrorLevel && line.Level <= zerolog.PanicLevel:
		return styles.DangerText
	case line.Level == zerolog.WarnLevel:
		return styles.WarningText
	case line.Level == zerolog.DebugLevel || line.Level == zerolog.TraceLevel:
		return styles.FaintText
	}
	return styles.Text
}

func (m Model) renderLogs(height int) string {
	title := "Logs"
	if m.logPath != "" {
		title += " · " + truncate(m.logPath, max(m.width-20, 10))
	}
	vp := m.logViewport
	vp.Height = max(height-2, 1)
	return m.renderTitledBox(title, vp.View(), m.width, height, true)
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.logViewport
	switch {
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		vp.ScrollUp(1)
	case key.Matches(msg, m.keys.PageDown):
		vp.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		vp.PageUp()
	}
	return m, nil
}
