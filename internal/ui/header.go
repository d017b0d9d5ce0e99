package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/five82/botdash/internal/botapi"
	"github.com/five82/botdash/internal/state"
)

// renderHeader renders the bot status line.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	status := m.view.Status
	if !status.HasData || status.Data == nil {
		return m.renderConnectingHeader(styles, bg)
	}

	sep := bg.Spaces(2)
	bot := status.Data
	parts := []string{bg.Render("botdash", styles.Logo)}

	if bot.Online() {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	}

	parts = append(parts,
		bg.Render("Uptime:", styles.MutedText)+bg.Space()+
			bg.Render(formatUptime(bot.Uptime()), styles.Text),
		bg.Render("Servers:", styles.MutedText)+bg.Space()+
			bg.Render(formatCount(bot.GuildCount), styles.Text),
		bg.Render("Users:", styles.MutedText)+bg.Space()+
			bg.Render(formatCount(bot.UserCount), styles.Text),
	)

	if sel := m.view.Selection; sel.Phase != state.NoServerSelected && m.width >= 100 {
		name := truncate(m.view.GuildName, 24)
		parts = append(parts,
			bg.Render("Server:", styles.MutedText)+bg.Space()+bg.Render(name, styles.AccentText))
	}

	switch {
	case status.Failed():
		parts = append(parts, bg.Render("API "+describeError(status.Err), styles.WarningText))
	case status.Fetching:
		parts = append(parts, bg.Render(m.spinner.View(), styles.InfoText))
	}

	if m.width >= 120 {
		parts = append(parts, bg.Render("updated "+formatRelative(status.UpdatedAt, m.now), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderConnectingHeader shows the connecting/error state before the first
// status arrives.
func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)

	if err := m.view.Status.Err; err != nil {
		parts := []string{
			bg.Render("botdash", styles.Logo),
			bg.Render("API "+describeError(err), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		}
		if m.logPath != "" {
			parts = append(parts,
				bg.Render("logs", styles.FaintText)+bg.Space()+
					bg.Render(truncate(m.logPath, 50), styles.MutedText))
		}
		return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
	}

	return styles.Header.Width(m.width).Render(
		bg.Render("botdash", styles.Logo) + sep +
			bg.Render(m.spinner.View(), styles.InfoText) + bg.Space() +
			bg.Render("Connecting to bot API...", styles.WarningText.Bold(true)),
	)
}

// describeError returns a short label for a failed request.
func describeError(err error) string {
	var netErr *botapi.NetworkError
	var apiErr *botapi.APIError
	var decodeErr *botapi.DecodeError
	switch {
	case errors.As(err, &netErr):
		return "UNREACHABLE"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	case errors.As(err, &decodeErr):
		return "BAD RESPONSE"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the keyboard shortcuts bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"o", "Overview"},
			{"?", "More"},
		}
	default: // ViewOverview
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Select"},
			{"c", actionLabel("Clear", m.view.Actions.ClearQueue)},
			{"R", actionLabel("Restart", m.view.Actions.RestartBot)},
			{"r", actionLabel("Refresh", m.view.Actions.Refresh)},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Footer.Width(m.width).Render(strings.Join(segments, sep))
}

func actionLabel(label string, pending bool) string {
	if pending {
		return label + "…"
	}
	return label
}
