package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/botdash/internal/botapi"
	"github.com/five82/botdash/internal/dashboard"
	"github.com/five82/botdash/internal/state"
)

const (
	sidebarMinWidth = 22
	sidebarMaxWidth = 32
	cardHeight      = 3
	actionsHeight   = 3
	maxToasts       = 3
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	toasts := m.renderToasts()
	height := m.height - 2
	if toasts != "" {
		height -= lipgloss.Height(toasts)
	}

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs(height))
	default:
		b.WriteString(m.renderOverview(height))
	}

	if toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
	}
	return b.String()
}

// renderOverview lays out the sidebar and the selected server's panels.
func (m Model) renderOverview(height int) string {
	if height < 4 {
		return ""
	}
	sidebarWidth := min(max(m.width/4, sidebarMinWidth), sidebarMaxWidth)
	mainWidth := m.width - sidebarWidth
	if mainWidth < 20 {
		return m.renderSidebar(m.width, height)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(sidebarWidth, height),
		m.renderServer(mainWidth, height),
	)
}

// renderSidebar renders the guild list with the cursor and the selection
// marker.
func (m Model) renderSidebar(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	guilds := m.view.Guilds

	title := "Servers"
	if guilds.HasData {
		title = fmt.Sprintf("Servers (%d)", len(guilds.Data))
	}

	if text, ok := m.placeholder(guilds.HasData, guilds.Loading, guilds.Err, styles); ok {
		return m.renderTitledBox(title, text, width, height, true)
	}
	if len(guilds.Data) == 0 {
		return m.renderTitledBox(title, styles.FaintText.Render("Bot is in no servers"), width, height, true)
	}

	rows := height - 2
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}

	var lines []string
	for i := start; i < len(guilds.Data) && len(lines) < rows; i++ {
		g := guilds.Data[i]
		marker := "  "
		if g.ID == m.view.Selection.GuildID && m.view.Selection.Active() {
			marker = "● "
		}
		label := marker + truncate(g.Name, width-5)
		if i == m.cursor {
			lines = append(lines, styles.Selected.Width(width-2).Render(label))
			continue
		}
		lines = append(lines, styles.Text.Render(label))
	}
	if guilds.Failed() {
		lines = append(lines, styles.WarningText.Render("! "+describeError(guilds.Err)))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}

// renderServer renders the right column for the current selection.
func (m Model) renderServer(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	sel := m.view.Selection

	switch sel.Phase {
	case state.NoServerSelected:
		text := styles.MutedText.Render("Select a server with j/k and enter")
		if m.view.Guilds.Loading {
			text = styles.MutedText.Render(m.spinner.View() + " Loading servers...")
		}
		return m.renderTitledBox("Overview", text, width, height, false)
	case state.ServerUnavailable:
		text := strings.Join([]string{
			styles.WarningText.Render("Server " + sel.GuildID + " is no longer available."),
			styles.MutedText.Render("It will be reselected if the bot rejoins."),
		}, "\n")
		return m.renderTitledBox("Server unavailable", text, width, height, false)
	}

	lowerHeight := height - 1 - cardHeight - actionsHeight
	sections := []string{
		m.renderServerTitle(width),
		m.renderStatCards(width),
	}
	if lowerHeight >= 3 {
		activityWidth := width / 2
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderActivity(activityWidth, lowerHeight),
			m.renderQueue(width-activityWidth, lowerHeight),
		))
	}
	sections = append(sections, m.renderActions(width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderServerTitle renders the guild name and member count line.
func (m Model) renderServerTitle(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	parts := []string{bg.Render(truncate(m.view.GuildName, width/2), styles.AccentText.Bold(true))}
	if info := m.view.Guild; info.HasData && info.Data != nil {
		if members, ok := info.Data.Members(); ok {
			parts = append(parts, bg.Render(formatCount(members)+" members", styles.MutedText))
		}
	} else if info.Failed() {
		parts = append(parts, bg.Render("details unavailable", styles.FaintText))
	}
	if m.serverFetching() {
		parts = append(parts, bg.Render(m.spinner.View(), styles.InfoText))
	}
	return bg.FillLine(" "+strings.Join(parts, bg.Spaces(2)), width)
}

// serverFetching reports whether any server panel is loading in the
// background.
func (m Model) serverFetching() bool {
	v := m.view
	return v.Guild.Fetching || v.Stats.Fetching || v.Activity.Fetching || v.Queue.Fetching
}

// renderStatCards renders the four server counters side by side.
func (m Model) renderStatCards(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	stats := m.view.Stats

	type card struct {
		label string
		value func(*botapi.ServerStats) int
	}
	cards := []card{
		{"Commands", func(s *botapi.ServerStats) int { return s.CommandsUsed }},
		{"Moderation", func(s *botapi.ServerStats) int { return s.ModerationActions }},
		{"Songs", func(s *botapi.ServerStats) int { return s.SongsPlayed }},
		{"Active", func(s *botapi.ServerStats) int { return s.ActiveMembers }},
	}

	cardWidth := width / len(cards)
	rendered := make([]string, 0, len(cards))
	for i, c := range cards {
		w := cardWidth
		if i == len(cards)-1 {
			w = width - cardWidth*(len(cards)-1)
		}
		var value string
		switch {
		case stats.HasData && stats.Data != nil:
			value = styles.Text.Bold(true).Render(formatCount(c.value(stats.Data)))
		case stats.Failed():
			value = styles.DangerText.Render("--")
		default:
			value = styles.FaintText.Render(m.spinner.View())
		}
		title := c.label
		if stats.Failed() && stats.HasData {
			title += " !"
		}
		rendered = append(rendered, m.renderTitledBox(title, " "+value, w, cardHeight, false))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderActivity renders the recent activity feed, newest first as served.
func (m Model) renderActivity(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	feed := m.view.Activity

	if text, ok := m.placeholder(feed.HasData, feed.Loading, feed.Err, styles); ok {
		return m.renderTitledBox("Recent Activity", text, width, height, false)
	}
	if len(feed.Data) == 0 {
		return m.renderTitledBox("Recent Activity", styles.FaintText.Render("Nothing yet"), width, height, false)
	}

	inner := width - 2
	var lines []string
	for _, a := range feed.Data {
		if len(lines) >= height-2 {
			break
		}
		lines = append(lines, m.activityLine(a, inner, styles, bg))
	}
	return m.renderTitledBox("Recent Activity", strings.Join(lines, "\n"), width, height, false)
}

func (m Model) activityLine(a botapi.Activity, width int, styles Styles, bg BgStyle) string {
	kind := ParseActivityKind(a.Type)
	glyph := lipgloss.NewStyle().Foreground(styles.KindColor(kind.String()))

	when := formatRelative(a.ParsedTime(), m.now)
	text := a.Description
	if a.Reason != "" {
		text += " (" + a.Reason + ")"
	}
	text = truncate(text, width-lipgloss.Width(when)-5)

	return bg.Render(" "+kind.Glyph(), glyph) + bg.Space() +
		bg.Render(text, styles.Text) + bg.Spaces(2) +
		bg.Render(when, styles.FaintText)
}

// renderQueue renders the now-playing track and the upcoming queue.
func (m Model) renderQueue(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	queue := m.view.Queue

	title := "Music Queue"
	if queue.HasData && queue.Data != nil {
		title = fmt.Sprintf("Music Queue (%d)", len(queue.Data.Tracks))
	}
	if text, ok := m.placeholder(queue.HasData, queue.Loading, queue.Err, styles); ok {
		return m.renderTitledBox(title, text, width, height, false)
	}
	q := queue.Data
	if q == nil || q.Len() == 0 {
		return m.renderTitledBox(title, styles.FaintText.Render("Queue is empty"), width, height, false)
	}

	inner := width - 2
	var lines []string
	if q.NowPlaying != nil {
		lines = append(lines,
			bg.Render(" ▶", styles.SuccessText)+bg.Space()+m.trackLine(*q.NowPlaying, inner-3, styles, bg))
	}
	for i, t := range q.Tracks {
		if len(lines) >= height-2 {
			break
		}
		num := fmt.Sprintf("%2d", i+1)
		lines = append(lines, bg.Render(num, styles.FaintText)+bg.Space()+m.trackLine(t, inner-3, styles, bg))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, false)
}

func (m Model) trackLine(t botapi.Track, width int, styles Styles, bg BgStyle) string {
	length := formatTrackLength(t.Duration())
	label := t.Title
	if t.Author != "" {
		label += " · " + t.Author
	}
	label = truncate(label, width-lipgloss.Width(length)-2)
	line := bg.Render(label, styles.Text) + bg.Spaces(2) + bg.Render(length, styles.MutedText)
	if t.RequestedBy != "" && m.width >= 140 {
		line += bg.Spaces(2) + bg.Render("@"+t.RequestedBy, styles.FaintText)
	}
	return line
}

// renderActions renders the quick action buttons with pending markers.
func (m Model) renderActions(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	actions := m.view.Actions

	buttons := []struct {
		key, label string
		pending    bool
	}{
		{"c", "Clear queue", actions.ClearQueue},
		{"R", "Restart bot", actions.RestartBot},
		{"r", "Refresh", actions.Refresh},
	}

	parts := make([]string, 0, len(buttons))
	for _, btn := range buttons {
		label := bg.Render("["+btn.key+"]", styles.AccentText) + bg.Space()
		if btn.pending {
			label += bg.Render(m.spinner.View()+" "+btn.label, styles.WarningText)
		} else {
			label += bg.Render(btn.label, styles.Text)
		}
		parts = append(parts, label)
	}
	return m.renderTitledBox("Actions", " "+strings.Join(parts, bg.Spaces(3)), width, actionsHeight, false)
}

// renderToasts renders the newest notifications, oldest on top.
func (m Model) renderToasts() string {
	notes := m.view.Notifications
	if len(notes) == 0 {
		return ""
	}
	if len(notes) > maxToasts {
		notes = notes[len(notes)-maxToasts:]
	}

	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		badge := styles.BadgeStyle(toastKind(n.Level)).Render(strings.ToUpper(n.Level.String()))
		text := bg.Render(truncate(n.Message, m.width-14), styles.Text)
		lines = append(lines, bg.FillLine(badge+bg.Space()+text, m.width))
	}
	return strings.Join(lines, "\n")
}

func toastKind(level dashboard.Level) string {
	switch level {
	case dashboard.LevelSuccess:
		return "online"
	case dashboard.LevelError:
		return "error"
	default:
		return "command"
	}
}

// placeholder returns the text to show in place of a resource that has no
// data yet.
func (m Model) placeholder(hasData, loading bool, err error, styles Styles) (string, bool) {
	switch {
	case hasData:
		return "", false
	case err != nil:
		return styles.DangerText.Render("Failed: " + describeError(err)), true
	case loading:
		return styles.MutedText.Render(m.spinner.View() + " Loading..."), true
	default:
		return styles.FaintText.Render("No data"), true
	}
}
