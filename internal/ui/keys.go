package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	ViewOverview key.Binding
	ViewLogs     key.Binding

	// Sidebar cursor; Up and Down also scroll the log view.
	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	ClearQueue key.Binding
	RestartBot key.Binding
	Refresh    key.Binding
	Dismiss    key.Binding

	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the dashboard key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit:       bind("e/ctrl+c", "Quit", "ctrl+c", "e"),
		Help:       bind("h/?", "Toggle help", "h", "?"),
		CycleTheme: bind("T", "Cycle theme", "T"),
		Escape:     bind("esc", "Back to overview", "esc"),

		ViewOverview: bind("o", "Overview", "o"),
		ViewLogs:     bind("l", "Logs", "l"),

		Up:     bind("k/↑", "Move up", "k", "up"),
		Down:   bind("j/↓", "Move down", "j", "down"),
		Select: bind("enter", "Select server", "enter"),

		ClearQueue: bind("c", "Clear music queue", "c"),
		RestartBot: bind("R", "Restart bot", "R"),
		Refresh:    bind("r", "Refresh server", "r"),
		Dismiss:    bind("x", "Dismiss toast", "x"),

		Top:      bind("g", "Go to top", "g", "home"),
		Bottom:   bind("G", "Go to bottom", "G", "end"),
		PageUp:   bind("ctrl+u", "Page up", "pgup", "ctrl+u"),
		PageDown: bind("ctrl+d", "Page down", "pgdown", "ctrl+d"),
	}
}

type helpGroup struct {
	title    string
	bindings []key.Binding
}

// helpGroups lists the bindings shown in the help overlay.
func (k keyMap) helpGroups() []helpGroup {
	return []helpGroup{
		{"Views", []key.Binding{k.ViewOverview, k.ViewLogs, k.Escape}},
		{"Servers", []key.Binding{k.Up, k.Down, k.Select}},
		{"Actions", []key.Binding{k.ClearQueue, k.RestartBot, k.Refresh, k.Dismiss}},
		{"Scrolling", []key.Binding{k.Top, k.Bottom, k.PageUp, k.PageDown}},
		{"General", []key.Binding{k.CycleTheme, k.Help, k.Quit}},
	}
}
