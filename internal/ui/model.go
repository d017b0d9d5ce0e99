package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/botdash/internal/dashboard"
	"github.com/five82/botdash/internal/logtail"
	"github.com/five82/botdash/internal/prefs"
)

// View represents the current active screen.
type View int

const (
	ViewOverview View = iota
	ViewLogs
)

const (
	defaultTick  = time.Second
	logTailLines = 500
	defaultTheme = "Nightfox"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Dashboard *dashboard.Dashboard
	ThemeName string
	PrefsPath string
	LogPath   string
	Tick      time.Duration // redraw interval for relative times
	Logger    zerolog.Logger
}

// Model is the Bubble Tea model for the dashboard. It renders the
// dashboard's View snapshot and forwards user intents to it.
type Model struct {
	ctx       context.Context
	dash      *dashboard.Dashboard
	changes   chan struct{}
	keys      keyMap
	prefsPath string
	logPath   string
	tick      time.Duration
	logger    zerolog.Logger

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	spinner     spinner.Model

	view      dashboard.View
	now       time.Time
	cursor    int
	cursorSet bool

	// Overlays
	showHelp bool
	confirm  *confirmPrompt

	logViewport viewport.Model
	logLines    []logtail.Line
	logErr      error
}

// confirmPrompt asks before running an action that affects every server.
type confirmPrompt struct {
	question string
	action   *dashboard.Action
}

// New creates a new Bubble Tea model bound to the dashboard.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = defaultTheme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		ctx:         ctx,
		dash:        opts.Dashboard,
		changes:     make(chan struct{}, 1),
		keys:        DefaultKeyMap(),
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		tick:        tick,
		logger:      opts.Logger,
		theme:       GetTheme(themeName),
		currentView: ViewOverview,
		spinner:     sp,
		now:         time.Now(),
		logViewport: viewport.New(1, 1),
	}

	if m.dash != nil {
		// Listeners can fire inside Update (Select rebinds synchronously), so
		// the send must never block. One pending signal covers any number of
		// changes.
		changes := m.changes
		m.dash.OnChange(func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		m.refresh()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		m.spinner.Tick,
	}
	if m.dash != nil {
		cmds = append(cmds, waitForChange(m.ctx, m.changes))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.syncLogViewport()
		return m, nil

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.ctx, m.changes)

	case tickMsg:
		m.now = time.Time(msg)
		m.refresh()
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.currentView == ViewLogs {
			cmds = append(cmds, loadLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case actionDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, dashboard.ErrActionPending) {
			m.logger.Debug().Err(msg.err).Str("action", msg.name).Msg("action returned error")
		}
		m.refresh()
		return m, nil

	case logLinesMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.syncLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.confirm != nil {
		return m.renderConfirm()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.saveTheme()
		m.syncLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, loadLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.ViewOverview, m.keys.Escape):
		m.currentView = ViewOverview
		return m, nil

	case key.Matches(msg, m.keys.ClearQueue):
		return m, m.runAction(m.clearQueueAction())

	case key.Matches(msg, m.keys.RestartBot):
		if a := m.restartAction(); a != nil {
			m.confirm = &confirmPrompt{question: "Restart the bot?", action: a}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.runAction(m.refreshAction())

	case key.Matches(msg, m.keys.Dismiss):
		if m.dash != nil && m.dash.Notifier().DismissLatest() {
			m.refresh()
		}
		return m, nil
	}

	switch m.currentView {
	case ViewOverview:
		return m.handleOverviewKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// handleOverviewKey moves the sidebar cursor and selects servers.
func (m Model) handleOverviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	guilds := m.view.Guilds.Data
	if len(guilds) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(guilds)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(guilds) - 1
	case key.Matches(msg, m.keys.Select):
		m.cursorSet = true
		if m.dash != nil {
			m.dash.Select(guilds[m.cursor].ID)
			m.refresh()
		}
	}
	return m, nil
}

// handleConfirmKey resolves an open confirmation prompt.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prompt := m.confirm
	m.confirm = nil
	switch msg.String() {
	case "y", "Y", "enter":
		return m, m.runAction(prompt.action)
	}
	return m, nil
}

// refresh pulls a fresh snapshot from the dashboard.
func (m *Model) refresh() {
	if m.dash == nil {
		return
	}
	m.view = m.dash.Snapshot()
	m.syncCursor()
}

// syncCursor puts the cursor on the selected guild once, then keeps it in
// range as the list changes.
func (m *Model) syncCursor() {
	guilds := m.view.Guilds.Data
	if len(guilds) == 0 {
		m.cursor = 0
		return
	}
	if !m.cursorSet && m.view.Selection.Active() {
		for i, g := range guilds {
			if g.ID == m.view.Selection.GuildID {
				m.cursor = i
				m.cursorSet = true
				break
			}
		}
	}
	if m.cursor >= len(guilds) {
		m.cursor = len(guilds) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) saveTheme() {
	name := m.theme.Name
	err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name })
	if err != nil {
		m.logger.Warn().Err(err).Str("theme", name).Msg("save theme preference")
	}
}

func (m Model) clearQueueAction() *dashboard.Action {
	if m.dash == nil {
		return nil
	}
	return m.dash.ClearQueue
}

func (m Model) restartAction() *dashboard.Action {
	if m.dash == nil {
		return nil
	}
	return m.dash.RestartBot
}

func (m Model) refreshAction() *dashboard.Action {
	if m.dash == nil {
		return nil
	}
	return m.dash.Refresh
}

type tickMsg time.Time

type changeMsg struct{}

type actionDoneMsg struct {
	name string
	err  error
}

type logLinesMsg struct {
	lines []logtail.Line
	err   error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until the dashboard reports a change. Update re-arms
// it after every changeMsg.
func waitForChange(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return changeMsg{}
		}
	}
}

func (m Model) runAction(a *dashboard.Action) tea.Cmd {
	if a == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{name: a.Name(), err: a.Run(ctx)}
	}
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		raw, err := logtail.Read(path, logTailLines)
		return logLinesMsg{lines: logtail.Format(raw), err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Dashboard == nil {
		return errors.New("ui: dashboard is required")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
