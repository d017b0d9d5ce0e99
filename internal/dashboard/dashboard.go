package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/botdash/internal/botapi"
	"github.com/five82/botdash/internal/query"
	"github.com/five82/botdash/internal/state"
)

// Options tune a Dashboard. Zero values select the defaults.
type Options struct {
	StatusInterval  time.Duration // bot status poll, DefaultStatusInterval when zero
	GuildsInterval  time.Duration // guild list poll, disabled when zero
	ServerInterval  time.Duration // per-server panels poll, disabled when zero
	NotificationTTL time.Duration
	PreferredGuild  string // selected on the first guild list that contains it
	Clock           query.Clock
	Logger          zerolog.Logger

	// OnSelect runs after every selection change, e.g. to persist it.
	OnSelect func(state.Selection)
}

// Dashboard binds the cache to the bot API and tracks which server the
// views are looking at.
type Dashboard struct {
	cache  *query.Cache
	api    botapi.API
	opts   Options
	logger zerolog.Logger
	notes  *Notifier
	store  state.Store

	ClearQueue *Action
	RestartBot *Action
	Refresh    *Action

	mu       sync.Mutex
	started  bool
	stopped  bool
	status   *query.Subscription
	guilds   *query.Subscription
	listener []func()
	server   serverSubs

	// bindMu serialises rebinding of server subscriptions.
	bindMu sync.Mutex
	// guildsMu pairs reading the committed guild list with applying it.
	guildsMu sync.Mutex
}

type serverSubs struct {
	guildID  string
	stats    *query.Subscription
	activity *query.Subscription
	info     *query.Subscription
	queue    *query.Subscription
}

func (s serverSubs) all() []*query.Subscription {
	var out []*query.Subscription
	for _, sub := range []*query.Subscription{s.stats, s.activity, s.info, s.queue} {
		if sub != nil {
			out = append(out, sub)
		}
	}
	return out
}

// New creates a dashboard. Nothing is fetched until Start.
func New(cache *query.Cache, api botapi.API, opts Options) *Dashboard {
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}
	d := &Dashboard{
		cache:  cache,
		api:    api,
		opts:   opts,
		logger: opts.Logger,
		notes:  NewNotifier(opts.Clock, opts.NotificationTTL),
	}
	d.store.SetPreferred(opts.PreferredGuild)
	d.notes.OnChange(d.changed)
	d.ClearQueue = d.newAction("Clear queue", d.clearQueue)
	d.RestartBot = d.newAction("Restart bot", d.restartBot)
	d.Refresh = d.newAction("Refresh", d.refresh)
	return d
}

// Notifier returns the toast list shared by all actions.
func (d *Dashboard) Notifier() *Notifier { return d.notes }

// OnChange registers fn to run after any cache, selection, action or
// notification change. fn may run on any goroutine and must not block.
func (d *Dashboard) OnChange(fn func()) {
	d.mu.Lock()
	d.listener = append(d.listener, fn)
	d.mu.Unlock()
}

// Start subscribes the bot status and the guild list. Calling it again is a
// no-op.
func (d *Dashboard) Start() {
	d.mu.Lock()
	if d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	status := statusHook(d.cache, d.api, d.opts.StatusInterval, d.onSnapshot)
	guilds := d.cache.Subscribe(GuildsKey, func(ctx context.Context) (any, error) {
		return d.api.ListGuilds(ctx)
	}, query.SubscribeOptions{RefetchInterval: d.opts.GuildsInterval, Listener: d.onGuilds})

	d.mu.Lock()
	d.status, d.guilds = status, guilds
	d.mu.Unlock()

	// The guild list may already be cached and fresh, in which case no
	// listener fires for it.
	if snap := guilds.Snapshot(); snap.Status == query.StatusSuccess {
		d.onGuilds(snap)
	}
	d.logger.Debug().Msg("dashboard started")
}

// Stop releases every subscription. The cache itself is left open.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	status, guilds := d.status, d.guilds
	d.status, d.guilds = nil, nil
	d.mu.Unlock()

	d.bindMu.Lock()
	d.mu.Lock()
	old := d.server
	d.server = serverSubs{}
	d.mu.Unlock()
	d.bindMu.Unlock()

	for _, sub := range append(old.all(), status, guilds) {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	d.logger.Debug().Msg("dashboard stopped")
}

// Select switches the views to guildID.
func (d *Dashboard) Select(guildID string) state.Selection {
	sel, changed := d.store.Select(guildID)
	if changed {
		d.selectionChanged(sel)
	}
	return sel
}

// Selection returns the current selection.
func (d *Dashboard) Selection() state.Selection {
	return d.store.Current()
}

func (d *Dashboard) selectedID() (string, bool) {
	sel := d.store.Current()
	return sel.GuildID, sel.Active()
}

// onGuilds applies the committed guild list, not the snapshot it was handed.
// Listeners run on fetch goroutines, so a "fetch started" notice carrying the
// previous list can arrive after the completion it preceded.
func (d *Dashboard) onGuilds(query.Snapshot) {
	d.guildsMu.Lock()
	snap, ok := d.cache.Peek(GuildsKey)
	if !ok || snap.Status != query.StatusSuccess {
		d.guildsMu.Unlock()
		d.changed()
		return
	}
	guilds, _ := query.DataAs[[]botapi.Guild](snap)
	sel, changed := d.store.ApplyGuilds(guilds)
	d.guildsMu.Unlock()
	if changed {
		d.logger.Info().Str("phase", sel.Phase.String()).Str("guild", sel.GuildID).Msg("selection updated from guild list")
		d.selectionChanged(sel)
		return
	}
	d.changed()
}

func (d *Dashboard) selectionChanged(sel state.Selection) {
	d.rebind()
	if d.opts.OnSelect != nil {
		d.opts.OnSelect(sel)
	}
	d.changed()
}

// rebind points the server subscriptions at the current selection. The old
// server's subscriptions are released before the new ones are created.
func (d *Dashboard) rebind() {
	d.bindMu.Lock()
	defer d.bindMu.Unlock()

	d.mu.Lock()
	stopped, current := d.stopped, d.server
	d.mu.Unlock()

	sel := d.store.Current()
	want := ""
	if sel.Active() && !stopped {
		want = sel.GuildID
	}
	if want == current.guildID {
		return
	}

	d.mu.Lock()
	d.server = serverSubs{}
	d.mu.Unlock()
	for _, sub := range current.all() {
		sub.Unsubscribe()
	}
	if want == "" {
		return
	}

	opts := query.SubscribeOptions{RefetchInterval: d.opts.ServerInterval, Listener: d.onSnapshot}
	api := d.api
	next := serverSubs{guildID: want}
	next.stats = d.cache.Subscribe(StatsKey(want), func(ctx context.Context) (any, error) {
		return api.GetServerStats(ctx, want)
	}, opts)
	next.activity = d.cache.Subscribe(ActivityKey(want), func(ctx context.Context) (any, error) {
		return api.GetServerActivity(ctx, want)
	}, opts)
	next.info = d.cache.Subscribe(GuildInfoKey(want), func(ctx context.Context) (any, error) {
		return api.GetGuildInfo(ctx, want)
	}, opts)
	next.queue = d.cache.Subscribe(MusicQueueKey(want), func(ctx context.Context) (any, error) {
		return api.GetMusicQueue(ctx, want)
	}, opts)

	d.mu.Lock()
	d.server = next
	d.mu.Unlock()
	d.logger.Debug().Str("guild", want).Msg("server subscriptions bound")
}

func (d *Dashboard) onSnapshot(query.Snapshot) {
	d.changed()
}

func (d *Dashboard) changed() {
	d.mu.Lock()
	fns := make([]func(), len(d.listener))
	copy(fns, d.listener)
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
