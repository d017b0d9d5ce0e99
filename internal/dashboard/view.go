package dashboard

import (
	"time"

	"github.com/five82/botdash/internal/botapi"
	"github.com/five82/botdash/internal/query"
	"github.com/five82/botdash/internal/state"
)

// Resource is the render-ready state of one cache entry.
type Resource[T any] struct {
	Data      T
	HasData   bool
	Err       error
	Loading   bool // no data yet and a fetch is running
	Fetching  bool
	Stale     bool
	UpdatedAt time.Time
}

// Failed reports whether the last fetch errored. Data may still hold the
// previous good value.
func (r Resource[T]) Failed() bool { return r.Err != nil }

func resourceOf[T any](snap query.Snapshot) Resource[T] {
	r := Resource[T]{
		Err:       snap.Err,
		Loading:   snap.Loading(),
		Fetching:  snap.Fetching,
		Stale:     snap.Stale,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.HasData {
		r.Data, r.HasData = query.DataAs[T](snap)
	}
	return r
}

func resourceFor[T any](sub *query.Subscription) Resource[T] {
	if sub == nil {
		return Resource[T]{}
	}
	return resourceOf[T](sub.Snapshot())
}

// ActionStates reports which quick actions are in flight.
type ActionStates struct {
	ClearQueue bool
	RestartBot bool
	Refresh    bool
}

// View is everything the renderer needs for one frame.
type View struct {
	Status    Resource[*botapi.BotStatus]
	Guilds    Resource[[]botapi.Guild]
	Selection state.Selection
	// GuildName is the selected guild's name from its detail, falling back
	// to the guild list.
	GuildName     string
	Guild         Resource[*botapi.GuildInfo]
	Stats         Resource[*botapi.ServerStats]
	Activity      Resource[[]botapi.Activity]
	Queue         Resource[*botapi.MusicQueue]
	Actions       ActionStates
	Notifications []Notification
}

// Snapshot assembles the current View.
func (d *Dashboard) Snapshot() View {
	d.mu.Lock()
	status, guilds, server := d.status, d.guilds, d.server
	d.mu.Unlock()

	v := View{
		Status:    resourceFor[*botapi.BotStatus](status),
		Guilds:    resourceFor[[]botapi.Guild](guilds),
		Selection: d.store.Current(),
		Actions: ActionStates{
			ClearQueue: d.ClearQueue.Pending(),
			RestartBot: d.RestartBot.Pending(),
			Refresh:    d.Refresh.Pending(),
		},
		Notifications: d.notes.Active(),
	}
	if server.guildID != "" && server.guildID == v.Selection.GuildID {
		v.Guild = resourceFor[*botapi.GuildInfo](server.info)
		v.Stats = resourceFor[*botapi.ServerStats](server.stats)
		v.Activity = resourceFor[[]botapi.Activity](server.activity)
		v.Queue = resourceFor[*botapi.MusicQueue](server.queue)
	}
	v.GuildName = guildName(v)
	return v
}

func guildName(v View) string {
	if v.Guild.HasData && v.Guild.Data != nil && v.Guild.Data.Name != "" {
		return v.Guild.Data.Name
	}
	for _, g := range v.Guilds.Data {
		if g.ID == v.Selection.GuildID {
			return g.Name
		}
	}
	return v.Selection.GuildID
}
