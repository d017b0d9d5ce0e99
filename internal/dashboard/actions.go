package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/five82/botdash/internal/query"
)

var (
	// ErrActionPending is returned when an action is triggered while a
	// previous invocation is still in flight.
	ErrActionPending = errors.New("action already in progress")
	// ErrNoServerSelected is returned by server-scoped actions before a
	// server has been selected.
	ErrNoServerSelected = errors.New("no server selected")
)

// mutation performs the side effect and returns the key prefixes to
// invalidate on success, plus a confirmation message.
type mutation func(ctx context.Context) (prefixes []query.Key, message string, err error)

// Action is a one-shot mutation guarded against concurrent invocation.
// Mutations are attempted once; a failure is reported and never retried.
type Action struct {
	name    string
	do      mutation
	cache   *query.Cache
	notes   *Notifier
	logger  zerolog.Logger
	changed func()
	pending atomic.Bool
}

// Name returns the action's display name.
func (a *Action) Name() string { return a.name }

// Pending reports whether a call is in flight.
func (a *Action) Pending() bool { return a.pending.Load() }

// Run performs the mutation. On success it invalidates the affected keys;
// on failure it pushes an error notification and leaves the cache untouched.
// A call made while another is in flight returns ErrActionPending at once.
func (a *Action) Run(ctx context.Context) error {
	if !a.pending.CompareAndSwap(false, true) {
		a.logger.Debug().Str("action", a.name).Msg("ignored while pending")
		return ErrActionPending
	}
	a.signal()
	defer func() {
		a.pending.Store(false)
		a.signal()
	}()

	prefixes, message, err := a.do(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Str("action", a.name).Msg("action failed")
		a.notes.Error(fmt.Sprintf("%s failed: %v", a.name, err))
		return err
	}

	refetches := 0
	for _, prefix := range prefixes {
		refetches += a.cache.Invalidate(prefix)
	}
	a.logger.Info().Str("action", a.name).Int("refetches", refetches).Msg("action succeeded")
	if message != "" {
		a.notes.Success(message)
	}
	return nil
}

func (a *Action) signal() {
	if a.changed != nil {
		a.changed()
	}
}

func (d *Dashboard) newAction(name string, do mutation) *Action {
	return &Action{
		name:    name,
		do:      do,
		cache:   d.cache,
		notes:   d.notes,
		logger:  d.logger,
		changed: d.changed,
	}
}

func (d *Dashboard) clearQueue(ctx context.Context) ([]query.Key, string, error) {
	id, ok := d.selectedID()
	if !ok {
		return nil, "", ErrNoServerSelected
	}
	if err := d.api.ClearMusicQueue(ctx, id); err != nil {
		return nil, "", err
	}
	return []query.Key{MusicQueueKey(id)}, "Music queue cleared", nil
}

func (d *Dashboard) restartBot(ctx context.Context) ([]query.Key, string, error) {
	if err := d.api.RestartBot(ctx); err != nil {
		return nil, "", err
	}
	return []query.Key{BotStatusKey}, "Restart requested", nil
}

// refresh performs no request of its own; it only invalidates.
func (d *Dashboard) refresh(context.Context) ([]query.Key, string, error) {
	id, ok := d.selectedID()
	if !ok {
		return []query.Key{GuildsKey}, "", nil
	}
	return []query.Key{ServerKey(id), GuildsKey}, "", nil
}
