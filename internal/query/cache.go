package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultStaleTime = 10 * time.Second
	defaultGCTime    = 5 * time.Minute
	defaultRetryBase = time.Second
)

// Fetcher loads the current value of a resource.
type Fetcher func(ctx context.Context) (any, error)

// Listener receives the committed snapshot after every change to an entry.
type Listener func(Snapshot)

// SubscribeOptions tune a single subscription.
type SubscribeOptions struct {
	// Disabled registers the subscription without ever fetching on its behalf.
	Disabled bool
	// RefetchInterval re-triggers the fetch on a repeating timer while the
	// subscription is alive. Zero disables interval refetching.
	RefetchInterval time.Duration
	// Listener is called after every committed change to the entry.
	Listener Listener
}

// Stats counts cache activity since creation.
type Stats struct {
	Fetches    int // fetcher invocations, retries included
	Deduped    int // fetch triggers that attached to an in-flight fetch
	Superseded int // in-flight fetches replaced by an invalidation
	Discarded  int // completions dropped for an old generation or evicted entry
	Evicted    int
}

// Cache is a process-wide resource cache. It deduplicates concurrent fetches
// per key, serves cached data immediately and refreshes stale entries in the
// background. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSub uint64
	stats   Stats
	closed  bool

	staleTime time.Duration
	gcTime    time.Duration
	retries   int
	retryBase time.Duration
	clock     Clock
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type entry struct {
	key Key

	data      any
	hasData   bool
	err       error
	status    Status
	updatedAt time.Time
	erroredAt time.Time
	stale     bool // set by Invalidate until the next successful fetch

	fetcher    Fetcher
	generation uint64
	inflight   *inflight

	subs map[uint64]*Subscription

	interval      time.Duration
	intervalTimer Timer
	intervalToken uint64
	gcTimer       Timer
	gcToken       uint64
}

type inflight struct {
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	retryTimer Timer
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleTime sets how long a successful fetch stays fresh.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.staleTime = d
		}
	}
}

// WithGCTime sets how long an entry without subscribers is retained. Zero
// evicts as soon as the last subscriber leaves.
func WithGCTime(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.gcTime = d
		}
	}
}

// WithRetry retries failed fetches up to attempts times with exponential
// backoff starting at base.
func WithRetry(attempts int, base time.Duration) Option {
	return func(c *Cache) {
		if attempts >= 0 {
			c.retries = attempts
		}
		if base > 0 {
			c.retryBase = base
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for fetch failures and evictions.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates an empty cache. Call Close when done to stop timers and cancel
// in-flight fetches.
func New(opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries:   make(map[string]*entry),
		staleTime: defaultStaleTime,
		gcTime:    defaultGCTime,
		retryBase: defaultRetryBase,
		clock:     realClock{},
		logger:    zerolog.Nop(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close cancels every in-flight fetch and stops all timers. Existing
// subscriptions keep their last snapshot but never fetch again.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	for _, e := range c.entries {
		c.stopTimersLocked(e)
		if e.inflight != nil && e.inflight.retryTimer != nil {
			e.inflight.retryTimer.Stop()
		}
	}
}

// Subscribe attaches to key. The first subscription to an unseen or stale key
// triggers fetcher; later subscriptions attach to the cached value or the
// in-flight fetch. The latest fetcher passed for a key is the one used for
// subsequent fetches.
func (c *Cache) Subscribe(key Key, fetcher Fetcher, opts SubscribeOptions) *Subscription {
	if fetcher == nil {
		fetcher = func(context.Context) (any, error) {
			return nil, fmt.Errorf("no fetcher registered for %s", key)
		}
	}

	c.mu.Lock()
	id := key.id()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key.clone(), subs: make(map[uint64]*Subscription)}
		c.entries[id] = e
	}
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	e.fetcher = fetcher

	c.nextSub++
	sub := &Subscription{cache: c, entry: e, id: c.nextSub, key: e.key, opts: opts}
	e.subs[sub.id] = sub
	c.rescheduleIntervalLocked(e)

	started := false
	if !opts.Disabled && c.isStaleLocked(e) {
		started = c.startFetchLocked(e, false)
	}
	snap, listeners := c.snapshotLocked(e), c.listenersLocked(e)
	c.mu.Unlock()

	if started {
		notify(listeners, snap)
	}
	return sub
}

// Invalidate marks every entry whose key starts with prefix as stale.
// Entries with at least one enabled subscriber are re-fetched exactly once;
// a fetch already in flight for such an entry is superseded. It returns
// the number of fetches started.
func (c *Cache) Invalidate(prefix Key) int {
	type pending struct {
		snap      Snapshot
		listeners []Listener
	}
	var notes []pending

	c.mu.Lock()
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.stale = true
		if c.activeLocked(e) == 0 {
			c.dropInflightLocked(e)
			continue
		}
		if c.startFetchLocked(e, true) {
			notes = append(notes, pending{c.snapshotLocked(e), c.listenersLocked(e)})
		}
	}
	c.mu.Unlock()

	for _, n := range notes {
		notify(n.listeners, n.snap)
	}
	if len(notes) > 0 {
		c.logger.Debug().Str("prefix", prefix.String()).Int("refetches", len(notes)).Msg("invalidated")
	}
	return len(notes)
}

// Refetch triggers a fetch for key if it has an enabled subscriber. A fetch
// already in flight is joined rather than duplicated.
func (c *Cache) Refetch(key Key) bool {
	c.mu.Lock()
	e, ok := c.entries[key.id()]
	if !ok || c.activeLocked(e) == 0 {
		c.mu.Unlock()
		return false
	}
	started := c.startFetchLocked(e, false)
	snap, listeners := c.snapshotLocked(e), c.listenersLocked(e)
	c.mu.Unlock()

	if started {
		notify(listeners, snap)
	}
	return started
}

// Peek returns the current snapshot for key without subscribing.
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok {
		return Snapshot{Key: key.clone(), Status: StatusIdle}, false
	}
	return c.snapshotLocked(e), true
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a copy of the activity counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) isStaleLocked(e *entry) bool {
	if !e.hasData || e.stale || e.status == StatusError {
		return true
	}
	return c.clock.Now().Sub(e.updatedAt) >= c.staleTime
}

// activeLocked counts subscriptions allowed to trigger fetches.
func (c *Cache) activeLocked(e *entry) int {
	n := 0
	for _, sub := range e.subs {
		if !sub.opts.Disabled {
			n++
		}
	}
	return n
}

// startFetchLocked begins a new generation for e. Unless supersede is set, a
// fetch already in flight is joined instead.
func (c *Cache) startFetchLocked(e *entry, supersede bool) bool {
	if c.closed {
		return false
	}
	if e.inflight != nil {
		if !supersede {
			c.stats.Deduped++
			return false
		}
		c.cancelInflightLocked(e)
		c.stats.Superseded++
	}

	e.generation++
	ctx, cancel := context.WithCancel(c.ctx)
	e.inflight = &inflight{generation: e.generation, ctx: ctx, cancel: cancel}
	if !e.hasData {
		e.status = StatusLoading
	}
	c.launchLocked(e, e.inflight, 0)
	return true
}

func (c *Cache) launchLocked(e *entry, f *inflight, attempt int) {
	c.stats.Fetches++
	fetcher := e.fetcher
	go func() {
		data, err := runFetcher(f.ctx, fetcher)
		c.complete(e, f.generation, attempt, data, err)
	}()
}

func runFetcher(ctx context.Context, fetcher Fetcher) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panicked: %v", r)
		}
	}()
	return fetcher(ctx)
}

func (c *Cache) complete(e *entry, generation uint64, attempt int, data any, err error) {
	c.mu.Lock()
	current, ok := c.entries[e.key.id()]
	if !ok || current != e || e.inflight == nil || e.inflight.generation != generation {
		c.stats.Discarded++
		c.mu.Unlock()
		return
	}

	f := e.inflight
	if err != nil && attempt < c.retries && !c.closed && f.ctx.Err() == nil {
		delay := calculateBackoff(attempt, c.retryBase)
		c.logger.Debug().Err(err).Str("key", e.key.String()).Int("attempt", attempt+1).Dur("delay", delay).Msg("fetch failed, retrying")
		f.retryTimer = c.clock.AfterFunc(delay, func() { c.retry(e, generation, attempt+1) })
		c.mu.Unlock()
		return
	}

	f.cancel()
	e.inflight = nil
	now := c.clock.Now()
	if err != nil {
		e.err = err
		e.status = StatusError
		e.erroredAt = now
		c.logger.Warn().Err(err).Str("key", e.key.String()).Msg("fetch failed")
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.status = StatusSuccess
		e.updatedAt = now
		e.stale = false
	}

	if len(e.subs) == 0 && c.gcTime == 0 {
		c.evictLocked(e)
		c.mu.Unlock()
		return
	}
	snap, listeners := c.snapshotLocked(e), c.listenersLocked(e)
	c.mu.Unlock()

	notify(listeners, snap)
}

func (c *Cache) retry(e *entry, generation uint64, attempt int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.entries[e.key.id()]
	if !ok || current != e || e.inflight == nil || e.inflight.generation != generation || c.closed {
		return
	}
	e.inflight.retryTimer = nil
	c.launchLocked(e, e.inflight, attempt)
}

// dropInflightLocked abandons the fetch of an entry nobody is watching. The
// fetch started before the invalidation, so its result must not land as
// fresh data.
func (c *Cache) dropInflightLocked(e *entry) {
	if e.inflight == nil {
		return
	}
	c.cancelInflightLocked(e)
	e.generation++
	c.stats.Superseded++
	if !e.hasData && e.status == StatusLoading {
		e.status = StatusIdle
	}
	if len(e.subs) == 0 && c.gcTime == 0 {
		c.evictLocked(e)
	}
}

func (c *Cache) cancelInflightLocked(e *entry) {
	if e.inflight == nil {
		return
	}
	if e.inflight.retryTimer != nil {
		e.inflight.retryTimer.Stop()
	}
	e.inflight.cancel()
	e.inflight = nil
}

func (c *Cache) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := sub.entry
	if current, ok := c.entries[e.key.id()]; !ok || current != e {
		return
	}
	delete(e.subs, sub.id)
	c.rescheduleIntervalLocked(e)
	if len(e.subs) > 0 || c.closed {
		return
	}

	switch {
	case c.gcTime == 0 && e.inflight == nil:
		c.evictLocked(e)
	case c.gcTime == 0:
		// Evicted when the in-flight fetch lands, unless someone re-subscribes.
	default:
		e.gcToken++
		token := e.gcToken
		e.gcTimer = c.clock.AfterFunc(c.gcTime, func() { c.collect(e, token) })
	}
}

func (c *Cache) collect(e *entry, token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.entries[e.key.id()]
	if !ok || current != e || e.gcToken != token || len(e.subs) > 0 {
		return
	}
	c.evictLocked(e)
}

func (c *Cache) evictLocked(e *entry) {
	c.cancelInflightLocked(e)
	c.stopTimersLocked(e)
	delete(c.entries, e.key.id())
	c.stats.Evicted++
	c.logger.Debug().Str("key", e.key.String()).Msg("evicted")
}

func (c *Cache) stopTimersLocked(e *entry) {
	if e.intervalTimer != nil {
		e.intervalTimer.Stop()
		e.intervalTimer = nil
	}
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	e.interval = 0
}

// rescheduleIntervalLocked keeps a single timer per entry running at the
// shortest interval requested by its enabled subscribers.
func (c *Cache) rescheduleIntervalLocked(e *entry) {
	var shortest time.Duration
	for _, sub := range e.subs {
		if sub.opts.Disabled || sub.opts.RefetchInterval <= 0 {
			continue
		}
		if shortest == 0 || sub.opts.RefetchInterval < shortest {
			shortest = sub.opts.RefetchInterval
		}
	}
	if shortest == e.interval && (shortest == 0 || e.intervalTimer != nil) {
		return
	}
	if e.intervalTimer != nil {
		e.intervalTimer.Stop()
		e.intervalTimer = nil
	}
	e.interval = shortest
	if shortest > 0 && !c.closed {
		c.scheduleTickLocked(e)
	}
}

func (c *Cache) scheduleTickLocked(e *entry) {
	e.intervalToken++
	token := e.intervalToken
	e.intervalTimer = c.clock.AfterFunc(e.interval, func() { c.tick(e, token) })
}

func (c *Cache) tick(e *entry, token uint64) {
	c.mu.Lock()
	current, ok := c.entries[e.key.id()]
	if !ok || current != e || e.intervalToken != token || e.intervalTimer == nil || c.closed {
		c.mu.Unlock()
		return
	}
	started := c.startFetchLocked(e, false)
	c.scheduleTickLocked(e)
	snap, listeners := c.snapshotLocked(e), c.listenersLocked(e)
	c.mu.Unlock()

	if started {
		notify(listeners, snap)
	}
}

func (c *Cache) snapshotLocked(e *entry) Snapshot {
	return Snapshot{
		Key:         e.key.clone(),
		Data:        e.data,
		HasData:     e.hasData,
		Err:         e.err,
		Status:      e.status,
		UpdatedAt:   e.updatedAt,
		ErroredAt:   e.erroredAt,
		Generation:  e.generation,
		Subscribers: len(e.subs),
		Fetching:    e.inflight != nil,
		Stale:       c.isStaleLocked(e),
	}
}

func (c *Cache) listenersLocked(e *entry) []Listener {
	var out []Listener
	for _, sub := range e.subs {
		if sub.opts.Listener != nil {
			out = append(out, sub.opts.Listener)
		}
	}
	return out
}

func notify(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}
