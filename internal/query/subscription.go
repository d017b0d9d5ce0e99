package query

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is a read-only view of an entry at one point in time. A failed
// fetch keeps the last good Data and sets Err alongside it.
type Snapshot struct {
	Key         Key
	Data        any
	HasData     bool
	Err         error
	Status      Status
	UpdatedAt   time.Time // last successful fetch
	ErroredAt   time.Time // last failed fetch
	Generation  uint64
	Subscribers int
	Fetching    bool
	Stale       bool
}

// Loading reports whether the entry has no data yet and a fetch is running.
func (s Snapshot) Loading() bool {
	return !s.HasData && s.Fetching
}

// DataAs returns the snapshot data as T.
func DataAs[T any](s Snapshot) (T, bool) {
	v, ok := s.Data.(T)
	return v, ok
}

// Subscription binds one consumer to a key. Unsubscribe releases it.
type Subscription struct {
	cache *Cache
	entry *entry
	id    uint64
	key   Key
	opts  SubscribeOptions
	once  sync.Once
}

// Key returns the subscribed key.
func (s *Subscription) Key() Key {
	return s.key.clone()
}

// Snapshot returns the current state of the subscribed entry. After the entry
// is evicted it reports StatusIdle with no data.
func (s *Subscription) Snapshot() Snapshot {
	snap, _ := s.cache.Peek(s.key)
	return snap
}

// Unsubscribe detaches the subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.cache.unsubscribe(s) })
}
