package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	data any
	err  error
}

// gatedFetcher blocks call i until release(i, ...) is called. It ignores its
// context so superseded fetches still complete.
type gatedFetcher struct {
	mu    sync.Mutex
	gates []chan outcome
	calls atomic.Int32
}

func (g *gatedFetcher) gate(i int) chan outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	for len(g.gates) <= i {
		g.gates = append(g.gates, make(chan outcome, 1))
	}
	return g.gates[i]
}

func (g *gatedFetcher) fetch(context.Context) (any, error) {
	i := int(g.calls.Add(1)) - 1
	o := <-g.gate(i)
	return o.data, o.err
}

func (g *gatedFetcher) release(i int, data any, err error) {
	g.gate(i) <- outcome{data: data, err: err}
}

func countingFetcher(calls *atomic.Int32, value any) Fetcher {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func waitSettled(t *testing.T, c *Cache, key Key) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, ok := c.Peek(key)
		return ok && !snap.Fetching && snap.Status != StatusLoading
	}, time.Second, time.Millisecond)
	snap, _ := c.Peek(key)
	return snap
}

func newTestCache(t *testing.T, opts ...Option) (*Cache, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	c := New(append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(c.Close)
	return c, clock
}

func TestSubscribe_DeduplicatesWithinOneTick(t *testing.T) {
	c, _ := newTestCache(t, WithGCTime(0))
	g := &gatedFetcher{}
	key := Key{"servers", "1", "stats"}

	a := c.Subscribe(key, g.fetch, SubscribeOptions{})
	b := c.Subscribe(key, g.fetch, SubscribeOptions{})
	a.Unsubscribe()
	b.Unsubscribe()
	d := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer d.Unsubscribe()

	assert.Equal(t, 1, c.Stats().Fetches, "only one network fetch per key while in flight")
	assert.Equal(t, 2, c.Stats().Deduped)

	g.release(0, "stats", nil)
	snap := waitSettled(t, c, key)
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Equal(t, "stats", snap.Data)
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestSubscribe_FreshEntryServedWithoutFetch(t *testing.T) {
	c, clock := newTestCache(t, WithStaleTime(10*time.Second))
	var calls atomic.Int32
	key := Key{"discord", "guilds"}

	first := c.Subscribe(key, countingFetcher(&calls, "v1"), SubscribeOptions{})
	defer first.Unsubscribe()
	waitSettled(t, c, key)

	clock.Advance(5 * time.Second)
	second := c.Subscribe(key, countingFetcher(&calls, "v2"), SubscribeOptions{})
	defer second.Unsubscribe()
	assert.Equal(t, 1, c.Stats().Fetches, "fresh entry must not refetch")
	assert.Equal(t, "v1", second.Snapshot().Data)
}

func TestSubscribe_StaleWhileRevalidate(t *testing.T) {
	c, clock := newTestCache(t, WithStaleTime(10*time.Second))
	g := &gatedFetcher{}
	key := Key{"discord", "guilds"}

	first := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer first.Unsubscribe()
	g.release(0, "old", nil)
	waitSettled(t, c, key)

	clock.Advance(11 * time.Second)
	second := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer second.Unsubscribe()

	snap := second.Snapshot()
	assert.Equal(t, "old", snap.Data, "cached value served immediately")
	assert.True(t, snap.Fetching, "background revalidation started")
	assert.Equal(t, StatusSuccess, snap.Status)

	g.release(1, "new", nil)
	snap = waitSettled(t, c, key)
	assert.Equal(t, "new", snap.Data)
	assert.False(t, snap.Stale)
}

func TestInvalidate_PrefixRefetchesSubscribedEntriesOnce(t *testing.T) {
	c, _ := newTestCache(t)
	var stats1, activity1, stats2, queue1 atomic.Int32

	subs := []*Subscription{
		c.Subscribe(Key{"servers", "1", "stats"}, countingFetcher(&stats1, 1), SubscribeOptions{}),
		c.Subscribe(Key{"servers", "1", "stats"}, countingFetcher(&stats1, 1), SubscribeOptions{}),
		c.Subscribe(Key{"servers", "1", "activity"}, countingFetcher(&activity1, 1), SubscribeOptions{}),
		c.Subscribe(Key{"servers", "2", "stats"}, countingFetcher(&stats2, 1), SubscribeOptions{}),
	}
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()
	c.Subscribe(Key{"servers", "1", "music/queue"}, countingFetcher(&queue1, 1), SubscribeOptions{}).Unsubscribe()

	for _, k := range []Key{{"servers", "1", "stats"}, {"servers", "1", "activity"}, {"servers", "2", "stats"}, {"servers", "1", "music/queue"}} {
		waitSettled(t, c, k)
	}

	started := c.Invalidate(Key{"servers", "1"})
	assert.Equal(t, 2, started)

	waitSettled(t, c, Key{"servers", "1", "stats"})
	waitSettled(t, c, Key{"servers", "1", "activity"})
	assert.Equal(t, int32(2), stats1.Load(), "two subscribers share one refetch")
	assert.Equal(t, int32(2), activity1.Load())
	assert.Equal(t, int32(1), stats2.Load(), "other server untouched")
	assert.Equal(t, int32(1), queue1.Load(), "entry without subscribers is not refetched")

	snap, ok := c.Peek(Key{"servers", "1", "music/queue"})
	require.True(t, ok)
	assert.True(t, snap.Stale, "entry without subscribers is marked stale")
}

func TestInvalidate_UnknownKeyIsNoop(t *testing.T) {
	c, _ := newTestCache(t)
	assert.Equal(t, 0, c.Invalidate(Key{"servers", "404"}))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Stats().Fetches)
}

func TestInvalidate_InactiveEntryDropsInflightFetch(t *testing.T) {
	c, _ := newTestCache(t, WithGCTime(time.Minute), WithStaleTime(time.Minute))
	g := &gatedFetcher{}
	key := Key{"servers", "1", "music/queue"}

	c.Subscribe(key, g.fetch, SubscribeOptions{}).Unsubscribe()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.Invalidate(Key{"servers", "1"}), "no subscriber, no refetch")

	g.release(0, "pre-mutation", nil)
	require.Eventually(t, func() bool { return c.Stats().Discarded == 1 }, time.Second, time.Millisecond)
	snap, ok := c.Peek(key)
	require.True(t, ok, "entry is retained until gc")
	assert.False(t, snap.HasData)
	assert.True(t, snap.Stale)
	assert.False(t, snap.Fetching)

	sub := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer sub.Unsubscribe()
	require.Eventually(t, func() bool { return g.calls.Load() == 2 }, time.Second, time.Millisecond)
	g.release(1, "post-mutation", nil)
	snap = waitSettled(t, c, key)
	assert.Equal(t, "post-mutation", snap.Data)
}

func TestInvalidate_InactiveEntryEvictedWithoutGCTime(t *testing.T) {
	c, _ := newTestCache(t, WithGCTime(0))
	g := &gatedFetcher{}
	key := Key{"discord", "guilds", "7"}

	c.Subscribe(key, g.fetch, SubscribeOptions{}).Unsubscribe()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, 1, c.Len(), "eviction waits for the in-flight fetch")

	c.Invalidate(Key{"discord", "guilds"})
	assert.Equal(t, 0, c.Len())

	g.release(0, "old", nil)
	require.Eventually(t, func() bool { return c.Stats().Discarded == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.Len())
}

func TestInvalidate_DiscardsSupersededCompletion(t *testing.T) {
	c, _ := newTestCache(t)
	g := &gatedFetcher{}
	key := Key{"servers", "1", "music/queue"}

	sub := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer sub.Unsubscribe()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, 1, c.Invalidate(key))
	assert.Equal(t, 1, c.Stats().Superseded)

	// B resolves first, then the older A.
	g.release(1, "B", nil)
	snap := waitSettled(t, c, key)
	require.Equal(t, "B", snap.Data)

	g.release(0, "A", nil)
	require.Eventually(t, func() bool { return c.Stats().Discarded == 1 }, time.Second, time.Millisecond)
	snap, _ = c.Peek(key)
	assert.Equal(t, "B", snap.Data, "older generation must not overwrite newer result")
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestFetchError_PreservesLastData(t *testing.T) {
	c, _ := newTestCache(t)
	g := &gatedFetcher{}
	key := Key{"servers", "1", "stats"}

	sub := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer sub.Unsubscribe()
	g.release(0, "good", nil)
	waitSettled(t, c, key)

	c.Invalidate(key)
	boom := errors.New("backend down")
	g.release(1, nil, boom)
	snap := waitSettled(t, c, key)

	assert.Equal(t, StatusError, snap.Status)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, "good", snap.Data)
	assert.True(t, snap.HasData)
	assert.True(t, snap.Stale)
}

func TestFetchError_FirstFetchFailureRecorded(t *testing.T) {
	c, _ := newTestCache(t)
	key := Key{"bot", "status"}
	sub := c.Subscribe(key, func(context.Context) (any, error) {
		return nil, errors.New("refused")
	}, SubscribeOptions{})
	defer sub.Unsubscribe()

	snap := waitSettled(t, c, key)
	assert.Equal(t, StatusError, snap.Status)
	assert.False(t, snap.HasData)
	assert.EqualError(t, snap.Err, "refused")
}

func TestFetcherPanicBecomesError(t *testing.T) {
	c, _ := newTestCache(t)
	key := Key{"bot", "status"}
	sub := c.Subscribe(key, func(context.Context) (any, error) {
		panic("kaboom")
	}, SubscribeOptions{})
	defer sub.Unsubscribe()

	snap := waitSettled(t, c, key)
	assert.Equal(t, StatusError, snap.Status)
	assert.ErrorContains(t, snap.Err, "kaboom")
}

func TestRefetchInterval_PollsWhileSubscribed(t *testing.T) {
	c, clock := newTestCache(t)
	var calls atomic.Int32
	key := Key{"bot", "status"}

	sub := c.Subscribe(key, countingFetcher(&calls, "online"), SubscribeOptions{RefetchInterval: 30 * time.Second})
	waitSettled(t, c, key)
	require.Equal(t, int32(1), calls.Load())

	clock.Advance(29 * time.Second)
	assert.Equal(t, 1, c.Stats().Fetches)

	clock.Advance(time.Second)
	waitSettled(t, c, key)
	assert.Equal(t, int32(2), calls.Load(), "poll fires at t=30s without further action")

	clock.Advance(30 * time.Second)
	waitSettled(t, c, key)
	assert.Equal(t, int32(3), calls.Load())

	sub.Unsubscribe()
	clock.Advance(time.Minute)
	assert.Equal(t, 3, c.Stats().Fetches, "no polling after the last subscriber leaves")
}

func TestRefetchInterval_SharesOneTimerAtShortestInterval(t *testing.T) {
	c, clock := newTestCache(t)
	var calls atomic.Int32
	key := Key{"bot", "status"}

	slow := c.Subscribe(key, countingFetcher(&calls, 1), SubscribeOptions{RefetchInterval: time.Minute})
	fast := c.Subscribe(key, countingFetcher(&calls, 1), SubscribeOptions{RefetchInterval: 10 * time.Second})
	defer slow.Unsubscribe()
	waitSettled(t, c, key)

	clock.Advance(10 * time.Second)
	waitSettled(t, c, key)
	assert.Equal(t, int32(2), calls.Load())

	fast.Unsubscribe()
	clock.Advance(50 * time.Second)
	assert.Equal(t, 2, c.Stats().Fetches, "interval falls back to the remaining subscriber")
	clock.Advance(10 * time.Second)
	waitSettled(t, c, key)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGC_ImmediateEvictionDoesNotResurrect(t *testing.T) {
	c, _ := newTestCache(t, WithGCTime(0))
	g := &gatedFetcher{}
	key := Key{"servers", "1", "activity"}

	sub := c.Subscribe(key, g.fetch, SubscribeOptions{})
	sub.Unsubscribe()
	assert.Equal(t, 1, c.Len(), "entry kept while its fetch is in flight")

	g.release(0, "late", nil)
	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, time.Millisecond)
	_, ok := c.Peek(key)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Stats().Evicted)
}

func TestGC_RetainsInactiveEntryUntilGCTime(t *testing.T) {
	c, clock := newTestCache(t, WithGCTime(time.Minute))
	var calls atomic.Int32
	key := Key{"servers", "1", "stats"}

	sub := c.Subscribe(key, countingFetcher(&calls, "v"), SubscribeOptions{})
	waitSettled(t, c, key)
	sub.Unsubscribe()

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, c.Len())

	back := c.Subscribe(key, countingFetcher(&calls, "v"), SubscribeOptions{})
	assert.Equal(t, "v", back.Snapshot().Data)
	back.Unsubscribe()

	clock.Advance(time.Minute)
	assert.Equal(t, 0, c.Len())
}

func TestEvictedEntryCompletionDiscarded(t *testing.T) {
	c, clock := newTestCache(t, WithGCTime(time.Second))
	g := &gatedFetcher{}
	key := Key{"servers", "9", "stats"}

	c.Subscribe(key, g.fetch, SubscribeOptions{}).Unsubscribe()
	clock.Advance(time.Second)
	require.Equal(t, 0, c.Len())

	g.release(0, "ghost", nil)
	require.Eventually(t, func() bool { return c.Stats().Discarded == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.Len())
}

func TestRetry_BacksOffThenSucceeds(t *testing.T) {
	c, clock := newTestCache(t, WithRetry(2, time.Second))
	g := &gatedFetcher{}
	key := Key{"bot", "status"}

	sub := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer sub.Unsubscribe()

	g.release(0, nil, errors.New("fail 1"))
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	snap, _ := c.Peek(key)
	assert.True(t, snap.Fetching, "retrying counts as in flight")

	clock.Advance(time.Second)
	g.release(1, nil, errors.New("fail 2"))
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)

	clock.Advance(2 * time.Second)
	g.release(2, "ok", nil)
	snap = waitSettled(t, c, key)
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Equal(t, "ok", snap.Data)
	assert.Equal(t, 3, c.Stats().Fetches)
}

func TestDisabledSubscriptionNeverFetches(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	key := Key{"servers", "", "stats"}

	sub := c.Subscribe(key, countingFetcher(&calls, 1), SubscribeOptions{Disabled: true, RefetchInterval: time.Second})
	defer sub.Unsubscribe()

	assert.Equal(t, 0, c.Invalidate(key))
	assert.False(t, c.Refetch(key))
	assert.Equal(t, 0, c.Stats().Fetches)
	assert.Equal(t, StatusIdle, sub.Snapshot().Status)
	assert.Equal(t, 1, sub.Snapshot().Subscribers)
}

func TestListenersSeeCommittedSnapshots(t *testing.T) {
	c, _ := newTestCache(t)
	key := Key{"discord", "guilds"}

	var mu sync.Mutex
	var seen []Snapshot
	listener := func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}
	g := &gatedFetcher{}
	sub := c.Subscribe(key, g.fetch, SubscribeOptions{Listener: listener})
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, time.Millisecond)
	g.release(0, []string{"Alpha"}, nil)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen[0].Loading())
	assert.Equal(t, StatusSuccess, seen[1].Status)
	names, ok := DataAs[[]string](seen[1])
	require.True(t, ok)
	assert.Equal(t, []string{"Alpha"}, names)
}

func TestRefetchJoinsInflight(t *testing.T) {
	c, _ := newTestCache(t)
	g := &gatedFetcher{}
	key := Key{"bot", "status"}

	sub := c.Subscribe(key, g.fetch, SubscribeOptions{})
	defer sub.Unsubscribe()
	assert.False(t, c.Refetch(key))
	g.release(0, 1, nil)
	waitSettled(t, c, key)

	assert.True(t, c.Refetch(key))
	g.release(1, 2, nil)
	assert.Equal(t, 2, waitSettled(t, c, key).Data)
}

func TestClose_StopsFetching(t *testing.T) {
	clock := NewManualClock(time.Now())
	c := New(WithClock(clock))
	var calls atomic.Int32
	key := Key{"bot", "status"}

	sub := c.Subscribe(key, countingFetcher(&calls, 1), SubscribeOptions{RefetchInterval: time.Second})
	waitSettled(t, c, key)
	c.Close()
	c.Close()

	clock.Advance(time.Minute)
	assert.Equal(t, 0, c.Invalidate(key))
	assert.Equal(t, 1, c.Stats().Fetches)
	sub.Unsubscribe()
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
	for failures := 0; failures <= 20; failures++ {
		if got := calculateBackoff(failures, baseInterval); got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}
