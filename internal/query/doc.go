// Package query provides the resource cache that sits between the dashboard
// views and the bot API.
//
// # Overview
//
// Each fetchable resource is named by a Key such as {"servers", "1", "stats"}.
// Views subscribe to keys; the cache owns one entry per key, fetches it at most
// once at a time and pushes committed snapshots to every subscriber.
//
//	View A ──┐                      ┌──> Fetcher (API call)
//	View B ──┼──> Cache.Subscribe ──┤
//	View C ──┘        (one entry)   └──< complete(generation)
//	    ^                                    │
//	    └──────────── Listener(Snapshot) <───┘
//
// # Freshness
//
// A successful fetch is fresh for the stale time (WithStaleTime). New
// subscribers to a fresh entry get the cached value with no request. After that
// they still get the cached value at once, and a background fetch is started
// (stale-while-revalidate). Entries that failed or were invalidated are always
// stale.
//
// # Deduplication and generations
//
// Every fetch start bumps the entry's generation. Subscribe, Refetch, interval
// ticks and revalidation join a fetch that is already running. Invalidate is the
// exception: data in flight may predate the mutation that caused the
// invalidation, so it cancels the running fetch and starts a new generation.
// Completions whose generation is no longer current are discarded, so the
// entry always ends up with the result of the latest issued fetch.
//
// # Errors
//
// A failed fetch sets StatusError and Err but keeps the last good Data, so a
// view can show stale data next to an error marker. With WithRetry the cache
// retries with exponential backoff before recording the failure. A panicking
// fetcher is recorded as an error.
//
// # Lifetime
//
// When the last subscriber leaves, the entry is kept for the GC time
// (WithGCTime) and then evicted. A GC time of zero evicts immediately, or as
// soon as the in-flight fetch lands. Completions for evicted entries are
// dropped and never recreate the entry.
//
// RefetchInterval keeps one timer per entry at the shortest interval among its
// enabled subscribers. The timer stops when none remain.
//
// # Concurrency
//
// All entry state is guarded by one mutex. Fetchers run on their own
// goroutines. Listeners run after the lock is released, on whichever goroutine
// committed the change, so they may call back into the cache.
package query
