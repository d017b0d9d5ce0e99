// Package state holds the dashboard's selected-server state.
//
// # Overview
//
// The selection is the one piece of view state every server-scoped query
// depends on. The dashboard derives its query keys from it, so each change
// tears down the old server's subscriptions and creates new ones.
//
// # States
//
//	              guild list (non-empty)
//	NoServerSelected ─────────────────────> ServerSelected(first)
//	        │                                   ^   │
//	        │ user selects id                   │   │ guild vanished,
//	        └───────────────────────────────────┘   │ list empty
//	                                                v
//	                 guild listed again   ServerUnavailable(id)
//	        ServerSelected(id) <───────────────────┘
//
// A user selection always lands in ServerSelected, whatever the prior state.
// When the selected guild disappears from a non-empty list the store falls
// back to the first listed guild instead of keeping a dead selection.
//
// # Concurrency
//
// Store is guarded by a readers-writer lock and is safe to construct as a
// zero value. Guild-list updates arrive from cache listener goroutines while
// the UI reads Current on its own loop.
package state
