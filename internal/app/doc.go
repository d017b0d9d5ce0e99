// Package app is the composition root for botdash.
//
// Open loads config.toml, opens the log file and builds the bot API client.
// The resulting Env backs both the dashboard and the one-shot commands.
//
//	┌──────────┐   ┌───────────┐   ┌─────────────┐   ┌────────┐
//	│ config   │──▶│ botapi    │──▶│ query.Cache │──▶│ ui.Run │
//	│ logging  │   │ Client    │   │ dashboard   │   │        │
//	└──────────┘   └───────────┘   └─────────────┘   └────────┘
//
// Run wires the rest for the interactive dashboard:
//
//  1. Load preferences (theme, last selected server)
//  2. Build the query cache from the configured stale, gc and retry timings
//  3. Create the dashboard, restoring the last server and saving every new
//     selection back to the preferences file
//  4. Start the dashboard subscriptions and hand it to the TUI
//  5. On exit stop the subscriptions, close the cache and the log
//
// PrintStatus, ClearQueue and Restart call the client directly and print a
// short confirmation; they never touch the cache.
package app
