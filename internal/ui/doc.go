// Package ui renders the botdash dashboard with Bubble Tea.
//
// The Model never fetches anything itself. It holds a *dashboard.Dashboard,
// takes a dashboard.View snapshot whenever the dashboard signals a change,
// and renders from that snapshot alone. Change signals arrive on a one-slot
// channel drained by a command that Update re-arms after each changeMsg, so
// listeners fired from inside Update never block the program.
//
// # Screens
//
//   - Overview: server sidebar, stat cards, activity feed, music queue and
//     quick actions for the selected server
//   - Logs: tail of the botdash log file, colored by level
//
// Help and the restart confirmation are modal overlays. Toasts from the
// dashboard notifier stack below the active screen.
//
// # Themes
//
// Nightfox, Kanagawa and Blurple are available; T cycles them and the choice is
// saved to the preferences file.
package ui
