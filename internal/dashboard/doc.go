// Package dashboard composes the query cache, the bot API and the selection
// state into the data model the UI renders.
//
// Start subscribes two global resources: the bot status, polled every 30
// seconds, and the guild list. Each successful guild list runs through the
// selection store; whenever the selection changes the four server-scoped
// subscriptions (stats, activity, guild detail, music queue) are released
// and recreated for the new guild.
//
// Quick actions are one-shot mutations. Each Action refuses to run twice at
// once, invalidates the keys it affects on success and turns failures into
// error toasts. Nothing is retried.
//
// Snapshot returns a View that is safe to render from any goroutine;
// OnChange tells the caller when a new one is worth taking.
package dashboard
