// Package botapi provides an HTTP client for the bot backend API.
//
// # Overview
//
// The client issues typed requests against the backend that sits next to the
// Discord bot process and decodes its JSON responses. It never caches and never
// retries: one call is one outbound request. Caching, deduplication and retry
// policy belong to the query package.
//
// # Endpoints
//
//	GET    /api/bot/status               BotStatus
//	GET    /api/discord/guilds           []Guild
//	GET    /api/discord/guilds/:id       GuildInfo
//	GET    /api/servers/:id/stats        ServerStats
//	GET    /api/servers/:id/activity     []Activity
//	GET    /api/servers/:id/music/queue  MusicQueue
//	DELETE /api/servers/:id/music/queue  ack
//	POST   /api/bot/restart              ack
//
// Anything else can be reached through Client.Request.
//
// # Errors
//
// Every failure is one of three types, matched with errors.As:
//
//   - *NetworkError: no response arrived (dial, DNS, reset, timeout)
//   - *APIError: the backend answered with a non-2xx status
//   - *DecodeError: the body was not valid JSON for the expected shape
//
// # Usage
//
//	client, err := botapi.NewClient("127.0.0.1:3001", botapi.WithTimeout(5*time.Second))
//	if err != nil {
//		return err
//	}
//	status, err := client.GetBotStatus(ctx)
package botapi
