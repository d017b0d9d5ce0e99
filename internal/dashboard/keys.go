package dashboard

import "github.com/five82/botdash/internal/query"

// Resource keys. Server-scoped keys share the {"servers", id} prefix so a
// single invalidation refreshes every panel of that server.
var (
	BotStatusKey = query.Key{"bot", "status"}
	GuildsKey    = query.Key{"discord", "guilds"}
)

func ServerKey(guildID string) query.Key     { return query.Key{"servers", guildID} }
func StatsKey(guildID string) query.Key      { return query.Key{"servers", guildID, "stats"} }
func ActivityKey(guildID string) query.Key   { return query.Key{"servers", guildID, "activity"} }
func MusicQueueKey(guildID string) query.Key { return query.Key{"servers", guildID, "music/queue"} }
func GuildInfoKey(guildID string) query.Key  { return query.Key{"discord", "guilds", guildID} }
