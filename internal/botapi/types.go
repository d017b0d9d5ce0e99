package botapi

import (
	"strings"
	"time"
)

// Bot status values reported by /api/bot/status.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// BotStatus mirrors the payload returned by /api/bot/status.
type BotStatus struct {
	Status       string `json:"status"`
	UptimeMillis int64  `json:"uptime"`
	GuildCount   int    `json:"guilds"`
	UserCount    int    `json:"users"`
}

// Online reports whether the bot considers itself connected.
func (s BotStatus) Online() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), StatusOnline)
}

// Uptime converts the millisecond uptime into a duration.
func (s BotStatus) Uptime() time.Duration {
	if s.UptimeMillis <= 0 {
		return 0
	}
	return time.Duration(s.UptimeMillis) * time.Millisecond
}

// Guild is one entry of /api/discord/guilds.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GuildInfo mirrors /api/discord/guilds/:id. Both fields are optional upstream.
type GuildInfo struct {
	Name        string `json:"name,omitempty"`
	MemberCount *int   `json:"memberCount,omitempty"`
}

// Members returns the member count and whether the backend reported one.
func (g GuildInfo) Members() (int, bool) {
	if g.MemberCount == nil {
		return 0, false
	}
	return *g.MemberCount, true
}

// ServerStats mirrors /api/servers/:id/stats.
type ServerStats struct {
	CommandsUsed      int `json:"commandsUsed"`
	ModerationActions int `json:"moderationActions"`
	SongsPlayed       int `json:"songsPlayed"`
	ActiveMembers     int `json:"activeMembers"`
}

// Activity is one recent event from /api/servers/:id/activity.
type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// ParsedTime returns the timestamp as time.Time, or the zero time when the
// backend sent something unparseable.
func (a Activity) ParsedTime() time.Time {
	return parseTime(a.Timestamp)
}

// MusicQueue mirrors /api/servers/:id/music/queue.
type MusicQueue struct {
	NowPlaying *Track  `json:"nowPlaying,omitempty"`
	Tracks     []Track `json:"tracks"`
}

// Len counts queued tracks, excluding the one currently playing.
func (q MusicQueue) Len() int {
	return len(q.Tracks)
}

// Track describes a queued song.
type Track struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	DurationMS  int64  `json:"duration,omitempty"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

// Duration converts the millisecond track length into a duration.
func (t Track) Duration() time.Duration {
	if t.DurationMS <= 0 {
		return 0
	}
	return time.Duration(t.DurationMS) * time.Millisecond
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
