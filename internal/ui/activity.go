package ui

import "strings"

// ActivityKind is the closed set of activity feed categories.
type ActivityKind int

const (
	ActivityOther ActivityKind = iota
	ActivityCommand
	ActivityModeration
	ActivityMusic
	ActivityJoin
	ActivityLeave
	ActivityError
)

// activityTags maps the API's type strings onto kinds. Anything not listed
// is ActivityOther.
var activityTags = map[string]ActivityKind{
	"command":       ActivityCommand,
	"slash_command": ActivityCommand,
	"moderation":    ActivityModeration,
	"ban":           ActivityModeration,
	"unban":         ActivityModeration,
	"kick":          ActivityModeration,
	"mute":          ActivityModeration,
	"timeout":       ActivityModeration,
	"warn":          ActivityModeration,
	"music":         ActivityMusic,
	"play":          ActivityMusic,
	"song":          ActivityMusic,
	"join":          ActivityJoin,
	"member_join":   ActivityJoin,
	"leave":         ActivityLeave,
	"member_leave":  ActivityLeave,
	"error":         ActivityError,
}

// ParseActivityKind classifies an activity type tag.
func ParseActivityKind(tag string) ActivityKind {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.ReplaceAll(tag, "-", "_")
	if kind, ok := activityTags[tag]; ok {
		return kind
	}
	return ActivityOther
}

// String returns the kind's theme color key.
func (k ActivityKind) String() string {
	switch k {
	case ActivityCommand:
		return "command"
	case ActivityModeration:
		return "moderation"
	case ActivityMusic:
		return "music"
	case ActivityJoin:
		return "join"
	case ActivityLeave:
		return "leave"
	case ActivityError:
		return "error"
	default:
		return "other"
	}
}

// Glyph returns the feed icon for the kind.
func (k ActivityKind) Glyph() string {
	switch k {
	case ActivityCommand:
		return "❯"
	case ActivityModeration:
		return "⚑"
	case ActivityMusic:
		return "♪"
	case ActivityJoin:
		return "+"
	case ActivityLeave:
		return "-"
	case ActivityError:
		return "✗"
	default:
		return "•"
	}
}
