package state

import (
	"strings"
	"sync"

	"github.com/five82/botdash/internal/botapi"
)

// Phase is the selection state of the dashboard.
type Phase int

const (
	NoServerSelected Phase = iota
	ServerSelected
	// ServerUnavailable means the selected guild vanished from the guild list
	// and there was nothing to fall back to.
	ServerUnavailable
)

func (p Phase) String() string {
	switch p {
	case ServerSelected:
		return "selected"
	case ServerUnavailable:
		return "unavailable"
	default:
		return "none"
	}
}

// Selection is the current server choice. GuildID is empty only in
// NoServerSelected.
type Selection struct {
	Phase   Phase
	GuildID string
}

// Active reports whether server-scoped resources should be loaded.
func (s Selection) Active() bool {
	return s.Phase == ServerSelected && s.GuildID != ""
}

// Store coordinates concurrent access to the selection.
// The zero value is ready to use.
type Store struct {
	mu        sync.RWMutex
	selection Selection
	preferred string
	guilds    []botapi.Guild
}

// SetPreferred records a guild to pick on the first guild list that
// contains it, e.g. the last selection restored from preferences.
func (s *Store) SetPreferred(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferred = strings.TrimSpace(guildID)
}

// ApplyGuilds reacts to a successful guild-list fetch. It returns the new
// selection and whether it changed.
//
//   - nothing selected: pick the preferred guild if listed, else the first
//   - selected guild still listed: keep it
//   - selected guild gone: fall back to the first guild, or become
//     ServerUnavailable when the list is empty
//   - unavailable guild listed again: select it again
func (s *Store) ApplyGuilds(guilds []botapi.Guild) (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guilds = cloneGuilds(guilds)
	prev := s.selection
	next := prev

	switch prev.Phase {
	case NoServerSelected:
		if id, ok := s.pickLocked(s.preferred); ok {
			next = Selection{Phase: ServerSelected, GuildID: id}
		}
	case ServerSelected, ServerUnavailable:
		if containsGuild(guilds, prev.GuildID) {
			next = Selection{Phase: ServerSelected, GuildID: prev.GuildID}
		} else if id, ok := s.pickLocked(""); ok {
			next = Selection{Phase: ServerSelected, GuildID: id}
		} else {
			next = Selection{Phase: ServerUnavailable, GuildID: prev.GuildID}
		}
	}

	s.selection = next
	return next, next != prev
}

// Select records an explicit user choice. It always results in
// ServerSelected, even for guilds missing from the last list.
func (s *Store) Select(guildID string) (Selection, bool) {
	id := strings.TrimSpace(guildID)
	if id == "" {
		return s.Current(), false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.selection
	s.selection = Selection{Phase: ServerSelected, GuildID: id}
	return s.selection, s.selection != prev
}

// Current returns the current selection.
func (s *Store) Current() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Guilds returns a copy of the last applied guild list.
func (s *Store) Guilds() []botapi.Guild {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGuilds(s.guilds)
}

func (s *Store) pickLocked(preferred string) (string, bool) {
	if preferred != "" && containsGuild(s.guilds, preferred) {
		return preferred, true
	}
	for _, g := range s.guilds {
		if strings.TrimSpace(g.ID) != "" {
			return g.ID, true
		}
	}
	return "", false
}

func containsGuild(guilds []botapi.Guild, id string) bool {
	if id == "" {
		return false
	}
	for _, g := range guilds {
		if g.ID == id {
			return true
		}
	}
	return false
}

func cloneGuilds(guilds []botapi.Guild) []botapi.Guild {
	if len(guilds) == 0 {
		return nil
	}
	dup := make([]botapi.Guild, len(guilds))
	copy(dup, guilds)
	return dup
}
