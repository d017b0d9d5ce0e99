package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/botdash/internal/query"
)

// DefaultNotificationTTL is how long a toast stays visible unless dismissed.
const DefaultNotificationTTL = 5 * time.Second

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is one transient, dismissible message.
type Notification struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Notifier keeps the list of visible toasts. Each toast expires after the
// TTL or when dismissed, whichever comes first.
type Notifier struct {
	mu       sync.Mutex
	items    []Notification
	timers   map[string]query.Timer
	ttl      time.Duration
	clock    query.Clock
	onChange func()
}

// NewNotifier returns a notifier using clock for expiry. A nil clock uses
// wall time; ttl <= 0 uses DefaultNotificationTTL.
func NewNotifier(clock query.Clock, ttl time.Duration) *Notifier {
	if clock == nil {
		clock = query.SystemClock()
	}
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{clock: clock, ttl: ttl, timers: make(map[string]query.Timer)}
}

// OnChange registers fn to run after a toast is added, dismissed or expires.
func (n *Notifier) OnChange(fn func()) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

// Push adds a toast and returns it.
func (n *Notifier) Push(level Level, message string) Notification {
	note := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: n.clock.Now(),
	}

	n.mu.Lock()
	n.items = append(n.items, note)
	id := note.ID
	n.timers[id] = n.clock.AfterFunc(n.ttl, func() { n.remove(id) })
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
	return note
}

// Info, Success and Error are shorthands for Push.
func (n *Notifier) Info(message string) Notification    { return n.Push(LevelInfo, message) }
func (n *Notifier) Success(message string) Notification { return n.Push(LevelSuccess, message) }
func (n *Notifier) Error(message string) Notification   { return n.Push(LevelError, message) }

// Dismiss removes the toast with id. It reports whether it was visible.
func (n *Notifier) Dismiss(id string) bool {
	return n.remove(id)
}

// DismissLatest removes the most recent toast, if any.
func (n *Notifier) DismissLatest() bool {
	n.mu.Lock()
	if len(n.items) == 0 {
		n.mu.Unlock()
		return false
	}
	id := n.items[len(n.items)-1].ID
	n.mu.Unlock()
	return n.remove(id)
}

// Active returns the visible toasts, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return nil
	}
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

func (n *Notifier) remove(id string) bool {
	n.mu.Lock()
	idx := -1
	for i, item := range n.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return false
	}
	n.items = append(n.items[:idx], n.items[idx+1:]...)
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}
