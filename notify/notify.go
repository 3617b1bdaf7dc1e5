// Package notify keeps the transient banners shown after user actions.
package notify

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/utils/logger"
	"go.uber.org/zap"
)

const DefaultTTL = 3 * time.Second

type Notification struct {
	ID        uint64
	Kind      enums.NotificationKind
	Message   string
	CreatedAt time.Time
}

// Notifier holds active notifications and dismisses each one after its TTL.
type Notifier struct {
	clock clock.Clock
	ttl   time.Duration

	mu       sync.Mutex
	nextID   uint64
	active   []Notification
	timers   map[uint64]*clock.Timer
	onChange func([]Notification)
}

func New(c clock.Clock, ttl time.Duration) *Notifier {
	if c == nil {
		c = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{clock: c, ttl: ttl, timers: map[uint64]*clock.Timer{}}
}

// OnChange registers fn to receive the active list after every change.
func (n *Notifier) OnChange(fn func([]Notification)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

func (n *Notifier) Success(msg string) Notification {
	return n.Push(enums.NotificationSuccess, msg)
}

func (n *Notifier) Error(msg string) Notification {
	return n.Push(enums.NotificationError, msg)
}

func (n *Notifier) Info(msg string) Notification {
	return n.Push(enums.NotificationInfo, msg)
}

func (n *Notifier) Push(kind enums.NotificationKind, msg string) Notification {
	n.mu.Lock()
	n.nextID++
	note := Notification{ID: n.nextID, Kind: kind, Message: msg, CreatedAt: n.clock.Now()}
	n.active = append(n.active, note)
	id := note.ID
	n.timers[id] = n.clock.AfterFunc(n.ttl, func() { n.Dismiss(id) })
	snapshot, fn := n.snapshotLocked()
	n.mu.Unlock()

	logger.LogDebug("notification", zap.String("kind", string(kind)), zap.String("message", msg))
	if fn != nil {
		fn(snapshot)
	}
	return note
}

func (n *Notifier) Dismiss(id uint64) {
	n.mu.Lock()
	idx := -1
	for i, note := range n.active {
		if note.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return
	}
	n.active = append(n.active[:idx], n.active[idx+1:]...)
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	snapshot, fn := n.snapshotLocked()
	n.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.active...)
}

// Latest returns the most recent active notification.
func (n *Notifier) Latest() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.active) == 0 {
		return Notification{}, false
	}
	return n.active[len(n.active)-1], true
}

// Close cancels pending dismissals and drops every notification.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.active = nil
}

func (n *Notifier) snapshotLocked() ([]Notification, func([]Notification)) {
	return append([]Notification(nil), n.active...), n.onChange
}
