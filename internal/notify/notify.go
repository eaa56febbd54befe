// Package notify implements the user-facing notification sink. Every
// component reports outcomes here; notifications carry a kind, expire
// automatically and never hold domain state.
package notify

import (
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// TTL is how long a notification stays active before it is auto-dismissed.
const TTL = 4 * time.Second

// Notification is a single fire-and-forget status message.
type Notification struct {
	ID      int64
	Message string
	Kind    Kind
	At      time.Time
}

// Expired reports whether the notification has outlived its TTL at now.
func (n Notification) Expired(now time.Time) bool {
	return now.Sub(n.At) >= TTL
}

// Handler is a function that receives notifications as they are posted.
type Handler func(Notification)

// Notifier fans notifications out to subscribers and keeps the set of
// currently active (non-expired) ones for polling consumers like the TUI.
type Notifier struct {
	mu       sync.RWMutex
	nextID   int64
	active   []Notification
	handlers []Handler
	now      func() time.Time
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{now: time.Now}
}

// Subscribe registers a handler invoked synchronously for every notification.
func (nf *Notifier) Subscribe(h Handler) {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	nf.handlers = append(nf.handlers, h)
}

// Notify posts a notification of the given kind.
func (nf *Notifier) Notify(message string, kind Kind) {
	nf.mu.Lock()
	nf.nextID++
	n := Notification{
		ID:      nf.nextID,
		Message: message,
		Kind:    kind,
		At:      nf.now(),
	}
	nf.prune(n.At)
	nf.active = append(nf.active, n)
	handlers := make([]Handler, len(nf.handlers))
	copy(handlers, nf.handlers)
	nf.mu.Unlock()

	for _, h := range handlers {
		h(n)
	}
}

func (nf *Notifier) Success(message string) { nf.Notify(message, KindSuccess) }
func (nf *Notifier) Error(message string)   { nf.Notify(message, KindError) }
func (nf *Notifier) Info(message string)    { nf.Notify(message, KindInfo) }

// Active returns the notifications that have not yet expired, oldest first.
func (nf *Notifier) Active() []Notification {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	nf.prune(nf.now())
	out := make([]Notification, len(nf.active))
	copy(out, nf.active)
	return out
}

// prune drops expired notifications. Callers must hold the lock.
func (nf *Notifier) prune(now time.Time) {
	kept := nf.active[:0]
	for _, n := range nf.active {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	nf.active = kept
}
