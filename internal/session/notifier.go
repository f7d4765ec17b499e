package session

import (
	"sync"

	"kakeibo/internal/core"
)

// EventKind says what changed.
type EventKind int

const (
	// MonthChanged is published when the cursor moves.
	MonthChanged EventKind = iota + 1
	// LedgerChanged is published after an entry is added, updated or deleted.
	LedgerChanged
)

func (k EventKind) String() string {
	switch k {
	case MonthChanged:
		return "month_changed"
	case LedgerChanged:
		return "ledger_changed"
	default:
		return "unknown"
	}
}

// Event carries the month affected by a change.
type Event struct {
	Kind  EventKind
	Month core.Month
}

// Notifier fans events out to subscribers. Callbacks run synchronously on
// the publishing goroutine, in subscription order.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewNotifier creates a notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is a no-op.
func (n *Notifier) Subscribe(fn func(Event)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier) remove(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every current subscriber. The lock is not held
// while callbacks run, so a callback may subscribe, unsubscribe or publish.
func (n *Notifier) Publish(ev Event) {
	n.mu.Lock()
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
