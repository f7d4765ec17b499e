package session

import (
	"sync"

	"kakeibo/internal/core"
)

// Cursor is the month currently being displayed.
type Cursor struct {
	mu       sync.Mutex
	month    core.Month
	notifier *Notifier
}

// NewCursor starts at month. Moves are published on n when n is non-nil.
func NewCursor(month core.Month, n *Notifier) *Cursor {
	if month.IsZero() {
		month = core.CurrentMonth()
	}
	return &Cursor{month: month, notifier: n}
}

// Current returns the displayed month.
func (c *Cursor) Current() core.Month {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.month
}

// Advance moves to the next month and returns it.
func (c *Cursor) Advance() core.Month {
	return c.move(func(m core.Month) core.Month { return m.Next() })
}

// Retreat moves to the previous month and returns it.
func (c *Cursor) Retreat() core.Month {
	return c.move(func(m core.Month) core.Month { return m.Prev() })
}

// Set jumps to month. Setting the current month publishes nothing.
func (c *Cursor) Set(month core.Month) {
	if month.IsZero() {
		return
	}
	c.move(func(core.Month) core.Month { return month })
}

func (c *Cursor) move(step func(core.Month) core.Month) core.Month {
	c.mu.Lock()
	prev := c.month
	c.month = step(prev)
	next := c.month
	c.mu.Unlock()

	if next != prev && c.notifier != nil {
		c.notifier.Publish(Event{Kind: MonthChanged, Month: next})
	}
	return next
}
