// Package session holds the state a ledger view shares across screens: the
// displayed month, the week-start day and a change notifier. A Session is
// constructed explicitly and passed to its users; nothing here is global.
package session

import (
	"context"
	"fmt"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/store"
)

// Session binds a store to a month cursor.
type Session struct {
	entries   store.EntryLister
	cursor    *Cursor
	notifier  *Notifier
	weekStart time.Weekday
}

// Options configures a Session.
type Options struct {
	Month     core.Month
	WeekStart time.Weekday
}

// New creates a session over entries. A zero Month starts at the current
// month.
func New(entries store.EntryLister, opts Options) *Session {
	if opts.WeekStart < time.Sunday || opts.WeekStart > time.Saturday {
		panic(fmt.Sprintf("session: invalid week start %d", opts.WeekStart))
	}
	n := NewNotifier()
	return &Session{
		entries:   entries,
		notifier:  n,
		cursor:    NewCursor(opts.Month, n),
		weekStart: opts.WeekStart,
	}
}

// Cursor returns the month cursor.
func (s *Session) Cursor() *Cursor { return s.cursor }

// Notifier returns the change notifier.
func (s *Session) Notifier() *Notifier { return s.notifier }

// WeekStart returns the first weekday of calendar rows.
func (s *Session) WeekStart() time.Weekday { return s.weekStart }

// Snapshot is a consistent view for one recompute pass.
type Snapshot struct {
	Month     core.Month
	WeekStart time.Weekday
	Entries   []core.Entry
	// Version is the store version read before the entries were listed;
	// zero when the store is not versioned.
	Version uint64
}

// Snapshot reads the cursor and the entry list once so that a pass never
// mixes two months or two ledger states.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.SnapshotFor(ctx, s.cursor.Current())
}

// SnapshotFor loads month without moving the cursor.
func (s *Session) SnapshotFor(ctx context.Context, month core.Month) (Snapshot, error) {
	snap := Snapshot{
		Month:     month,
		WeekStart: s.weekStart,
	}

	ver, err := s.Version(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Version = ver

	var entries []core.Entry
	if ml, ok := s.entries.(store.MonthLister); ok {
		entries, err = ml.ListMonth(ctx, month)
	} else {
		entries, err = s.entries.ListEntries(ctx)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("list entries for %s: %w", month, err)
	}
	snap.Entries = entries
	return snap, nil
}

// Version returns the store version, zero when the store is not versioned.
func (s *Session) Version(ctx context.Context) (uint64, error) {
	v, ok := s.entries.(store.Versioned)
	if !ok {
		return 0, nil
	}
	ver, err := v.Version(ctx)
	if err != nil {
		return 0, fmt.Errorf("read store version: %w", err)
	}
	return ver, nil
}

// LedgerChanged publishes a LedgerChanged event for month.
func (s *Session) LedgerChanged(month core.Month) {
	s.notifier.Publish(Event{Kind: LedgerChanged, Month: month})
}
