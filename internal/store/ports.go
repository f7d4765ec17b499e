// Package store defines the ports the ledger engine reads from and writes
// to. Adapters live in the memory and sqlite subpackages.
package store

import (
	"context"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

// Ports for ledger storage adapters.
type (
	// EntryLister returns every stored entry.
	EntryLister interface {
		ListEntries(ctx context.Context) ([]core.Entry, error)
	}

	// MonthLister returns the entries dated within one month.
	MonthLister interface {
		ListMonth(ctx context.Context, month core.Month) ([]core.Entry, error)
	}

	// EntryGetter looks up one entry, returning core.ErrNotFound when the id
	// is unknown.
	EntryGetter interface {
		GetEntry(ctx context.Context, id uuid.UUID) (core.Entry, error)
	}

	// EntryWriter mutates the ledger. Adapters validate entries before
	// writing them. Update and Delete return core.ErrNotFound for unknown ids.
	EntryWriter interface {
		AddEntry(ctx context.Context, e core.Entry) error
		UpdateEntry(ctx context.Context, e core.Entry) error
		DeleteEntry(ctx context.Context, id uuid.UUID) error
	}

	// Versioned reports a counter that increases on every mutation.
	Versioned interface {
		Version(ctx context.Context) (uint64, error)
	}

	// Store is the full set of ports a backend provides.
	Store interface {
		EntryLister
		MonthLister
		EntryGetter
		EntryWriter
		Versioned
	}
)
