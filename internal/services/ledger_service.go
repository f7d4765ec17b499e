package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/session"
	"kakeibo/internal/store"
)

// Publisher sends ledger change notifications to other processes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService orchestrates ledger mutations across the store, the in-process
// session and AMQP.
type LedgerService struct {
	store     store.Store
	session   *session.Session
	publisher Publisher
}

// NewLedgerService wires a service. sess and pub may be nil.
func NewLedgerService(st store.Store, sess *session.Session, pub Publisher) *LedgerService {
	return &LedgerService{
		store:     st,
		session:   sess,
		publisher: pub,
	}
}

// EntryInput is an entry as typed by a user, before parsing.
type EntryInput struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Amount   string `json:"amount"`
	Memo     string `json:"memo"`
}

// Parse converts the input into an entry with a fresh ID. An empty Kind means
// expense.
func (in EntryInput) Parse() (core.Entry, error) {
	var errs []error

	date, err := core.ParseDate(in.Date)
	if err != nil {
		errs = append(errs, err)
	}
	cat, err := core.ParseCategory(in.Category)
	if err != nil {
		errs = append(errs, err)
	}
	kind := core.Expense
	if strings.TrimSpace(in.Kind) != "" {
		if kind, err = core.ParseKind(in.Kind); err != nil {
			errs = append(errs, err)
		}
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return core.Entry{}, errors.Join(errs...)
	}

	e := core.NewEntry(date, cat, kind, amount, in.Memo)
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

// IsValidationError reports whether err came from rejecting user input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidMonth,
		core.ErrInvalidAmount,
		core.ErrUnknownCategory,
		core.ErrUnknownKind,
		core.ErrMemoTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// AddEntry stores a new entry. A missing ID or creation time is filled in.
func (s *LedgerService) AddEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Memo = strings.TrimSpace(e.Memo)
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	if err := s.store.AddEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("add entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry added",
		"entry_id", e.ID,
		"month", e.Month().String(),
		"category", e.Category,
		"amount", e.Signed())

	s.changed(ctx, e.ID, amqp.OpAdd, e.Month())
	return e, nil
}

// UpdateEntry replaces an existing entry, keeping its creation time. Both the
// old and the new month are notified when the date moves across months.
func (s *LedgerService) UpdateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	old, err := s.store.GetEntry(ctx, e.ID)
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	e.CreatedAt = old.CreatedAt
	e.Memo = strings.TrimSpace(e.Memo)
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry updated",
		"entry_id", e.ID,
		"month", e.Month().String(),
		"category", e.Category,
		"amount", e.Signed())

	if old.Month() != e.Month() {
		s.changed(ctx, e.ID, amqp.OpUpdate, old.Month())
	}
	s.changed(ctx, e.ID, amqp.OpUpdate, e.Month())
	return e, nil
}

// DeleteEntry removes an entry.
func (s *LedgerService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	old, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry deleted", "entry_id", id, "month", old.Month().String())

	s.changed(ctx, id, amqp.OpDelete, old.Month())
	return nil
}

// GetEntry returns one entry or core.ErrNotFound.
func (s *LedgerService) GetEntry(ctx context.Context, id uuid.UUID) (core.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// ListMonth returns the month's entries in ledger order.
func (s *LedgerService) ListMonth(ctx context.Context, month core.Month) ([]core.Entry, error) {
	if month.IsZero() {
		return nil, core.ErrInvalidMonth
	}
	entries, err := s.store.ListMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list month %s: %w", month, err)
	}
	return entries, nil
}

func (s *LedgerService) changed(ctx context.Context, id uuid.UUID, op amqp.Op, month core.Month) {
	if s.session != nil {
		s.session.LedgerChanged(month)
	}
	if s.publisher == nil {
		return
	}
	// the mutation is already stored; a lost message only delays the export
	if err := s.publisher.PublishLedgerChanged(ctx, amqp.NewLedgerChangedMessage(id, op, month)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"entry_id", id,
			"op", op,
			"month", month.String(),
			"error", err)
	}
}
