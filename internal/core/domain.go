package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const MaxMemoLength = 200

type (
	// Kind tells whether an entry adds to or subtracts from the balance.
	Kind string

	// Entry is a single dated income or expense record.
	Entry struct {
		ID        uuid.UUID `json:"id"`
		Date      Date      `json:"date"`
		Category  Category  `json:"category"`
		Kind      Kind      `json:"kind"`
		Amount    Money     `json:"amount"` // always positive, sign comes from Kind
		Memo      string    `json:"memo"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownKind     = errors.New("unknown kind")
	ErrMemoTooLong     = fmt.Errorf("memo too long (max %d characters)", MaxMemoLength)
	ErrNotFound        = errors.New("entry not found")
)

// ParseKind validates a kind coming from outside the process.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// NewEntry creates an entry with a fresh ID.
func NewEntry(date Date, category Category, kind Kind, amount Money, memo string) Entry {
	return Entry{
		ID:        uuid.New(),
		Date:      date,
		Category:  category,
		Kind:      kind,
		Amount:    amount,
		Memo:      strings.TrimSpace(memo),
		CreatedAt: time.Now().UTC(),
	}
}

// Signed returns the amount with income positive and expense negative.
// It panics on an unknown kind.
func (e Entry) Signed() int64 {
	switch e.Kind {
	case Income:
		return int64(e.Amount)
	case Expense:
		return -int64(e.Amount)
	default:
		panic(fmt.Sprintf("core: entry %s has unknown kind %q", e.ID, string(e.Kind)))
	}
}

// Month returns the month the entry belongs to.
func (e Entry) Month() Month {
	return MonthOf(e.Date)
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(e.Category))
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(e.Kind))
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(e.Memo) > MaxMemoLength {
		return ErrMemoTooLong
	}
	return nil
}
