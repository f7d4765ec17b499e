package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

func mustEntry(t *testing.T, y, m, d int, c core.Category, amount int64) core.Entry {
	t.Helper()
	return core.NewEntry(core.NewDate(y, m, d), c, core.Expense, core.Money(amount), "")
}

func TestStoreAddListAndVersion(t *testing.T) {
	ctx := context.Background()
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if v, _ := s.Version(ctx); v != 0 {
		t.Fatalf("fresh store version = %d, want 0", v)
	}

	e1 := mustEntry(t, 2022, 5, 31, core.Life, 700)
	e2 := mustEntry(t, 2022, 6, 1, core.Life, 1000)
	for _, e := range []core.Entry{e1, e2} {
		if err := s.AddEntry(ctx, e); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}

	all, _ := s.ListEntries(ctx)
	if len(all) != 2 || all[0].ID != e1.ID {
		t.Fatalf("unexpected entries: %+v", all)
	}
	june, _ := s.ListMonth(ctx, core.MustMonth(2022, 6))
	if len(june) != 1 || june[0].ID != e2.ID {
		t.Fatalf("ListMonth(2022-06) = %+v", june)
	}
	if v, _ := s.Version(ctx); v != 2 {
		t.Fatalf("version after two adds = %d, want 2", v)
	}

	// Returned slices are copies.
	all[0].Memo = "changed"
	again, _ := s.ListEntries(ctx)
	if again[0].Memo != "" {
		t.Fatalf("ListEntries leaked internal slice")
	}
}

func TestStoreRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	s, _ := New()

	tests := []struct {
		name string
		mod  func(*core.Entry)
		want error
	}{
		{"unknown category", func(e *core.Entry) { e.Category = "food" }, core.ErrUnknownCategory},
		{"zero amount", func(e *core.Entry) { e.Amount = 0 }, core.ErrInvalidAmount},
		{"bad kind", func(e *core.Entry) { e.Kind = "refund" }, core.ErrUnknownKind},
		{"zero date", func(e *core.Entry) { e.Date = core.Date{} }, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEntry(t, 2022, 6, 1, core.Life, 100)
			tt.mod(&e)
			if err := s.AddEntry(ctx, e); !errors.Is(err, tt.want) {
				t.Fatalf("AddEntry err = %v, want %v", err, tt.want)
			}
		})
	}
	if s.Len() != 0 {
		t.Fatalf("invalid entries were stored")
	}
}

func TestStoreUpdateDelete(t *testing.T) {
	ctx := context.Background()
	e := mustEntry(t, 2022, 6, 1, core.Life, 100)
	s, _ := New(e)

	upd := e
	upd.Amount = 250
	upd.Category = core.Medical
	if err := s.UpdateEntry(ctx, upd); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	got, err := s.GetEntry(ctx, e.ID)
	if err != nil || got.Amount != 250 || got.Category != core.Medical {
		t.Fatalf("GetEntry after update = %+v, %v", got, err)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("update changed CreatedAt")
	}

	if err := s.DeleteEntry(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := s.GetEntry(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetEntry after delete err = %v", err)
	}
	if err := s.DeleteEntry(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if err := s.UpdateEntry(ctx, upd); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update of deleted entry err = %v", err)
	}
	if v, _ := s.Version(ctx); v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil || s.Len() != 0 {
		t.Fatalf("missing seed file: len=%d err=%v", s.Len(), err)
	}

	path := filepath.Join(dir, "seed.json")
	id := uuid.New()
	seed := `[
  {"id": "` + id.String() + `", "date": "2022-06-01", "category": "life", "kind": "expense", "amount": 1000},
  {"date": "2022-06-25", "category": "other", "kind": "income", "amount": 250000, "memo": "salary"}
]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	entries, _ := s.ListEntries(context.Background())
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].ID != id {
		t.Fatalf("seed id not kept: %s", entries[0].ID)
	}
	if entries[1].ID == uuid.Nil {
		t.Fatalf("missing id not assigned")
	}

	if err := os.WriteFile(path, []byte(`[{"date":"2022-06-01","category":"food","kind":"expense","amount":1}]`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("invalid seed err = %v", err)
	}
}
