package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/session"
	"kakeibo/internal/store/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *fakePublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *fakePublisher) months() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Month
	}
	return out
}

func newTestService(t *testing.T, pub Publisher) (*LedgerService, *memory.Store, *[]session.Event) {
	t.Helper()
	st, err := memory.New()
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	sess := session.New(st, session.Options{Month: core.MustMonth(2022, 6)})
	var events []session.Event
	sess.Notifier().Subscribe(func(ev session.Event) { events = append(events, ev) })
	return NewLedgerService(st, sess, pub), st, &events
}

func TestEntryInput_Parse(t *testing.T) {
	tests := []struct {
		name    string
		in      EntryInput
		wantErr error
		check   func(t *testing.T, e core.Entry)
	}{
		{
			name: "expense by default",
			in:   EntryInput{Date: "2022-06-01", Category: "Life", Amount: "¥1,500", Memo: " rice "},
			check: func(t *testing.T, e core.Entry) {
				if e.Kind != core.Expense || e.Amount != 1500 || e.Category != core.Life || e.Memo != "rice" {
					t.Errorf("unexpected entry %+v", e)
				}
				if e.ID == uuid.Nil {
					t.Error("entry should get an ID")
				}
			},
		},
		{
			name: "income",
			in:   EntryInput{Date: "2022-06-25", Category: "other", Kind: "income", Amount: "250000"},
			check: func(t *testing.T, e core.Entry) {
				if e.Signed() != 250000 {
					t.Errorf("Signed() = %d", e.Signed())
				}
			},
		},
		{name: "bad date", in: EntryInput{Date: "2022-02-30", Category: "life", Amount: "1"}, wantErr: core.ErrInvalidDate},
		{name: "bad category", in: EntryInput{Date: "2022-06-01", Category: "food", Amount: "1"}, wantErr: core.ErrUnknownCategory},
		{name: "bad kind", in: EntryInput{Date: "2022-06-01", Category: "life", Kind: "refund", Amount: "1"}, wantErr: core.ErrUnknownKind},
		{name: "zero amount", in: EntryInput{Date: "2022-06-01", Category: "life", Amount: "0"}, wantErr: core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.in.Parse()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				if !IsValidationError(err) {
					t.Errorf("IsValidationError(%v) = false", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			tt.check(t, e)
		})
	}
}

func TestEntryInput_ParseReportsEveryField(t *testing.T) {
	_, err := EntryInput{Date: "x", Category: "y", Amount: "z"}.Parse()
	for _, target := range []error{core.ErrInvalidDate, core.ErrUnknownCategory, core.ErrInvalidAmount} {
		if !errors.Is(err, target) {
			t.Errorf("error %v should include %v", err, target)
		}
	}
}

func TestLedgerService_AddEntry(t *testing.T) {
	pub := &fakePublisher{}
	svc, st, events := newTestService(t, pub)
	ctx := context.Background()

	e := core.Entry{Date: core.NewDate(2022, 6, 1), Category: core.Life, Kind: core.Expense, Amount: 1500}
	added, err := svc.AddEntry(ctx, e)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if added.ID == uuid.Nil || added.CreatedAt.IsZero() {
		t.Errorf("AddEntry should fill ID and CreatedAt: %+v", added)
	}
	if st.Len() != 1 {
		t.Errorf("store has %d entries", st.Len())
	}
	if len(*events) != 1 || (*events)[0].Kind != session.LedgerChanged || (*events)[0].Month != core.MustMonth(2022, 6) {
		t.Errorf("events = %+v", *events)
	}
	if got := pub.months(); len(got) != 1 || got[0] != "2022-06" || pub.msgs[0].Op != amqp.OpAdd {
		t.Errorf("published = %v", got)
	}
}

func TestLedgerService_AddEntry_Invalid(t *testing.T) {
	pub := &fakePublisher{}
	svc, st, events := newTestService(t, pub)

	_, err := svc.AddEntry(context.Background(), core.Entry{Date: core.NewDate(2022, 6, 1), Category: "food", Kind: core.Expense, Amount: 1})
	if !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("AddEntry error = %v", err)
	}
	if st.Len() != 0 || len(*events) != 0 || len(pub.months()) != 0 {
		t.Error("rejected entry must not be stored or announced")
	}
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	svc, st, _ := newTestService(t, pub)

	_, err := svc.AddEntry(context.Background(), core.NewEntry(core.NewDate(2022, 6, 1), core.Life, core.Expense, 100, ""))
	if err != nil {
		t.Fatalf("AddEntry should succeed when publish fails: %v", err)
	}
	if st.Len() != 1 {
		t.Error("entry should be stored")
	}
}

func TestLedgerService_UpdateEntry_AcrossMonths(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, events := newTestService(t, pub)
	ctx := context.Background()

	added, err := svc.AddEntry(ctx, core.NewEntry(core.NewDate(2022, 6, 30), core.Life, core.Expense, 100, ""))
	if err != nil {
		t.Fatal(err)
	}
	*events = nil
	pub.msgs = nil

	moved := added
	moved.Date = core.NewDate(2022, 7, 1)
	moved.CreatedAt = added.CreatedAt.Add(1e9)
	got, err := svc.UpdateEntry(ctx, moved)
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if !got.CreatedAt.Equal(added.CreatedAt) {
		t.Error("UpdateEntry must keep CreatedAt")
	}
	if len(*events) != 2 || (*events)[0].Month != core.MustMonth(2022, 6) || (*events)[1].Month != core.MustMonth(2022, 7) {
		t.Errorf("events = %+v", *events)
	}
	if months := pub.months(); len(months) != 2 || months[0] != "2022-06" || months[1] != "2022-07" {
		t.Errorf("published = %v", months)
	}
}

func TestLedgerService_UpdateEntry_SameMonth(t *testing.T) {
	svc, _, events := newTestService(t, nil)
	ctx := context.Background()

	added, _ := svc.AddEntry(ctx, core.NewEntry(core.NewDate(2022, 6, 3), core.Life, core.Expense, 100, ""))
	*events = nil

	added.Amount = 200
	if _, err := svc.UpdateEntry(ctx, added); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if len(*events) != 1 {
		t.Errorf("same-month update should notify once, got %d", len(*events))
	}
}

func TestLedgerService_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.UpdateEntry(ctx, core.NewEntry(core.NewDate(2022, 6, 1), core.Life, core.Expense, 1, ""))
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateEntry error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteEntry(ctx, uuid.New()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteEntry error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetEntry(ctx, uuid.New()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetEntry error = %v, want ErrNotFound", err)
	}
}

func TestLedgerService_DeleteAndList(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, _ := newTestService(t, pub)
	ctx := context.Background()

	a, _ := svc.AddEntry(ctx, core.NewEntry(core.NewDate(2022, 6, 1), core.Life, core.Expense, 100, ""))
	_, _ = svc.AddEntry(ctx, core.NewEntry(core.NewDate(2022, 6, 2), core.Life, core.Expense, 200, ""))
	_, _ = svc.AddEntry(ctx, core.NewEntry(core.NewDate(2022, 7, 1), core.Life, core.Expense, 300, ""))

	if err := svc.DeleteEntry(ctx, a.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if last := pub.msgs[len(pub.msgs)-1]; last.Op != amqp.OpDelete || last.Month != "2022-06" {
		t.Errorf("last message = %+v", last)
	}

	june, err := svc.ListMonth(ctx, core.MustMonth(2022, 6))
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(june) != 1 || june[0].Amount != 200 {
		t.Errorf("ListMonth = %+v", june)
	}
	if _, err := svc.ListMonth(ctx, core.Month{}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("ListMonth(zero) error = %v", err)
	}
}
