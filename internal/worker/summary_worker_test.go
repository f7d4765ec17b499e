package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/export"
	"kakeibo/internal/store/memory"
)

type failingExporter struct{ err error }

func (f failingExporter) ExportSummary(context.Context, core.Month, []core.MonthlyCategoryTotal) error {
	return f.err
}

// fakeConsumer hands msgs to the handler, then blocks until ctx is done.
type fakeConsumer struct {
	msgs    []*amqp.LedgerChangedMessage
	results chan error
}

func (c *fakeConsumer) ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error {
	for _, m := range c.msgs {
		c.results <- handler(ctx, m)
	}
	<-ctx.Done()
	return ctx.Err()
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	st, err := memory.New(
		core.NewEntry(core.NewDate(2022, 6, 1), core.Life, core.Expense, 1000, ""),
		core.NewEntry(core.NewDate(2022, 6, 2), core.Consumption, core.Expense, 3000, ""),
		core.NewEntry(core.NewDate(2022, 7, 1), core.Life, core.Expense, 500, ""),
	)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	return st
}

func TestSummaryWorker_HandleLedgerChanged(t *testing.T) {
	rec := export.NewRecorder()
	w := NewSummaryWorker(seededStore(t), rec, 0)

	msg := amqp.NewLedgerChangedMessage(uuid.New(), amqp.OpAdd, core.MustMonth(2022, 6))
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerChanged: %v", err)
	}

	rows, ok := rec.Last(core.MustMonth(2022, 6))
	if !ok {
		t.Fatal("June was not exported")
	}
	if len(rows) != len(core.Categories()) {
		t.Errorf("exported %d rows, want every category", len(rows))
	}
	if rows[0].Category != core.Consumption || rows[0].TotalExpense != 3000 || rows[0].Share.StringFixed(2) != "75.00" {
		t.Errorf("consumption row = %+v", rows[0])
	}
	if _, ok := rec.Last(core.MustMonth(2022, 7)); ok {
		t.Error("July should not be exported")
	}
}

func TestSummaryWorker_HandleLedgerChanged_Errors(t *testing.T) {
	exportErr := errors.New("sheets unavailable")
	w := NewSummaryWorker(seededStore(t), failingExporter{err: exportErr}, 0)

	err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage(uuid.New(), amqp.OpAdd, core.MustMonth(2022, 6)))
	if !errors.Is(err, exportErr) {
		t.Errorf("error = %v, want wrapped export error", err)
	}

	bad := &amqp.LedgerChangedMessage{Op: amqp.OpAdd, Month: "June"}
	if err := w.HandleLedgerChanged(context.Background(), bad); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("bad month error = %v", err)
	}
}

func TestSummaryWorker_ExportYearToDate(t *testing.T) {
	rec := export.NewRecorder()
	w := NewSummaryWorker(seededStore(t), rec, 0)
	w.now = func() time.Time { return time.Date(2022, 7, 15, 12, 0, 0, 0, time.UTC) }

	if err := w.ExportYearToDate(context.Background()); err != nil {
		t.Fatalf("ExportYearToDate: %v", err)
	}
	if rec.Calls() != 7 {
		t.Errorf("exported %d months, want 7 (Jan..Jul)", rec.Calls())
	}
	if _, ok := rec.Last(core.MustMonth(2022, 8)); ok {
		t.Error("future months must not be exported")
	}
}

func TestSummaryWorker_Run(t *testing.T) {
	rec := export.NewRecorder()
	w := NewSummaryWorker(seededStore(t), rec, time.Hour)
	w.now = func() time.Time { return time.Date(2022, 7, 15, 12, 0, 0, 0, time.UTC) }

	consumer := &fakeConsumer{
		msgs:    []*amqp.LedgerChangedMessage{amqp.NewLedgerChangedMessage(uuid.New(), amqp.OpDelete, core.MustMonth(2022, 6))},
		results: make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()

	select {
	case err := <-consumer.results:
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message was not handled")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}

	if _, ok := rec.Last(core.MustMonth(2022, 7)); !ok {
		t.Error("startup export of the current month missing")
	}
	if _, ok := rec.Last(core.MustMonth(2022, 6)); !ok {
		t.Error("June should be exported from the message")
	}
}
