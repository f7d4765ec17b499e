package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/export"
	"kakeibo/internal/projection"
	"kakeibo/internal/store"
)

// Consumer delivers ledger change messages until ctx is done.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// SummaryWorker keeps exported month summaries in step with the ledger.
type SummaryWorker struct {
	store    store.MonthLister
	exporter export.Exporter
	interval time.Duration
	now      func() time.Time
}

func NewSummaryWorker(st store.MonthLister, exporter export.Exporter, interval time.Duration) *SummaryWorker {
	return &SummaryWorker{
		store:    st,
		exporter: exporter,
		interval: interval,
		now:      time.Now,
	}
}

// HandleLedgerChanged re-exports the month named by msg. Errors are returned
// so the message is requeued.
func (w *SummaryWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	month, err := msg.ReferenceMonth()
	if err != nil {
		return fmt.Errorf("message month: %w", err)
	}

	slog.InfoContext(ctx, "Processing ledger change",
		"entry_id", msg.EntryID,
		"op", msg.Op,
		"month", msg.Month)

	return w.ExportMonth(ctx, month)
}

// ExportMonth loads month from the store and exports its category summary.
func (w *SummaryWorker) ExportMonth(ctx context.Context, month core.Month) error {
	entries, err := w.store.ListMonth(ctx, month)
	if err != nil {
		return fmt.Errorf("list month %s: %w", month, err)
	}

	rows := projection.CategorySummary(entries, month)
	if err := w.exporter.ExportSummary(ctx, month, rows); err != nil {
		return fmt.Errorf("export month %s: %w", month, err)
	}

	slog.DebugContext(ctx, "Month exported", "month", month.String(), "entries", len(entries))
	return nil
}

// ExportYearToDate exports every month of the current year up to and
// including the current one. Failures are logged and counted; the first one
// is returned after all months were tried.
func (w *SummaryWorker) ExportYearToDate(ctx context.Context) error {
	current := core.MonthOf(core.DateOf(w.now()))
	first := core.MustMonth(current.Year(), 1)

	var errs []error
	exported := 0
	for m := first; !current.Before(m); m = m.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ExportMonth(ctx, m); err != nil {
			slog.ErrorContext(ctx, "Periodic export failed", "month", m.String(), "error", err)
			errs = append(errs, err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Periodic export completed",
		"year", current.Year(),
		"exported", exported,
		"errors", len(errs))

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Run exports the current month, then consumes change messages and
// periodically re-exports the year until ctx is done. consumer may be nil, in
// which case only the periodic export runs.
func (w *SummaryWorker) Run(ctx context.Context, consumer Consumer) error {
	current := core.MonthOf(core.DateOf(w.now()))
	if err := w.ExportMonth(ctx, current); err != nil {
		slog.WarnContext(ctx, "Startup export failed", "month", current.String(), "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeLedgerChanged(gctx, w.HandleLedgerChanged)
		})
	}

	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					// errors are logged inside; keep ticking
					_ = w.ExportYearToDate(gctx)
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
