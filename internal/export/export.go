// Package export publishes month category summaries outside the process.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"kakeibo/internal/core"
)

// Exporter writes one month's category summary somewhere durable.
type Exporter interface {
	ExportSummary(ctx context.Context, month core.Month, rows []core.MonthlyCategoryTotal) error
}

// BlockRows is the height of one month block: title, header, one row per
// category, total, blank spacer.
var BlockRows = 2 + len(core.Categories()) + 2

// BlockStartRow is the 1-based sheet row where month's block begins.
func BlockStartRow(month core.Month) int {
	return (month.Month()-1)*BlockRows + 1
}

// BlockRange is the A1 range covering month's block in sheet.
func BlockRange(sheet string, month core.Month) string {
	start := BlockStartRow(month)
	return fmt.Sprintf("'%s'!A%d:E%d", sheet, start, start+BlockRows-1)
}

// BuildSummaryRows lays out a month block as sheet values. rows must be the
// full category summary in display order.
func BuildSummaryRows(month core.Month, rows []core.MonthlyCategoryTotal) [][]interface{} {
	out := make([][]interface{}, 0, BlockRows)
	out = append(out,
		[]interface{}{month.Title(), "", "", "", ""},
		[]interface{}{"Category", "Income", "Expense", "Balance", "Share %"},
	)

	var income, expense int64
	for _, r := range rows {
		income += r.TotalIncome
		expense += r.TotalExpense
		out = append(out, []interface{}{
			r.Category.DisplayName(),
			r.TotalIncome,
			r.TotalExpense,
			r.Balance(),
			r.Share.StringFixed(2),
		})
	}

	share := "0.00"
	if expense > 0 {
		share = "100.00"
	}
	out = append(out,
		[]interface{}{"Total", income, expense, income - expense, share},
		[]interface{}{"", "", "", "", ""},
	)
	return out
}

// LogExporter logs summaries instead of exporting them. It stands in when no
// spreadsheet is configured.
type LogExporter struct {
	Logger *slog.Logger
}

func (e LogExporter) ExportSummary(ctx context.Context, month core.Month, rows []core.MonthlyCategoryTotal) error {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var income, expense int64
	for _, r := range rows {
		income += r.TotalIncome
		expense += r.TotalExpense
	}
	logger.InfoContext(ctx, "Month summary computed",
		"month", month.String(),
		"categories", len(rows),
		"income", income,
		"expense", expense)
	return nil
}

// Recorder keeps the last export per month. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	exports map[core.Month][]core.MonthlyCategoryTotal
	calls   int
}

func NewRecorder() *Recorder {
	return &Recorder{exports: make(map[core.Month][]core.MonthlyCategoryTotal)}
}

func (r *Recorder) ExportSummary(_ context.Context, month core.Month, rows []core.MonthlyCategoryTotal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]core.MonthlyCategoryTotal, len(rows))
	copy(cp, rows)
	r.exports[month] = cp
	r.calls++
	return nil
}

// Last returns the most recent export for month.
func (r *Recorder) Last(month core.Month) ([]core.MonthlyCategoryTotal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, ok := r.exports[month]
	return rows, ok
}

// Calls returns how many exports were recorded.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
