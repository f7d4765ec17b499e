// Package projection maps calendar grids and ledger totals into the plain
// row shapes the calendar, category and graph screens display.
package projection

import (
	"github.com/shopspring/decimal"

	"kakeibo/internal/calendar"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

// CalendarCells returns one cell per grid date, in grid order.
func CalendarCells(grid calendar.Grid, perDay map[core.Date]int64) []core.CalendarCell {
	cells := make([]core.CalendarCell, len(grid.Cells))
	for i, d := range grid.Cells {
		cells[i] = core.CalendarCell{
			Date:             d,
			InDisplayedMonth: grid.Month.Contains(d),
			TotalBalance:     perDay[d],
		}
	}
	return cells
}

// Drilldown lists one category's entries for a month, grouped by day.
// Rows[i] belongs under Headers[i].
type Drilldown struct {
	Rows    [][]core.EntryRow `json:"rows"`
	Headers []core.DayTotal   `json:"headers"`
}

// CategoryDrilldown filters entries to month and category and groups them by
// day. Days without a matching entry get neither a header nor rows.
func CategoryDrilldown(entries []core.Entry, month core.Month, category core.Category) Drilldown {
	matching := ledger.FilterCategory(ledger.FilterMonth(entries, month), category)
	groups := ledger.GroupByDay(matching)

	dd := Drilldown{
		Rows:    make([][]core.EntryRow, 0, len(groups)),
		Headers: make([]core.DayTotal, 0, len(groups)),
	}
	for _, g := range groups {
		header := core.DayTotal{Date: g.Date}
		rows := make([]core.EntryRow, 0, len(g.Entries))
		for _, e := range g.Entries {
			header.Add(e)
			rows = append(rows, core.RowOf(e))
		}
		dd.Headers = append(dd.Headers, header)
		dd.Rows = append(dd.Rows, rows)
	}
	return dd
}

// Total sums the drilldown headers.
func (d Drilldown) Total() core.DayTotal {
	var t core.DayTotal
	for _, h := range d.Headers {
		t.Income += h.Income
		t.Expense += h.Expense
		t.Balance += h.Balance
		t.Count += h.Count
	}
	return t
}

// CategorySummary returns one row per category in display order. Categories
// with no activity in the month are included with zero totals.
func CategorySummary(entries []core.Entry, month core.Month) []core.MonthlyCategoryTotal {
	return SummaryFromResult(ledger.Aggregate(entries, month))
}

// SummaryFromResult builds the category summary from an aggregate that was
// already computed.
func SummaryFromResult(res ledger.Result) []core.MonthlyCategoryTotal {
	cats := core.Categories()
	out := make([]core.MonthlyCategoryTotal, len(cats))
	for i, c := range cats {
		ct := res.Category(c)
		out[i] = core.MonthlyCategoryTotal{
			Category:     c,
			TotalIncome:  ct.Income,
			TotalExpense: ct.Expense,
			Share:        share(ct.Expense, res.Expense),
		}
	}
	return out
}

// share is part/total as a percentage rounded to two places; zero when the
// month has no expense.
func share(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(total)).Round(2)
}

// Balance is the month header shown above the calendar and graph.
type Balance struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

// MonthBalance extracts the header totals from an aggregate.
func MonthBalance(res ledger.Result) Balance {
	return Balance{
		Income:  res.Income,
		Expense: res.Expense,
		Balance: res.GrandTotal,
	}
}
