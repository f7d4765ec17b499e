package core

import "github.com/shopspring/decimal"

// CalendarCell is one day of the month calendar.
type CalendarCell struct {
	Date             Date  `json:"date"`
	InDisplayedMonth bool  `json:"in_displayed_month"`
	TotalBalance     int64 `json:"total_balance"`
}

// MonthlyCategoryTotal is one row of the category summary for a month.
// Share is the category's percentage of the month's expenses.
type MonthlyCategoryTotal struct {
	Category     Category        `json:"category"`
	TotalIncome  int64           `json:"total_income"`
	TotalExpense int64           `json:"total_expense"`
	Share        decimal.Decimal `json:"share"`
}

// Balance is income minus expense.
func (t MonthlyCategoryTotal) Balance() int64 {
	return t.TotalIncome - t.TotalExpense
}

// EntryRow is an entry flattened for list views.
type EntryRow struct {
	ID       string   `json:"id"`
	Date     Date     `json:"date"`
	Category Category `json:"category"`
	Kind     Kind     `json:"kind"`
	Amount   int64    `json:"amount"`
	Signed   int64    `json:"signed"`
	Memo     string   `json:"memo"`
}

// RowOf converts an entry into a list row.
func RowOf(e Entry) EntryRow {
	return EntryRow{
		ID:       e.ID.String(),
		Date:     e.Date,
		Category: e.Category,
		Kind:     e.Kind,
		Amount:   int64(e.Amount),
		Signed:   e.Signed(),
		Memo:     e.Memo,
	}
}

// DayTotal is the header for one day's group of rows.
type DayTotal struct {
	Date    Date  `json:"date"`
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
	Count   int   `json:"count"`
}

// Add accumulates one entry into the total. It panics on an unknown kind.
func (t *DayTotal) Add(e Entry) {
	signed := e.Signed()
	if e.Kind == Income {
		t.Income += int64(e.Amount)
	} else {
		t.Expense += int64(e.Amount)
	}
	t.Balance += signed
	t.Count++
}
