// Package viewmodel turns a session snapshot into the data behind the
// calendar, graph and category screens.
package viewmodel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/calendar"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/projection"
	"kakeibo/internal/session"
)

// Screens is everything the three screens show for one month.
type Screens struct {
	Month      core.Month                       `json:"month"`
	WeekStart  time.Weekday                     `json:"week_start"`
	Version    uint64                           `json:"version"`
	Calendar   CalendarScreen                   `json:"calendar"`
	Graph      GraphScreen                      `json:"graph"`
	Categories map[core.Category]CategoryScreen `json:"categories"`
}

// Category returns the drilldown for c, empty when c has no entries.
func (s Screens) Category(c core.Category) CategoryScreen {
	if cs, ok := s.Categories[c]; ok {
		return cs
	}
	return newCategoryScreen(s.Month, c, projection.Drilldown{
		Rows:    [][]core.EntryRow{},
		Headers: []core.DayTotal{},
	})
}

// BalanceText is a month header with pre-formatted amounts.
type BalanceText struct {
	Income      int64  `json:"income"`
	Expense     int64  `json:"expense"`
	Balance     int64  `json:"balance"`
	IncomeText  string `json:"income_text"`
	ExpenseText string `json:"expense_text"`
	BalanceText string `json:"balance_text"`
}

func balanceText(b projection.Balance) BalanceText {
	return BalanceText{
		Income:      b.Income,
		Expense:     b.Expense,
		Balance:     b.Balance,
		IncomeText:  core.FormatYen(b.Income),
		ExpenseText: core.FormatYen(b.Expense),
		BalanceText: core.FormatYen(b.Balance),
	}
}

// CalendarDay is one grid cell.
type CalendarDay struct {
	core.CalendarCell
	Day int `json:"day"`
	// BalanceText is empty for days without entries.
	BalanceText string `json:"balance_text"`
}

type CalendarScreen struct {
	Title    string          `json:"title"`
	Weekdays []string        `json:"weekdays"`
	Weeks    [][]CalendarDay `json:"weeks"`
	Header   BalanceText     `json:"header"`
}

type GraphRow struct {
	Category    core.Category   `json:"category"`
	Name        string          `json:"name"`
	Color       string          `json:"color"`
	Income      int64           `json:"income"`
	Expense     int64           `json:"expense"`
	Balance     int64           `json:"balance"`
	Share       decimal.Decimal `json:"share"`
	ExpenseText string          `json:"expense_text"`
}

type GraphScreen struct {
	Title  string      `json:"title"`
	Rows   []GraphRow  `json:"rows"`
	Header BalanceText `json:"header"`
}

// CategorySection is one day of a category drilldown.
type CategorySection struct {
	Header      core.DayTotal   `json:"header"`
	Label       string          `json:"label"`
	BalanceText string          `json:"balance_text"`
	Rows        []core.EntryRow `json:"rows"`
}

type CategoryScreen struct {
	Category core.Category     `json:"category"`
	Name     string            `json:"name"`
	Color    string            `json:"color"`
	Title    string            `json:"title"`
	Sections []CategorySection `json:"sections"`
	Total    core.DayTotal     `json:"total"`
}

// Compute builds all screens from one snapshot.
func Compute(snap session.Snapshot) Screens {
	grid := calendar.BuildGrid(snap.Month, snap.WeekStart)
	res := ledger.Aggregate(snap.Entries, snap.Month)

	screens := Screens{
		Month:      snap.Month,
		WeekStart:  snap.WeekStart,
		Version:    snap.Version,
		Calendar:   newCalendarScreen(grid, res),
		Graph:      newGraphScreen(res),
		Categories: make(map[core.Category]CategoryScreen, len(core.Categories())),
	}
	for _, c := range core.Categories() {
		dd := projection.CategoryDrilldown(snap.Entries, snap.Month, c)
		screens.Categories[c] = newCategoryScreen(snap.Month, c, dd)
	}
	return screens
}

func newCalendarScreen(grid calendar.Grid, res ledger.Result) CalendarScreen {
	cells := projection.CalendarCells(grid, res.PerDay)

	weeks := make([][]CalendarDay, grid.Weeks)
	for w := range weeks {
		week := make([]CalendarDay, calendar.DaysPerWeek)
		for i := range week {
			cell := cells[w*calendar.DaysPerWeek+i]
			day := CalendarDay{CalendarCell: cell, Day: cell.Date.Day()}
			if cell.TotalBalance != 0 {
				day.BalanceText = core.FormatYen(cell.TotalBalance)
			}
			week[i] = day
		}
		weeks[w] = week
	}

	weekdays := make([]string, 0, calendar.DaysPerWeek)
	for _, wd := range grid.Weekdays() {
		weekdays = append(weekdays, wd.String()[:3])
	}

	return CalendarScreen{
		Title:    grid.Month.Title(),
		Weekdays: weekdays,
		Weeks:    weeks,
		Header:   balanceText(projection.MonthBalance(res)),
	}
}

func newGraphScreen(res ledger.Result) GraphScreen {
	summary := projection.SummaryFromResult(res)
	rows := make([]GraphRow, len(summary))
	for i, s := range summary {
		rows[i] = GraphRow{
			Category:    s.Category,
			Name:        s.Category.DisplayName(),
			Color:       s.Category.Color(),
			Income:      s.TotalIncome,
			Expense:     s.TotalExpense,
			Balance:     s.Balance(),
			Share:       s.Share,
			ExpenseText: core.FormatYen(s.TotalExpense),
		}
	}
	return GraphScreen{
		Title:  res.Month.Title(),
		Rows:   rows,
		Header: balanceText(projection.MonthBalance(res)),
	}
}

func newCategoryScreen(month core.Month, c core.Category, dd projection.Drilldown) CategoryScreen {
	sections := make([]CategorySection, len(dd.Headers))
	for i, h := range dd.Headers {
		sections[i] = CategorySection{
			Header:      h,
			Label:       fmt.Sprintf("%d/%d (%s)", h.Date.Month(), h.Date.Day(), h.Date.Weekday().String()[:3]),
			BalanceText: core.FormatYen(h.Balance),
			Rows:        dd.Rows[i],
		}
	}
	return CategoryScreen{
		Category: c,
		Name:     c.DisplayName(),
		Color:    c.Color(),
		Title:    fmt.Sprintf("%s · %s", c.DisplayName(), month.Title()),
		Sections: sections,
		Total:    dd.Total(),
	}
}
