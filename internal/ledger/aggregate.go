// Package ledger aggregates ledger entries into per-day, per-category and
// per-month totals.
//
// Every function here is pure: inputs are never mutated and no state is
// kept between calls.
package ledger

import (
	"fmt"
	"sort"

	"kakeibo/internal/core"
)

// CategoryTotal keeps income and expense as separate non-negative sums.
type CategoryTotal struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
}

// Balance is income minus expense.
func (t CategoryTotal) Balance() int64 {
	return t.Income - t.Expense
}

// Result holds the totals for one month.
type Result struct {
	Month       core.Month                      `json:"month"`
	PerDay      map[core.Date]int64             `json:"per_day"`
	PerCategory map[core.Category]CategoryTotal `json:"per_category"`
	Days        map[core.Date]core.DayTotal     `json:"days"`
	GrandTotal  int64                           `json:"grand_total"`
	Income      int64                           `json:"income"`
	Expense     int64                           `json:"expense"`
	Count       int                             `json:"count"`
}

// Aggregate totals the entries that fall in month.
//
// Only entries whose (year, month) equals month are counted, so entries on
// padding days of the calendar grid never leak into the month's totals.
// PerDay and GrandTotal hold signed sums (income positive, expense negative).
func Aggregate(entries []core.Entry, month core.Month) Result {
	res := Result{
		Month:       month,
		PerDay:      make(map[core.Date]int64),
		PerCategory: make(map[core.Category]CategoryTotal),
		Days:        make(map[core.Date]core.DayTotal),
	}

	for _, e := range entries {
		if !month.Contains(e.Date) {
			continue
		}
		mustBeAggregatable(e)

		signed := e.Signed()
		res.PerDay[e.Date] += signed
		res.GrandTotal += signed
		res.Count++

		ct := res.PerCategory[e.Category]
		if e.Kind == core.Income {
			ct.Income += int64(e.Amount)
			res.Income += int64(e.Amount)
		} else {
			ct.Expense += int64(e.Amount)
			res.Expense += int64(e.Amount)
		}
		res.PerCategory[e.Category] = ct

		dt := res.Days[e.Date]
		dt.Date = e.Date
		dt.Add(e)
		res.Days[e.Date] = dt
	}

	return res
}

// DayTotal returns the totals for d, zero when the day has no entries.
func (r Result) DayTotal(d core.Date) core.DayTotal {
	if dt, ok := r.Days[d]; ok {
		return dt
	}
	return core.DayTotal{Date: d}
}

// Category returns the totals for c, zero when c has no entries.
func (r Result) Category(c core.Category) CategoryTotal {
	return r.PerCategory[c]
}

// FilterMonth returns the entries in month, preserving input order.
func FilterMonth(entries []core.Entry, month core.Month) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if month.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// FilterCategory returns the entries in category c, preserving input order.
func FilterCategory(entries []core.Entry, c core.Category) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// DayGroup is the entries of one day.
type DayGroup struct {
	Date    core.Date
	Entries []core.Entry
}

// GroupByDay groups entries by date. Groups are sorted by date; within a
// group entries are sorted by creation time, then ID, so the result does not
// depend on input order. It panics on an entry with an unknown category or
// kind, like Aggregate.
func GroupByDay(entries []core.Entry) []DayGroup {
	byDay := make(map[core.Date][]core.Entry)
	for _, e := range entries {
		mustBeAggregatable(e)
		byDay[e.Date] = append(byDay[e.Date], e)
	}

	groups := make([]DayGroup, 0, len(byDay))
	for d, es := range byDay {
		SortEntries(es)
		groups = append(groups, DayGroup{Date: d, Entries: es})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.Before(groups[j].Date)
	})
	return groups
}

// SortEntries sorts in place by date, creation time, then ID.
func SortEntries(es []core.Entry) {
	sort.SliceStable(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// mustBeAggregatable panics on entries the storage boundary should have
// rejected.
func mustBeAggregatable(e core.Entry) {
	if !e.Category.Valid() {
		panic(fmt.Sprintf("ledger: entry %s has unknown category %q", e.ID, e.Category))
	}
	if !e.Kind.Valid() {
		panic(fmt.Sprintf("ledger: entry %s has unknown kind %q", e.ID, e.Kind))
	}
}
