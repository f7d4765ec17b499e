// Package calendar builds the padded day grid shown by the month calendar.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"kakeibo/internal/core"
)

const DaysPerWeek = 7

// Grid is the ordered list of days needed to draw complete weeks for a
// month, including days borrowed from the neighbouring months.
type Grid struct {
	Month     core.Month   `json:"month"`
	WeekStart time.Weekday `json:"week_start"`
	Cells     []core.Date  `json:"cells"`
	Weeks     int          `json:"weeks"`
}

// BuildGrid returns Weeks*7 consecutive days starting on or before the
// first of month so that the first cell falls on weekStart.
//
// Depending on the month's length and first weekday the grid has 4, 5 or 6
// weeks, so it must be rebuilt on every navigation.
func BuildGrid(month core.Month, weekStart time.Weekday) Grid {
	if weekStart < time.Sunday || weekStart > time.Saturday {
		panic(fmt.Sprintf("calendar: invalid week start %d", weekStart))
	}

	first := month.First()
	leading := LeadingDays(first.Weekday(), weekStart)
	weeks := (leading + month.Days() + DaysPerWeek - 1) / DaysPerWeek

	start := first.AddDays(-leading)
	cells := make([]core.Date, weeks*DaysPerWeek)
	for i := range cells {
		cells[i] = start.AddDays(i)
	}

	return Grid{
		Month:     month,
		WeekStart: weekStart,
		Cells:     cells,
		Weeks:     weeks,
	}
}

// LeadingDays is the number of padding days from the previous month needed
// before a month whose first day falls on first.
func LeadingDays(first, weekStart time.Weekday) int {
	return (int(first) - int(weekStart) + DaysPerWeek) % DaysPerWeek
}

// Len returns the number of cells.
func (g Grid) Len() int {
	return len(g.Cells)
}

// Week returns a copy of the seven days of week i (0-based).
func (g Grid) Week(i int) []core.Date {
	week := make([]core.Date, DaysPerWeek)
	copy(week, g.Cells[i*DaysPerWeek:(i+1)*DaysPerWeek])
	return week
}

// IndexOf returns the cell index of d, or -1 when d is outside the grid.
func (g Grid) IndexOf(d core.Date) int {
	if len(g.Cells) == 0 {
		return -1
	}
	i := int(d.Sub(g.Cells[0].Time).Hours()) / 24
	if d.Before(g.Cells[0]) || i >= len(g.Cells) || g.Cells[i] != d {
		return -1
	}
	return i
}

// Weekdays returns the column headings starting at WeekStart.
func (g Grid) Weekdays() []time.Weekday {
	out := make([]time.Weekday, DaysPerWeek)
	for i := range out {
		out[i] = time.Weekday((int(g.WeekStart) + i) % DaysPerWeek)
	}
	return out
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid week start %q", s)
}
