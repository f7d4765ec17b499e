package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const monthLayout = "2006-01"

// Month is a calendar month. The fields are unexported so every non-zero
// Month is normalized: there is no way to build one that points at a day
// other than the first.
type Month struct {
	year  int
	month time.Month
}

// NewMonth validates year and month (1-12).
func NewMonth(year, month int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("%w: month %d out of range", ErrInvalidMonth, month)
	}
	if year < 1 || year > 9999 {
		return Month{}, fmt.Errorf("%w: year %d out of range", ErrInvalidMonth, year)
	}
	return Month{year: year, month: time.Month(month)}, nil
}

// MustMonth is NewMonth for constants and tests.
func MustMonth(year, month int) Month {
	m, err := NewMonth(year, month)
	if err != nil {
		panic(err)
	}
	return m
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{year: d.Year(), month: time.Month(d.Month())}
}

// CurrentMonth returns the month containing today.
func CurrentMonth() Month {
	return MonthOf(Today())
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return NewMonth(t.Year(), int(t.Month()))
}

func (m Month) IsZero() bool {
	return m.month == 0
}

func (m Month) mustBeSet() {
	if m.IsZero() {
		panic("core: use of zero Month")
	}
}

func (m Month) Year() int {
	return m.year
}

func (m Month) Month() int {
	return int(m.month)
}

// First returns the first day of the month.
func (m Month) First() Date {
	m.mustBeSet()
	return NewDate(m.year, int(m.month), 1)
}

// Last returns the last day of the month.
func (m Month) Last() Date {
	m.mustBeSet()
	return NewDate(m.year, int(m.month)+1, 0)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.Last().Day()
}

// Add moves the month by n whole months.
func (m Month) Add(n int) Month {
	m.mustBeSet()
	t := time.Date(m.year, m.month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Month{year: t.Year(), month: t.Month()}
}

func (m Month) Next() Month {
	return m.Add(1)
}

func (m Month) Prev() Month {
	return m.Add(-1)
}

// Contains reports whether d falls in the month by (year, month). This is
// the only month filter used by the aggregation code.
func (m Month) Contains(d Date) bool {
	return d.Year() == m.year && time.Month(d.Month()) == m.month
}

func (m Month) Before(o Month) bool {
	if m.year != o.year {
		return m.year < o.year
	}
	return m.month < o.month
}

// Title renders the month for headings, e.g. "June 2022".
func (m Month) Title() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s %d", m.month, m.year)
}

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *Month) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMonth, string(b))
	}
	return m.UnmarshalText([]byte(s))
}
