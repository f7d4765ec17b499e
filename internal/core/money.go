// Package core provides money parsing and handling utilities.
//
// Amounts are integers in the smallest currency unit (yen). Nothing in the
// ledger uses floating point.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in the smallest currency unit.
type Money int64

// ParseAmount converts user input to Money.
//
// It accepts plain digits with optional thousands separators (comma,
// underscore or space) and an optional leading yen sign. Signs, decimals and
// zero are rejected: the direction of an entry comes from its Kind.
//
// Examples:
//
//	ParseAmount("1200")   -> 1200, nil
//	ParseAmount("¥1,200") -> 1200, nil
//	ParseAmount("-5")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "¥")
	s = strings.TrimPrefix(s, "￥")
	s = strings.NewReplacer(",", "", "_", "", " ", "").Replace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m := Money(v)
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m, nil
}

func (m Money) Validate() error {
	if m <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Int64() int64 {
	return int64(m)
}

// Format renders the amount as "¥1,234".
func (m Money) Format() string {
	return FormatYen(int64(m))
}

// FormatYen renders a signed amount with thousands separators, e.g. "-¥1,500".
func FormatYen(v int64) string {
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	digits := strconv.FormatUint(u, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("¥")
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
