package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfIsComparable(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	a := DateOf(time.Date(2022, 6, 1, 23, 59, 0, 0, tokyo))
	b := NewDate(2022, 6, 1)
	if a != b {
		t.Fatalf("expected %v == %v", a, b)
	}
	m := map[Date]int{b: 1}
	if m[a] != 1 {
		t.Fatalf("date not usable as map key")
	}
	if got := NewDate(2022, 6, 30).AddDays(1); got != NewDate(2022, 7, 1) {
		t.Fatalf("AddDays across month: got %v", got)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2022, 6, 1))
	if err != nil || string(b) != `"2022-06-01"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2022-05-31"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d != NewDate(2022, 5, 31) {
		t.Fatalf("unexpected date %v", d)
	}
	if err := json.Unmarshal([]byte(`"31/05/2022"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(" " + strings.ToUpper(string(c)) + " ")
		if err != nil || got != c {
			t.Fatalf("%s: got %q err=%v", c, got, err)
		}
		if c.DisplayName() == "" || !strings.HasPrefix(c.Color(), "#") {
			t.Fatalf("%s: missing display metadata", c)
		}
	}
	if _, err := ParseCategory("food"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if len(Categories()) != 9 {
		t.Fatalf("expected 9 categories, got %d", len(Categories()))
	}
	if Consumption.Index() != 0 || Other.Index() != 8 || Category("x").Index() != -1 {
		t.Fatalf("unexpected category order")
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	cs := Categories()
	cs[0] = Other
	if Categories()[0] != Consumption {
		t.Fatalf("Categories leaked its backing array")
	}
}

func TestEntrySigned(t *testing.T) {
	d := NewDate(2022, 6, 1)
	if got := NewEntry(d, Life, Expense, 1000, "").Signed(); got != -1000 {
		t.Fatalf("expense signed = %d", got)
	}
	if got := NewEntry(d, Other, Income, 250, "").Signed(); got != 250 {
		t.Fatalf("income signed = %d", got)
	}
}

func TestUnknownKindPanics(t *testing.T) {
	e := NewEntry(NewDate(2022, 6, 1), Life, Kind("refund"), 1000, "")
	for name, fn := range map[string]func(){
		"Signed":       func() { e.Signed() },
		"DayTotal.Add": func() { var dt DayTotal; dt.Add(e) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic on unknown kind")
				}
			}()
			fn()
		})
	}
}

func TestEntryValidate(t *testing.T) {
	good := NewEntry(NewDate(2025, 1, 1), Life, Expense, 100, " ok ")
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if good.Memo != "ok" {
		t.Fatalf("memo not trimmed: %q", good.Memo)
	}

	bads := []struct {
		e    Entry
		want error
	}{
		{Entry{Date: Date{}, Category: Life, Kind: Expense, Amount: 1}, ErrInvalidDate},
		{Entry{Date: NewDate(2025, 1, 1), Category: "food", Kind: Expense, Amount: 1}, ErrUnknownCategory},
		{Entry{Date: NewDate(2025, 1, 1), Category: Life, Kind: "refund", Amount: 1}, ErrUnknownKind},
		{Entry{Date: NewDate(2025, 1, 1), Category: Life, Kind: Expense, Amount: 0}, ErrInvalidAmount},
		{Entry{Date: NewDate(2025, 1, 1), Category: Life, Kind: Expense, Amount: 1, Memo: strings.Repeat("あ", 201)}, ErrMemoTooLong},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("INCOME"); err != nil || k != Income {
		t.Fatalf("got %q %v", k, err)
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
