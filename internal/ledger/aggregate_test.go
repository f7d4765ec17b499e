package ledger

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/core"
)

func entry(date core.Date, c core.Category, signed int64) core.Entry {
	kind := core.Income
	amount := signed
	if signed < 0 {
		kind = core.Expense
		amount = -signed
	}
	return core.Entry{
		ID:        uuid.New(),
		Date:      date,
		Category:  c,
		Kind:      kind,
		Amount:    core.Money(amount),
		CreatedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var june = core.MustMonth(2022, 6)

func TestAggregate_SameDaySameCategory(t *testing.T) {
	d := core.NewDate(2022, 6, 1)
	entries := []core.Entry{
		entry(d, core.Life, -1000),
		entry(d, core.Life, -500),
	}

	res := Aggregate(entries, june)

	assert.Equal(t, int64(-1500), res.PerDay[d])
	assert.Equal(t, CategoryTotal{Income: 0, Expense: 1500}, res.PerCategory[core.Life])
	assert.Equal(t, int64(-1500), res.GrandTotal)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, core.DayTotal{Date: d, Expense: 1500, Balance: -1500, Count: 2}, res.DayTotal(d))
}

func TestAggregate_ExcludesAdjacentMonths(t *testing.T) {
	entries := []core.Entry{
		entry(core.NewDate(2022, 5, 31), core.Consumption, -700),
		entry(core.NewDate(2022, 6, 15), core.Consumption, -300),
		entry(core.NewDate(2022, 7, 1), core.Consumption, -900),
		entry(core.NewDate(2021, 6, 15), core.Consumption, -100),
	}

	res := Aggregate(entries, june)

	_, ok := res.PerDay[core.NewDate(2022, 5, 31)]
	assert.False(t, ok, "previous month entry leaked into per-day totals")
	assert.Equal(t, int64(-300), res.GrandTotal)
	assert.Equal(t, 1, res.Count)
	assert.Len(t, res.PerDay, 1)
}

// A 31-day window from the 1st would wrongly pull in July 1st for June.
func TestAggregate_IsCalendarMonthNotOffsetWindow(t *testing.T) {
	entries := []core.Entry{entry(core.NewDate(2022, 7, 1), core.Other, 5000)}
	res := Aggregate(entries, june)
	assert.Zero(t, res.GrandTotal)
	assert.Empty(t, res.PerDay)
}

func TestAggregate_IncomeAndExpense(t *testing.T) {
	entries := []core.Entry{
		entry(core.NewDate(2022, 6, 25), core.Other, 250000),
		entry(core.NewDate(2022, 6, 25), core.Consumption, -3200),
		entry(core.NewDate(2022, 6, 3), core.Medical, -1800),
	}

	res := Aggregate(entries, june)

	assert.Equal(t, int64(250000), res.Income)
	assert.Equal(t, int64(5000), res.Expense)
	assert.Equal(t, int64(245000), res.GrandTotal)
	assert.Equal(t, int64(246800), res.PerDay[core.NewDate(2022, 6, 25)])
	assert.Equal(t, int64(250000), res.Category(core.Other).Balance())
	assert.Equal(t, CategoryTotal{}, res.Category(core.Vehicle))
}

func TestAggregate_EmptyInput(t *testing.T) {
	res := Aggregate(nil, june)
	require.NotNil(t, res.PerDay)
	require.NotNil(t, res.PerCategory)
	assert.Zero(t, res.GrandTotal)
	assert.Equal(t, core.DayTotal{Date: core.NewDate(2022, 6, 1)}, res.DayTotal(core.NewDate(2022, 6, 1)))
}

func TestAggregate_UnknownCategoryPanics(t *testing.T) {
	bad := entry(core.NewDate(2022, 6, 1), core.Category("food"), -1)
	assert.Panics(t, func() { Aggregate([]core.Entry{bad}, june) })
}

func TestGroupByDay_UnknownKindPanics(t *testing.T) {
	bad := entry(core.NewDate(2022, 6, 1), core.Life, -1000)
	bad.Kind = core.Kind("refund")
	assert.PanicsWithValue(t,
		fmt.Sprintf("ledger: entry %s has unknown kind %q", bad.ID, "refund"),
		func() { GroupByDay([]core.Entry{bad}) })
}

func randomEntries(r *rand.Rand, n int) []core.Entry {
	cats := core.Categories()
	out := make([]core.Entry, n)
	for i := range out {
		d := core.NewDate(2022, 5, 20).AddDays(r.Intn(50))
		amount := int64(r.Intn(100000) + 1)
		if r.Intn(3) > 0 {
			amount = -amount
		}
		out[i] = entry(d, cats[r.Intn(len(cats))], amount)
	}
	return out
}

func TestAggregate_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		entries := randomEntries(r, r.Intn(60))
		before := make([]core.Entry, len(entries))
		copy(before, entries)

		res := Aggregate(entries, june)

		var dayTotal int64
		for _, v := range res.PerDay {
			dayTotal += v
		}
		require.Equal(t, res.GrandTotal, dayTotal, "sum(perDay) == grandTotal")

		var income, expense int64
		for _, ct := range res.PerCategory {
			income += ct.Income
			expense += ct.Expense
			require.GreaterOrEqual(t, ct.Income, int64(0))
			require.GreaterOrEqual(t, ct.Expense, int64(0))
		}
		require.Equal(t, res.GrandTotal, income-expense, "sum(income) - sum(expense) == grandTotal")

		again := Aggregate(entries, june)
		require.Equal(t, res, again, "aggregate must be idempotent")
		require.Equal(t, before, entries, "aggregate must not mutate input")

		shuffled := append([]core.Entry(nil), entries...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, res, Aggregate(shuffled, june), "aggregate must be order independent")
	}
}

func TestFilterMonthAndCategory(t *testing.T) {
	entries := []core.Entry{
		entry(core.NewDate(2022, 5, 31), core.Life, -1),
		entry(core.NewDate(2022, 6, 2), core.Life, -2),
		entry(core.NewDate(2022, 6, 1), core.Medical, -3),
	}

	inJune := FilterMonth(entries, june)
	require.Len(t, inJune, 2)
	assert.Equal(t, entries[1].ID, inJune[0].ID, "input order preserved")

	life := FilterCategory(inJune, core.Life)
	require.Len(t, life, 1)
	assert.Equal(t, core.NewDate(2022, 6, 2), life[0].Date)
}

func TestGroupByDay(t *testing.T) {
	d1, d2 := core.NewDate(2022, 6, 1), core.NewDate(2022, 6, 9)
	late := entry(d1, core.Life, -1)
	late.CreatedAt = late.CreatedAt.Add(time.Hour)
	early := entry(d1, core.Life, -2)

	groups := GroupByDay([]core.Entry{entry(d2, core.Life, -3), late, early})

	require.Len(t, groups, 2)
	assert.Equal(t, d1, groups[0].Date)
	assert.Equal(t, d2, groups[1].Date)
	require.Len(t, groups[0].Entries, 2)
	assert.Equal(t, early.ID, groups[0].Entries[0].ID)
	assert.Equal(t, late.ID, groups[0].Entries[1].ID)
}
