package ledger

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets/memory"
)

func newLedger() *Ledger {
	return New(memory.New(), "session-1")
}

func TestAddEntryAndTotals(t *testing.T) {
	ctx := context.Background()
	l := newLedger()

	_, _, err := l.AddEntry(ctx, core.NewDate(2024, 5, 1), core.KindIncome, "월급", "", 3000000)
	require.NoError(t, err)
	_, _, err = l.AddEntry(ctx, core.NewDate(2024, 5, 2), core.KindExpense, "식비", "점심", 10000)
	require.NoError(t, err)

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Totals{Income: 3000000, Expense: 10000, Balance: 2990000}, snap.Totals)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, core.NewDate(2024, 5, 2), snap.Entries[0].Date)
	assert.Equal(t, core.BlankField, snap.Entries[1].Description)
}

func TestAddEntryZeroAmountLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	_, _, err := l.AddEntry(ctx, core.NewDate(2024, 5, 1), core.KindExpense, "식비", "", 5000)
	require.NoError(t, err)

	_, _, err = l.AddEntry(ctx, core.NewDate(2024, 5, 1), core.KindExpense, "식비", "", 0)
	require.ErrorIs(t, err, core.ErrZeroAmount)

	entries, err := l.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestComputeTotalsEmpty(t *testing.T) {
	assert.Equal(t, core.Totals{}, ComputeTotals(nil))
}

func TestComputeTotalsMatchesPerKindSums(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var entries []core.Entry
	var income, expense core.Won
	for i := 0; i < 200; i++ {
		amt := core.Won(r.Intn(100000) + 1)
		kind := core.KindExpense
		if r.Intn(2) == 0 {
			kind = core.KindIncome
			income += amt
		} else {
			expense += amt
		}
		entries = append(entries, core.NewEntry(core.NewDate(2024, 1, 1+r.Intn(28)), kind, "c", "", amt))
	}

	got := ComputeTotals(entries)
	assert.Equal(t, income, got.Income)
	assert.Equal(t, expense, got.Expense)
	assert.Equal(t, income-expense, got.Balance)
}

func TestCategorySummaryOrdering(t *testing.T) {
	d := core.NewDate(2024, 1, 1)
	entries := []core.Entry{
		core.NewEntry(d, core.KindExpense, "교통", "", 3000),
		core.NewEntry(d, core.KindExpense, "식비", "", 5000),
		core.NewEntry(d, core.KindIncome, "용돈", "", 1000),
		core.NewEntry(d, core.KindExpense, "식비", "", 2000),
		core.NewEntry(d, core.KindIncome, "월급", "", 9000),
		core.NewEntry(d, core.KindExpense, "", "", 7000),
	}
	want := []core.CategoryTotal{
		{Kind: core.KindIncome, Category: "월급", Amount: 9000},
		{Kind: core.KindIncome, Category: "용돈", Amount: 1000},
		// equal amounts fall back to category order; "-" sorts before Hangul
		{Kind: core.KindExpense, Category: core.BlankField, Amount: 7000},
		{Kind: core.KindExpense, Category: "식비", Amount: 7000},
		{Kind: core.KindExpense, Category: "교통", Amount: 3000},
	}

	for i := 0; i < 20; i++ {
		shuffled := append([]core.Entry(nil), entries...)
		rand.New(rand.NewSource(int64(i))).Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, CategorySummary(shuffled))
	}
}

func TestFullViewOrder(t *testing.T) {
	entries := []core.Entry{
		core.NewEntry(core.NewDate(2024, 1, 2), core.KindExpense, "a", "first", 1),
		core.NewEntry(core.NewDate(2024, 1, 3), core.KindExpense, "b", "", 1),
		core.NewEntry(core.NewDate(2024, 1, 2), core.KindExpense, "a", "second", 1),
		core.NewEntry(core.NewDate(2024, 1, 1), core.KindIncome, "c", "", 1),
	}
	got := FullView(entries)
	require.Len(t, got, 4)
	assert.Equal(t, core.NewDate(2024, 1, 3), got[0].Date)
	assert.Equal(t, "second", got[1].Description)
	assert.Equal(t, "first", got[2].Description)
	assert.Equal(t, core.NewDate(2024, 1, 1), got[3].Date)

	// input untouched
	assert.Equal(t, "first", entries[0].Description)
}
