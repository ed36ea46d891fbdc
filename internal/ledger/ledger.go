// Package ledger implements the manual household ledger: an append-only list
// of income and expense entries per session, with totals, a per-category
// summary and a date-sorted view.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

// Ledger is one session's view onto an EntryStore.
type Ledger struct {
	store     sheets.EntryStore
	sessionID string
}

func New(store sheets.EntryStore, sessionID string) *Ledger {
	return &Ledger{store: store, sessionID: sessionID}
}

// AddEntry validates and appends an entry. A zero amount returns
// core.ErrZeroAmount and leaves the ledger unchanged.
func (l *Ledger) AddEntry(ctx context.Context, date core.Date, kind core.Kind, category, description string, amount core.Won) (core.Entry, string, error) {
	e := core.NewEntry(date, kind, category, description, amount)
	if err := e.Validate(); err != nil {
		return core.Entry{}, "", err
	}
	ref, err := l.store.Append(ctx, l.sessionID, e)
	if err != nil {
		return core.Entry{}, "", fmt.Errorf("append entry: %w", err)
	}
	return e, ref, nil
}

// Entries returns the session's entries in insertion order.
func (l *Ledger) Entries(ctx context.Context) ([]core.Entry, error) {
	entries, err := l.store.List(ctx, l.sessionID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Snapshot is everything the ledger page renders, computed in one pass.
type Snapshot struct {
	Entries []core.Entry // FullView order
	Totals  core.Totals
	Summary []core.CategoryTotal
}

func (l *Ledger) Snapshot(ctx context.Context) (Snapshot, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Entries: FullView(entries),
		Totals:  ComputeTotals(entries),
		Summary: CategorySummary(entries),
	}, nil
}

// ComputeTotals sums income and expense entries. No entries yields zeros.
func ComputeTotals(entries []core.Entry) core.Totals {
	var t core.Totals
	for _, e := range entries {
		switch e.Kind {
		case core.KindIncome:
			t.Income += e.Amount
		case core.KindExpense:
			t.Expense += e.Amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}

// CategorySummary groups by (kind, category) and orders by kind label
// ascending, then amount descending. Equal amounts keep key order.
func CategorySummary(entries []core.Entry) []core.CategoryTotal {
	type key struct {
		kind     core.Kind
		category string
	}
	sums := make(map[key]core.Won)
	for _, e := range entries {
		sums[key{e.Kind, e.Category}] += e.Amount
	}

	out := make([]core.CategoryTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, core.CategoryTotal{Kind: k.kind, Category: k.category, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})
	return out
}

// FullView orders entries by date, newest first. Entries sharing a date are
// listed newest-inserted first. The input slice is not modified.
func FullView(entries []core.Entry) []core.Entry {
	out := make([]core.Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
