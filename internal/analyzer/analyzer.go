package analyzer

import (
	"sort"

	"github.com/shopspring/decimal"

	"gagyebu/internal/core"
)

// Totals are the income, expense and balance of a set of rows.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// CategoryRow is one group of the category summary. Subcategory is empty
// when the upload has no subcategory column.
type CategoryRow struct {
	Category    string
	Subcategory string
	Amount      decimal.Decimal
}

// DailyPoint is the summed amount of one calendar day.
type DailyPoint struct {
	Date   core.Date
	Amount decimal.Decimal
}

// Analysis bundles everything computed for one period.
type Analysis struct {
	Period core.Period
	Rows   []Row
	Totals Totals
	// Categories is nil when the upload has no category column.
	Categories    []CategoryRow
	HasCategories bool
	Daily         []DailyPoint
}

// Empty reports whether no transaction fell inside the period.
func (a Analysis) Empty() bool { return len(a.Rows) == 0 }

// FilterByRange returns the rows dated within [start, end].
func (d *Dataset) FilterByRange(start, end core.Date) ([]Row, error) {
	return FilterRows(d.Rows, core.Period{Start: start, End: end})
}

// FilterRows returns the rows whose date lies in p, inclusive. A period whose
// start is after its end returns core.ErrInvalidRange and no rows.
func FilterRows(rows []Row, p core.Period) ([]Row, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if p.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Analyze filters the dataset to p and computes all aggregates.
func (d *Dataset) Analyze(p core.Period) (Analysis, error) {
	rows, err := d.FilterByRange(p.Start, p.End)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		Period:        p,
		Rows:          rows,
		Totals:        ComputeTotals(rows),
		Categories:    d.CategorySummary(rows),
		HasCategories: d.HasCategory(),
		Daily:         DailySeries(rows),
	}, nil
}

// ComputeTotals sums income and expense rows by label substring. When no row
// is labelled as income and the income sum is zero, every row counts as
// expense.
func ComputeTotals(rows []Row) Totals {
	income, expense := decimal.Zero, decimal.Zero
	all := decimal.Zero
	anyIncome := false
	for _, r := range rows {
		all = all.Add(r.Amount)
		if r.IsIncome() {
			income = income.Add(r.Amount)
			anyIncome = true
		}
		if r.IsExpense() {
			expense = expense.Add(r.Amount)
		}
	}
	if income.IsZero() && !anyIncome {
		expense = all
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// CategorySummary sums amounts per category, and per subcategory when the
// upload has that column, largest first. Only expense rows are used when any
// exist. Rows with a blank grouping cell are skipped. Returns nil when the
// upload has no category column.
func (d *Dataset) CategorySummary(rows []Row) []CategoryRow {
	if !d.HasCategory() {
		return nil
	}
	withSub := d.HasSubcategory()

	type key struct{ cat, sub string }
	sums := make(map[key]decimal.Decimal)
	for _, r := range expenseOrAll(rows) {
		if r.Category == "" || (withSub && r.Subcategory == "") {
			continue
		}
		k := key{cat: r.Category}
		if withSub {
			k.sub = r.Subcategory
		}
		sums[k] = sums[k].Add(r.Amount)
	}

	out := make([]CategoryRow, 0, len(sums))
	for k, v := range sums {
		out = append(out, CategoryRow{Category: k.cat, Subcategory: k.sub, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Subcategory < b.Subcategory
	})
	return out
}

// DailySeries sums amounts per calendar day in ascending date order. Like the
// category summary it only counts expense rows when any exist.
func DailySeries(rows []Row) []DailyPoint {
	sums := make(map[core.Date]decimal.Decimal)
	for _, r := range expenseOrAll(rows) {
		sums[r.Date] = sums[r.Date].Add(r.Amount)
	}
	out := make([]DailyPoint, 0, len(sums))
	for d, v := range sums {
		out = append(out, DailyPoint{Date: d, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func expenseOrAll(rows []Row) []Row {
	var exp []Row
	for _, r := range rows {
		if r.IsExpense() {
			exp = append(exp, r)
		}
	}
	if len(exp) == 0 {
		return rows
	}
	return exp
}
