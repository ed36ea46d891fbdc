// Package analyzer turns an uploaded spreadsheet into typed transactions and
// computes period totals, category breakdowns and a daily series over them.
package analyzer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

// Row is one transaction with its columns resolved to roles.
type Row struct {
	Date        core.Date
	Amount      decimal.Decimal
	Category    string
	Subcategory string
	Description string
	Label       string
}

func (r Row) IsIncome() bool  { return core.IsIncomeLabel(r.Label) }
func (r Row) IsExpense() bool { return core.IsExpenseLabel(r.Label) }

// Dataset is the normalized content of one upload.
type Dataset struct {
	Header  []string
	Columns Columns
	Rows    []Row
	// Dropped counts rows discarded for an unparseable date.
	Dropped int
}

// Load resolves column roles and normalizes every row. Rows whose date does
// not parse are dropped; an amount that does not parse counts as zero. A
// table left with no rows returns core.ErrEmptyData.
func Load(t sheets.Table) (*Dataset, error) {
	if len(t.Header) == 0 || len(t.Rows) == 0 {
		return nil, core.ErrEmptyData
	}
	cols := ResolveColumns(t)
	ds := &Dataset{Header: t.Header, Columns: cols}

	for i := range t.Rows {
		d, ok := parseDate(t.Cell(i, cols.Date))
		if !ok {
			ds.Dropped++
			continue
		}
		amount, _ := parseAmount(t.Cell(i, cols.Amount))
		label := core.LabelExpense
		if cols.Type >= 0 {
			label = t.Cell(i, cols.Type)
		}
		ds.Rows = append(ds.Rows, Row{
			Date:        d,
			Amount:      amount,
			Category:    t.Cell(i, cols.Category),
			Subcategory: t.Cell(i, cols.Subcategory),
			Description: t.Cell(i, cols.Description),
			Label:       label,
		})
	}
	if len(ds.Rows) == 0 {
		return nil, core.ErrEmptyData
	}
	return ds, nil
}

func (d *Dataset) HasCategory() bool    { return d.Columns.Category >= 0 }
func (d *Dataset) HasSubcategory() bool { return d.Columns.Subcategory >= 0 }

// Bounds returns the earliest and latest transaction dates.
func (d *Dataset) Bounds() core.Period {
	var p core.Period
	for i, r := range d.Rows {
		if i == 0 || r.Date.Before(p.Start) {
			p.Start = r.Date
		}
		if i == 0 || r.Date.After(p.End) {
			p.End = r.Date
		}
	}
	return p
}

// parseAmount coerces a cell to a number. Only plain numeric text is
// accepted: "1,000" is not a number.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"2006.1.2",
	"2006. 1. 2.",
	"2006. 1. 2",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006.01.02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var serialPattern = regexp.MustCompile(`^\d{1,7}(\.\d+)?$`)

// parseDate accepts common textual layouts and spreadsheet serial numbers.
// Time-of-day is discarded.
func parseDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), true
		}
	}
	if serialPattern.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 1 {
			return core.Date{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return core.Date{}, false
		}
		return core.DateOf(t), true
	}
	return core.Date{}, false
}
