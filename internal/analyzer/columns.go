package analyzer

import (
	"strings"

	"gagyebu/internal/sheets"
)

// Column names recognised in uploaded files.
const (
	ColPeriod      = "기간"
	ColAmount      = "금액"
	ColKRW         = "KRW"
	ColCategory    = "분류"
	ColSubcategory = "소분류"
	ColDescription = "내용"
	ColType        = "수입/지출"
)

// Columns maps each role to a header index. Optional roles are -1 when the
// file has no matching column.
type Columns struct {
	Date        int
	Amount      int
	Category    int
	Subcategory int
	Description int
	Type        int
}

// rule returns a column index or -1 when it does not apply.
type rule func(t sheets.Table) int

// ResolveColumns infers column roles from the header. Each role is an ordered
// list of rules and the first rule that matches wins.
func ResolveColumns(t sheets.Table) Columns {
	date := resolve(t, exact(ColPeriod), containsAny("날짜", "일자"), first)
	return Columns{
		Date:        date,
		Amount:      resolve(t, exact(ColAmount), exact(ColKRW), numericExcept(date), first),
		Category:    resolve(t, exact(ColCategory)),
		Subcategory: resolve(t, exact(ColSubcategory)),
		Description: resolve(t, exact(ColDescription)),
		Type:        resolve(t, exact(ColType)),
	}
}

func resolve(t sheets.Table, rules ...rule) int {
	for _, r := range rules {
		if i := r(t); i >= 0 {
			return i
		}
	}
	return -1
}

func exact(name string) rule {
	return func(t sheets.Table) int {
		for i, h := range t.Header {
			if h == name {
				return i
			}
		}
		return -1
	}
}

func containsAny(subs ...string) rule {
	return func(t sheets.Table) int {
		for i, h := range t.Header {
			for _, s := range subs {
				if strings.Contains(h, s) {
					return i
				}
			}
		}
		return -1
	}
}

// numericExcept picks the first column whose non-blank cells all parse as
// numbers. The date column is skipped since spreadsheet dates arrive as
// serial numbers.
func numericExcept(skip int) rule {
	return func(t sheets.Table) int {
		for i := range t.Header {
			if i != skip && isNumericColumn(t, i) {
				return i
			}
		}
		return -1
	}
}

func first(t sheets.Table) int {
	if len(t.Header) == 0 {
		return -1
	}
	return 0
}

// isNumericColumn reports whether every non-blank cell parses as a number.
// A column with no values at all is deliberately not numeric, so an empty
// column is never picked as the amount.
func isNumericColumn(t sheets.Table, col int) bool {
	seen := false
	for r := range t.Rows {
		v := t.Cell(r, col)
		if v == "" {
			continue
		}
		if _, ok := parseAmount(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}
