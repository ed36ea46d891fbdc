package core

import "strings"

// Type labels recognised in uploaded spreadsheets. Matching is by substring,
// so "수입(이자)" is income and "카드 지출" is expense.
const (
	LabelIncome  = "수입"
	LabelExpense = "지출"
)

// IsIncomeLabel reports whether a type label marks income.
func IsIncomeLabel(label string) bool {
	return strings.Contains(label, LabelIncome)
}

// IsExpenseLabel reports whether a type label marks an expense.
func IsExpenseLabel(label string) bool {
	return strings.Contains(label, LabelExpense)
}
