// Package core provides money parsing and formatting utilities.
//
// Ledger amounts are whole won (Won). Spreadsheet amounts may carry fractions
// and are kept as decimal.Decimal until they are displayed.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// WonGlyph prefixes amounts in generated reports.
	WonGlyph = "₩"
	// WonSuffix follows amounts on the ledger page.
	WonSuffix = " 원"
)

var printer = message.NewPrinter(language.Korean)

// ParseWon parses a non-negative whole-won amount from form input.
//
// Thousands separators and surrounding spaces are accepted. Zero is returned
// as a valid amount; rejecting it is the ledger's job.
//
// Examples:
//
//	ParseWon("10000")   -> 10000, nil
//	ParseWon("10,000")  -> 10000, nil
//	ParseWon("-1")      -> 0, ErrInvalidAmount
func ParseWon(s string) (Won, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return Won(v), nil
}

// Decimal converts the amount for mixed arithmetic with spreadsheet values.
func (w Won) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(w))
}

// FormatWon renders an amount as "1,234 원".
func FormatWon(w Won) string {
	return printer.Sprintf("%d", int64(w)) + WonSuffix
}

// FormatAmount renders a decimal with a thousands separator, rounded
// half-to-even to whole units: 1234.5 -> "1,234", -1000 -> "-1,000".
func FormatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%d", d.RoundBank(0).IntPart())
}

// FormatGlyph renders an amount as "₩1,234" ("₩-1,234" when negative).
func FormatGlyph(d decimal.Decimal) string {
	return WonGlyph + FormatAmount(d)
}
