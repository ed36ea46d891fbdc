package analyzer

import (
	"strings"

	"gagyebu/internal/core"
)

// NotWritten replaces blank reflection fields in the summary text.
const NotWritten = "- (아직 작성 안 함)"

// Reflection holds the three free-text answers written for a period.
type Reflection struct {
	Good string
	Bad  string
	Plan string
}

// BuildSummaryText renders the shareable period report. It is a pure
// function of its arguments.
func BuildSummaryText(title string, p core.Period, t Totals, r Reflection) string {
	var b strings.Builder
	b.WriteString("# " + strings.TrimSpace(title) + "\n\n")
	b.WriteString("- 기간: " + p.String() + "\n")
	b.WriteString("- 총 수입: " + core.FormatGlyph(t.Income) + "\n")
	b.WriteString("- 총 지출: " + core.FormatGlyph(t.Expense) + "\n")
	b.WriteString("- 잔액: " + core.FormatGlyph(t.Balance) + "\n\n")
	b.WriteString("## 잘한 점\n" + orNotWritten(r.Good) + "\n\n")
	b.WriteString("## 아쉬운 점\n" + orNotWritten(r.Bad) + "\n\n")
	b.WriteString("## 다음 계획\n" + orNotWritten(r.Plan))
	return b.String()
}

func orNotWritten(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return NotWritten
	}
	return s
}
