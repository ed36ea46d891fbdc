package analyzer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gagyebu/internal/core"
)

func TestBuildSummaryText(t *testing.T) {
	p := core.Period{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	totals := Totals{
		Income:  decimal.NewFromInt(3000000),
		Expense: decimal.RequireFromString("1234.5"),
		Balance: decimal.NewFromInt(-1000),
	}

	got := BuildSummaryText("3월 가계부 회고", p, totals, Reflection{Good: "외식을 줄였다", Bad: "  ", Plan: "저축\r\n늘리기"})
	want := strings.Join([]string{
		"# 3월 가계부 회고",
		"",
		"- 기간: 2024-03-01 ~ 2024-03-31",
		"- 총 수입: ₩3,000,000",
		"- 총 지출: ₩1,234",
		"- 잔액: ₩-1,000",
		"",
		"## 잘한 점",
		"외식을 줄였다",
		"",
		"## 아쉬운 점",
		"- (아직 작성 안 함)",
		"",
		"## 다음 계획",
		"저축\n늘리기",
	}, "\n")
	assert.Equal(t, want, got)

	// Pure: the same inputs always render the same text.
	assert.Equal(t, got, BuildSummaryText("3월 가계부 회고", p, totals, Reflection{Good: "외식을 줄였다", Bad: "  ", Plan: "저축\r\n늘리기"}))
}

func TestBuildSummaryTextAllBlank(t *testing.T) {
	got := BuildSummaryText("t", core.Period{}, Totals{}, Reflection{})
	assert.Equal(t, 3, strings.Count(got, NotWritten))
	assert.Contains(t, got, "- 총 수입: ₩0\n")
}
