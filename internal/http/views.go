package http

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gagyebu/internal/analyzer"
	"gagyebu/internal/core"
	"gagyebu/internal/ledger"
	"gagyebu/internal/session"
)

// Page texts shown to the user.
const (
	msgEntryAdded      = "✅ 내역이 추가되었습니다!"
	msgZeroAmount      = "금액을 0보다 크게 입력해 주세요."
	msgInvalidAmount   = "금액은 0 이상의 정수로 입력해 주세요."
	msgInvalidDate     = "날짜 형식이 올바르지 않습니다. (예: 2024-03-01)"
	msgInvalidKind     = "구분은 수입 또는 지출 중 하나여야 합니다."
	msgInvalidRange    = "시작 날짜가 종료 날짜보다 늦을 수 없습니다."
	msgNoUpload        = "먼저 분석할 파일을 업로드해 주세요."
	msgNoFile          = "업로드할 파일을 선택해 주세요."
	msgTooLarge        = "파일이 너무 큽니다. 최대 %d MB까지 업로드할 수 있습니다."
	msgUnsupported     = "지원하지 않는 파일 형식입니다. .xlsx 또는 .csv 파일을 올려 주세요."
	msgReadFailed      = "파일을 읽는 중 오류가 발생했습니다. 파일 형식을 확인해 주세요."
	msgEmptyData       = "사용할 수 있는 데이터가 없습니다. 날짜 열을 확인해 주세요."
	msgSheetsDisabled  = "Google Sheets 연동이 설정되어 있지 않습니다."
	msgSheetsMissing   = "스프레드시트 ID와 범위를 입력해 주세요."
	msgUploadLoaded    = "📂 %s: %d건을 불러왔습니다."
	msgBadRequest      = "요청 형식이 올바르지 않습니다."
	msgBodyTooLarge    = "입력한 내용이 너무 깁니다."
	msgSaveFailed      = "저장 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
	msgRenderFailed    = "화면을 그리는 중 오류가 발생했습니다."
	msgReportBuilt     = "📝 요약이 만들어졌습니다."
	defaultReportTitle = "가계부 분석 요약"
)

// formKinds is the order of the kind select box; 지출 is preselected.
var formKinds = []core.Kind{core.KindExpense, core.KindIncome}

type ledgerPageView struct {
	Today string
	Kinds []core.Kind
	Panel ledgerPanelView
}

type ledgerPanelView struct {
	Empty   bool
	Income  string
	Expense string
	Balance string
	Summary []summaryRowView
	Entries []entryRowView
}

type summaryRowView struct {
	Kind     string
	Category string
	Amount   string
}

type entryRowView struct {
	Date        string
	Kind        string
	Income      bool
	Category    string
	Description string
	Amount      string
}

func newLedgerPanelView(s ledger.Snapshot) ledgerPanelView {
	v := ledgerPanelView{
		Empty:   len(s.Entries) == 0,
		Income:  core.FormatWon(s.Totals.Income),
		Expense: core.FormatWon(s.Totals.Expense),
		Balance: core.FormatWon(s.Totals.Balance),
	}
	for _, c := range s.Summary {
		v.Summary = append(v.Summary, summaryRowView{
			Kind:     string(c.Kind),
			Category: c.Category,
			Amount:   core.FormatWon(c.Amount),
		})
	}
	for _, e := range s.Entries {
		v.Entries = append(v.Entries, entryRowView{
			Date:        e.Date.String(),
			Kind:        string(e.Kind),
			Income:      e.Kind == core.KindIncome,
			Category:    e.Category,
			Description: e.Description,
			Amount:      core.FormatWon(e.Amount),
		})
	}
	return v
}

type analyzerPageView struct {
	SheetsEnabled bool
	MaxUploadMB   int64
	Workspace     *workspaceView
}

// workspaceView is everything below the upload form once a file is loaded.
type workspaceView struct {
	Upload   uploadView
	Analysis analysisView
	Report   reportFormView
}

type uploadView struct {
	Name     string
	Source   string
	Rows     int
	Dropped  int
	Min      string
	Max      string
	Columns  []columnView
	LoadedAt string
}

type columnView struct {
	Role   string
	Header string
}

type analysisView struct {
	Start          string
	End            string
	Empty          bool
	Rows           int
	Income         string
	Expense        string
	Balance        string
	Negative       bool
	HasCategories  bool
	HasSubcategory bool
	Categories     []categoryRowView
	Daily          []dailyRowView
	Chart          chartView
}

type categoryRowView struct {
	Category    string
	Subcategory string
	Amount      string
	Share       int
}

type dailyRowView struct {
	Date   string
	Amount string
}

type reportFormView struct {
	Title string
}

type reportView struct {
	Title string
	Text  string
	Lines int
}

func newUploadView(up session.Upload) uploadView {
	ds := up.Dataset
	bounds := ds.Bounds()
	v := uploadView{
		Name:     up.Name,
		Source:   up.Source,
		Rows:     len(ds.Rows),
		Dropped:  ds.Dropped,
		Min:      bounds.Start.String(),
		Max:      bounds.End.String(),
		LoadedAt: up.LoadedAt.Format("2006-01-02 15:04"),
	}
	roles := []struct {
		name string
		idx  int
	}{
		{"날짜", ds.Columns.Date},
		{"금액", ds.Columns.Amount},
		{"분류", ds.Columns.Category},
		{"소분류", ds.Columns.Subcategory},
		{"내용", ds.Columns.Description},
		{"수입/지출", ds.Columns.Type},
	}
	for _, r := range roles {
		header := "(없음)"
		if r.idx >= 0 && r.idx < len(ds.Header) {
			header = ds.Header[r.idx]
		}
		v.Columns = append(v.Columns, columnView{Role: r.name, Header: header})
	}
	return v
}

func newAnalysisView(a analyzer.Analysis, hasSubcategory bool) analysisView {
	v := analysisView{
		Start:          a.Period.Start.String(),
		End:            a.Period.End.String(),
		Empty:          a.Empty(),
		Rows:           len(a.Rows),
		Income:         core.FormatAmount(a.Totals.Income) + core.WonSuffix,
		Expense:        core.FormatAmount(a.Totals.Expense) + core.WonSuffix,
		Balance:        core.FormatAmount(a.Totals.Balance) + core.WonSuffix,
		Negative:       a.Totals.Balance.IsNegative(),
		HasCategories:  a.HasCategories,
		HasSubcategory: hasSubcategory,
	}

	total := decimal.Zero
	for _, c := range a.Categories {
		total = total.Add(c.Amount)
	}
	for _, c := range a.Categories {
		v.Categories = append(v.Categories, categoryRowView{
			Category:    c.Category,
			Subcategory: c.Subcategory,
			Amount:      core.FormatAmount(c.Amount) + core.WonSuffix,
			Share:       sharePercent(c.Amount, total),
		})
	}
	for _, p := range a.Daily {
		v.Daily = append(v.Daily, dailyRowView{Date: p.Date.String(), Amount: core.FormatAmount(p.Amount) + core.WonSuffix})
	}
	v.Chart = newChartView(a.Daily)
	return v
}

// sharePercent rounds part/total to a whole percent in [0, 100].
func sharePercent(part, total decimal.Decimal) int {
	if !total.IsPositive() || !part.IsPositive() {
		return 0
	}
	pct := part.Mul(decimal.NewFromInt(100)).Div(total).Round(0).IntPart()
	return int(min(max(pct, 0), 100))
}

// Chart geometry in SVG user units.
const (
	chartWidth   = 640
	chartHeight  = 220
	chartPadding = 24
)

// chartView is an inline SVG line chart of the daily series.
type chartView struct {
	Width   int
	Height  int
	Points  string
	Dots    []chartDot
	MaxText string
	MinText string
	HasData bool
}

type chartDot struct {
	X, Y  string
	Label string
}

func newChartView(series []analyzer.DailyPoint) chartView {
	cv := chartView{Width: chartWidth, Height: chartHeight}
	if len(series) == 0 {
		return cv
	}
	cv.HasData = true

	lo, hi := series[0].Amount, series[0].Amount
	for _, p := range series[1:] {
		lo = decimal.Min(lo, p.Amount)
		hi = decimal.Max(hi, p.Amount)
	}
	if lo.IsPositive() {
		lo = decimal.Zero
	}
	cv.MaxText = core.FormatAmount(hi)
	cv.MinText = core.FormatAmount(lo)

	plotW := float64(chartWidth - 2*chartPadding)
	plotH := float64(chartHeight - 2*chartPadding)
	span := hi.Sub(lo).InexactFloat64()

	points := make([]string, 0, len(series))
	for i, p := range series {
		x := float64(chartPadding) + plotW/2
		if len(series) > 1 {
			x = float64(chartPadding) + plotW*float64(i)/float64(len(series)-1)
		}
		y := float64(chartPadding) + plotH/2
		if span > 0 {
			y = float64(chartPadding) + plotH*(1-p.Amount.Sub(lo).InexactFloat64()/span)
		}
		xs, ys := fmt.Sprintf("%.1f", x), fmt.Sprintf("%.1f", y)
		points = append(points, xs+","+ys)
		cv.Dots = append(cv.Dots, chartDot{X: xs, Y: ys, Label: p.Date.String() + " " + core.FormatAmount(p.Amount) + core.WonSuffix})
	}
	cv.Points = strings.Join(points, " ")
	return cv
}

func newReportView(title, text string) reportView {
	return reportView{Title: title, Text: text, Lines: strings.Count(text, "\n") + 1}
}
