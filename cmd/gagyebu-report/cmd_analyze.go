package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gagyebu/internal/analyzer"
	"gagyebu/internal/core"
	"gagyebu/internal/sheets/upload"
)

type analyzeOptions struct {
	Start  string
	End    string
	Title  string
	Good   string
	Bad    string
	Plan   string
	Format string
}

func (o *analyzeOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Start, "start", "", "First day of the period (YYYY-MM-DD, default: earliest date in the file)")
	fs.StringVar(&o.End, "end", "", "Last day of the period (YYYY-MM-DD, default: latest date in the file)")
	fs.StringVar(&o.Title, "title", "가계부 분석 요약", "Summary title")
	fs.StringVar(&o.Good, "good", "", "잘한 점")
	fs.StringVar(&o.Bad, "bad", "", "아쉬운 점")
	fs.StringVar(&o.Plan, "plan", "", "다음 계획")
	fs.StringVar(&o.Format, "format", "text", "Output format (text|json)")
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Summarize a .xlsx or .csv ledger export for a period",
		Long: `Read the first sheet of an Excel workbook (or a CSV file), detect the
date, amount, category and income/expense columns, and print totals, the
category summary, the daily series and the shareable summary text.

Examples:
  gagyebu-report analyze 2024.xlsx
  gagyebu-report analyze 2024.xlsx --start 2024-03-01 --end 2024-03-31 --title "3월 리뷰"
  gagyebu-report analyze export.csv --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return runAnalyze(cmd.OutOrStdout(), filepath.Base(args[0]), f, *opts)
		},
	}
	opts.bind(cmd.Flags())
	return cmd
}

type analyzeReport struct {
	File       string          `json:"file"`
	Rows       int             `json:"rows"`
	Dropped    int             `json:"dropped"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	Income     string          `json:"income"`
	Expense    string          `json:"expense"`
	Balance    string          `json:"balance"`
	Categories []categoryTotal `json:"categories,omitempty"`
	Daily      []dailyAmount   `json:"daily"`
	Summary    string          `json:"summary"`
}

type categoryTotal struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Amount      string `json:"amount"`
}

type dailyAmount struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

func runAnalyze(w io.Writer, name string, r io.Reader, opts analyzeOptions) error {
	table, err := upload.Read(name, r)
	if err != nil {
		return err
	}
	ds, err := analyzer.Load(table)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	p, err := periodFromFlags(opts.Start, opts.End, ds.Bounds())
	if err != nil {
		return err
	}
	a, err := ds.Analyze(p)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "가계부 분석 요약"
	}
	rep := analyzeReport{
		File:    name,
		Rows:    len(a.Rows),
		Dropped: ds.Dropped,
		Start:   p.Start.String(),
		End:     p.End.String(),
		Income:  a.Totals.Income.String(),
		Expense: a.Totals.Expense.String(),
		Balance: a.Totals.Balance.String(),
		Daily:   []dailyAmount{},
		Summary: analyzer.BuildSummaryText(title, p, a.Totals, analyzer.Reflection{Good: opts.Good, Bad: opts.Bad, Plan: opts.Plan}),
	}
	for _, c := range a.Categories {
		rep.Categories = append(rep.Categories, categoryTotal{Category: c.Category, Subcategory: c.Subcategory, Amount: c.Amount.String()})
	}
	for _, d := range a.Daily {
		rep.Daily = append(rep.Daily, dailyAmount{Date: d.Date.String(), Amount: d.Amount.String()})
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "text", "":
		return writeAnalysisText(w, rep, a)
	default:
		return fmt.Errorf("unknown format %q: must be text or json", opts.Format)
	}
}

func periodFromFlags(start, end string, bounds core.Period) (core.Period, error) {
	p := bounds
	if start != "" {
		d, err := core.ParseDate(start)
		if err != nil {
			return core.Period{}, fmt.Errorf("--start: %w", err)
		}
		p.Start = d
	}
	if end != "" {
		d, err := core.ParseDate(end)
		if err != nil {
			return core.Period{}, fmt.Errorf("--end: %w", err)
		}
		p.End = d
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, fmt.Errorf("%s: %w", p, err)
	}
	return p, nil
}

func writeAnalysisText(w io.Writer, rep analyzeReport, a analyzer.Analysis) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "파일\t%s (%d건, 제외 %d건)\n", rep.File, rep.Rows, rep.Dropped)
	fmt.Fprintf(tw, "기간\t%s ~ %s\n", rep.Start, rep.End)
	if a.Empty() {
		fmt.Fprintln(tw, "\t선택한 기간에 해당하는 데이터가 없습니다.")
	}
	fmt.Fprintf(tw, "총 수입\t%s%s\n", core.FormatAmount(a.Totals.Income), core.WonSuffix)
	fmt.Fprintf(tw, "총 지출\t%s%s\n", core.FormatAmount(a.Totals.Expense), core.WonSuffix)
	fmt.Fprintf(tw, "잔액\t%s%s\n", core.FormatAmount(a.Totals.Balance), core.WonSuffix)

	if len(a.Categories) > 0 {
		fmt.Fprintln(tw, "\n카테고리별 합계")
		for _, c := range a.Categories {
			label := c.Category
			if c.Subcategory != "" {
				label += " / " + c.Subcategory
			}
			fmt.Fprintf(tw, "  %s\t%s%s\n", label, core.FormatAmount(c.Amount), core.WonSuffix)
		}
	}
	if len(a.Daily) > 0 {
		fmt.Fprintln(tw, "\n일별 추이")
		for _, d := range a.Daily {
			fmt.Fprintf(tw, "  %s\t%s%s\n", d.Date, core.FormatAmount(d.Amount), core.WonSuffix)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", rep.Summary)
	return err
}
