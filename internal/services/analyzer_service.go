package services

import (
	"context"
	"errors"
	"io"

	"gagyebu/internal/amqp"
	"gagyebu/internal/analyzer"
	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/metrics"
	"gagyebu/internal/sheets"
	"gagyebu/internal/sheets/upload"
)

// Spreadsheet sources.
const (
	SourceFile   = "file"
	SourceSheets = "google_sheets"
)

// ErrSheetsDisabled is returned by ImportSheet when no Sheets reader is set.
var ErrSheetsDisabled = errors.New("google sheets import is not configured")

// AnalyzerService loads spreadsheets and produces period reports.
type AnalyzerService struct {
	sheets    sheets.TableReader
	publisher EventPublisher
	metrics   *metrics.Registry
	logger    *log.StructuredLogger
}

func NewAnalyzerService(reader sheets.TableReader, publisher EventPublisher, m *metrics.Registry, logger *log.Logger) *AnalyzerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentAnalyzer)
	}
	return &AnalyzerService{
		sheets:    reader,
		publisher: publisher,
		metrics:   m,
		logger:    log.NewStructuredLogger(logger),
	}
}

// SheetsEnabled reports whether ImportSheet can be used.
func (s *AnalyzerService) SheetsEnabled() bool {
	return s.sheets != nil
}

// LoadFile parses an uploaded file into a dataset.
func (s *AnalyzerService) LoadFile(ctx context.Context, sessionID, name string, r io.Reader) (*analyzer.Dataset, error) {
	table, err := upload.Read(name, r)
	if err != nil {
		s.metrics.UploadLoaded(SourceFile, loadResult(err), 0)
		return nil, err
	}
	return s.load(ctx, sessionID, SourceFile, name, table)
}

// ImportSheet reads a Google Sheets range into a dataset.
func (s *AnalyzerService) ImportSheet(ctx context.Context, sessionID, spreadsheetID, readRange string) (*analyzer.Dataset, error) {
	if s.sheets == nil {
		return nil, ErrSheetsDisabled
	}
	table, err := s.sheets.ReadTable(ctx, spreadsheetID, readRange)
	if err != nil {
		s.metrics.UploadLoaded(SourceSheets, "read_error", 0)
		return nil, &core.FileReadError{Name: spreadsheetID, Err: err}
	}
	return s.load(ctx, sessionID, SourceSheets, spreadsheetID+" "+readRange, table)
}

func (s *AnalyzerService) load(ctx context.Context, sessionID, source, name string, table sheets.Table) (*analyzer.Dataset, error) {
	ds, err := analyzer.Load(table)
	if err != nil {
		s.metrics.UploadLoaded(source, loadResult(err), 0)
		return nil, err
	}
	s.metrics.UploadLoaded(source, "ok", len(ds.Rows))
	s.logger.LogUploadLoaded(ctx, sessionID, source, name, len(ds.Rows), ds.Dropped)
	return ds, nil
}

// BuildReport analyzes the period and renders the summary text. The
// analysis is returned so callers can show it next to the text.
func (s *AnalyzerService) BuildReport(ctx context.Context, sessionID string, ds *analyzer.Dataset, p core.Period, title string, r analyzer.Reflection) (string, analyzer.Analysis, error) {
	a, err := ds.Analyze(p)
	if err != nil {
		return "", analyzer.Analysis{}, err
	}
	text := analyzer.BuildSummaryText(title, p, a.Totals, r)

	s.metrics.ReportBuilt()
	s.logger.LogReportBuilt(ctx, sessionID, p.String(), len(a.Rows))

	publishEvent(ctx, s.publisher, s.metrics, amqp.EventReportBuilt, sessionID, amqp.ReportBuilt{
		Title:   title,
		Start:   p.Start.String(),
		End:     p.End.String(),
		Rows:    len(a.Rows),
		Income:  a.Totals.Income.String(),
		Expense: a.Totals.Expense.String(),
		Balance: a.Totals.Balance.String(),
	})
	return text, a, nil
}

func loadResult(err error) string {
	var fre *core.FileReadError
	switch {
	case errors.Is(err, core.ErrUnsupportedFile):
		return "unsupported"
	case errors.Is(err, core.ErrEmptyData):
		return "empty"
	case errors.As(err, &fre):
		return "read_error"
	}
	return "error"
}
