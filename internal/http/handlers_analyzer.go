package http

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"gagyebu/internal/analyzer"
	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/services"
	"gagyebu/internal/session"
)

// utf8BOM lets spreadsheet programs detect UTF-8 in exported CSV.
const utf8BOM = "\uFEFF"

func (s *Server) handleAnalyzerPage(w http.ResponseWriter, r *http.Request, st *session.State) {
	view := analyzerPageView{
		SheetsEnabled: s.analyzer.SheetsEnabled(),
		MaxUploadMB:   s.uploadMaxBytes >> 20,
	}
	if up, ok := st.Upload(); ok {
		ws, err := s.workspace(up, up.Period)
		if err == nil {
			view.Workspace = &ws
		}
	}
	s.render(w, r, NewHTMXResponse(), "analyzer.html", view)
}

// workspace analyzes the upload for p and builds the partial shown below the
// upload form.
func (s *Server) workspace(up session.Upload, p core.Period) (workspaceView, error) {
	a, err := up.Dataset.Analyze(p)
	if err != nil {
		return workspaceView{}, err
	}
	return workspaceView{
		Upload:   newUploadView(up),
		Analysis: newAnalysisView(a, up.Dataset.HasSubcategory()),
		Report:   reportFormView{Title: defaultReportTitle},
	}, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, st *session.State) {
	if r.ContentLength > s.uploadMaxBytes {
		RequestEntityTooLargeError(fmt.Sprintf(msgTooLarge, s.uploadMaxBytes>>20)).Write(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes)
	if err := r.ParseMultipartForm(s.uploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestEntityTooLargeError(fmt.Sprintf(msgTooLarge, s.uploadMaxBytes>>20)).Write(w)
			return
		}
		BadRequestError(msgNoFile).Write(w)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		WarningResponse(http.StatusUnprocessableEntity, msgNoFile).Write(w)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	ds, err := s.analyzer.LoadFile(r.Context(), st.ID, name, file)
	if err != nil {
		s.loadFailed(w, r, st, err)
		return
	}
	s.loaded(w, r, st, name, services.SourceFile, ds)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, st *session.State) {
	if !s.analyzer.SheetsEnabled() {
		WarningResponse(http.StatusUnprocessableEntity, msgSheetsDisabled).Write(w)
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeParseError(w, err)
		return
	}
	id, readRange := parser.Get("spreadsheet_id"), parser.Get("range")
	if id == "" || readRange == "" {
		WarningResponse(http.StatusUnprocessableEntity, msgSheetsMissing).Write(w)
		return
	}

	ds, err := s.analyzer.ImportSheet(r.Context(), st.ID, id, readRange)
	if err != nil {
		s.loadFailed(w, r, st, err)
		return
	}
	s.loaded(w, r, st, sheetName(readRange), services.SourceSheets, ds)
}

func (s *Server) loaded(w http.ResponseWriter, r *http.Request, st *session.State, name, source string, ds *analyzer.Dataset) {
	up := st.SetUpload(name, source, ds)
	ws, err := s.workspace(up, up.Period)
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}
	msg := fmt.Sprintf(msgUploadLoaded, name, len(ds.Rows))
	s.render(w, r, NewHTMXResponse().
		TriggerUploadLoaded(len(ds.Rows), ws.Upload.Min, ws.Upload.Max).
		TriggerSuccessNotification(msg),
		"workspace", ws)
}

func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, st *session.State, err error) {
	msg := msgReadFailed
	switch {
	case errors.Is(err, core.ErrUnsupportedFile):
		msg = msgUnsupported
	case errors.Is(err, core.ErrEmptyData):
		msg = msgEmptyData
	case errors.Is(err, services.ErrSheetsDisabled):
		msg = msgSheetsDisabled
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Spreadsheet rejected",
		log.NewFields().
			WithError(err).
			WithSessionID(st.ID).
			WithOperation(log.OpUpload).
			WithComponent(log.ComponentAnalyzer).
			ToSlice()...)
	UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
}

// periodFor resolves the request's start/end against the session's current
// selection. It writes the error response itself and returns false on
// failure.
func (s *Server) periodFor(w http.ResponseWriter, values map[string][]string, up session.Upload) (core.Period, bool) {
	p, err := ParsePeriodParams(values, up.Period)
	switch {
	case errors.Is(err, core.ErrInvalidRange):
		WarningResponse(http.StatusUnprocessableEntity, msgInvalidRange).Write(w)
		return core.Period{}, false
	case err != nil:
		WarningResponse(http.StatusUnprocessableEntity, msgInvalidDate).Write(w)
		return core.Period{}, false
	}
	return p, true
}

// handleAnalysis recomputes the analysis for ?start=&end= and remembers the
// selection. An empty result is a normal state, not an error.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request, st *session.State) {
	up, ok := st.Upload()
	if !ok {
		NewHTMXResponse().BodyHTML(`<div class="info" role="status">` + msgNoUpload + `</div>`).Write(w)
		return
	}
	p, ok := s.periodFor(w, r.URL.Query(), up)
	if !ok {
		return
	}
	if err := st.SelectPeriod(p); err != nil {
		WarningResponse(http.StatusUnprocessableEntity, msgInvalidRange).Write(w)
		return
	}

	a, err := up.Dataset.Analyze(p)
	if err != nil {
		WarningResponse(http.StatusUnprocessableEntity, msgInvalidRange).Write(w)
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Period analyzed",
		log.NewFields().WithPeriod(p.String()).WithSessionID(st.ID).WithOperation(log.OpAnalyze).ToSlice()...)

	s.render(w, r, NewHTMXResponse().TriggerPeriodSelected(p.Start.String(), p.End.String()),
		"analysis", newAnalysisView(a, up.Dataset.HasSubcategory()))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, st *session.State) {
	up, ok := st.Upload()
	if !ok {
		WarningResponse(http.StatusUnprocessableEntity, msgNoUpload).Write(w)
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeParseError(w, err)
		return
	}
	values := map[string][]string{"start": {parser.Get("start")}, "end": {parser.Get("end")}}
	p, ok := s.periodFor(w, values, up)
	if !ok {
		return
	}

	title := parser.Get("title")
	if title == "" {
		title = defaultReportTitle
	}
	reflection := analyzer.Reflection{
		Good: parser.GetText("good"),
		Bad:  parser.GetText("bad"),
		Plan: parser.GetText("plan"),
	}

	text, _, err := s.analyzer.BuildReport(r.Context(), st.ID, up.Dataset, p, title, reflection)
	if err != nil {
		WarningResponse(http.StatusUnprocessableEntity, msgInvalidRange).Write(w)
		return
	}
	if parser.IsJSON() {
		writeJSON(w, http.StatusOK, map[string]string{"title": title, "text": text})
		return
	}
	s.render(w, r, NewHTMXResponse().TriggerSuccessNotification(msgReportBuilt), "report", newReportView(title, text))
}

type seriesPoint struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type seriesResponse struct {
	Start  string        `json:"start"`
	End    string        `json:"end"`
	Points []seriesPoint `json:"points"`
}

// handleSeries returns the daily series of the selected period as JSON.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request, st *session.State) {
	up, ok := st.Upload()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgNoUpload})
		return
	}
	p, err := ParsePeriodParams(r.URL.Query(), up.Period)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	rows, _ := up.Dataset.FilterByRange(p.Start, p.End)

	resp := seriesResponse{Start: p.Start.String(), End: p.End.String(), Points: []seriesPoint{}}
	for _, pt := range analyzer.DailySeries(rows) {
		resp.Points = append(resp.Points, seriesPoint{Date: pt.Date.String(), Amount: pt.Amount.String()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// exportHeader names the role columns of the exported CSV.
var exportHeader = []string{"날짜", "금액", "분류", "소분류", "내용", "수입/지출"}

// handleExport downloads the filtered rows as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, st *session.State) {
	up, ok := st.Upload()
	if !ok {
		NotFoundError(msgNoUpload).Write(w)
		return
	}
	p, ok := s.periodFor(w, r.URL.Query(), up)
	if !ok {
		return
	}
	rows, _ := up.Dataset.FilterByRange(p.Start, p.End)

	filename := fmt.Sprintf("gagyebu_%s_%s.csv", p.Start, p.End)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte(utf8BOM))
	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, row := range rows {
		_ = cw.Write([]string{
			row.Date.String(),
			row.Amount.String(),
			row.Category,
			row.Subcategory,
			row.Description,
			row.Label,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.NewFields().WithError(err).WithOperation(log.OpExport).WithSessionID(st.ID).ToSlice()...)
	}
}

// sheetName trims an import range to the sheet part for display.
func sheetName(readRange string) string {
	if i := strings.Index(readRange, "!"); i > 0 {
		return strings.Trim(readRange[:i], "'")
	}
	return readRange
}
