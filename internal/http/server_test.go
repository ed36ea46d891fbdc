package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagyebu/internal/metrics"
	"gagyebu/internal/services"
	"gagyebu/internal/session"
	"gagyebu/internal/sheets/memory"
)

const sampleCSV = "기간,분류,금액,수입/지출\n" +
	"2024-03-01,월급,3000000,수입\n" +
	"2024-03-02,식비,10000,지출\n" +
	"2024-03-05,교통,2500,지출\n"

// testClient carries the session cookie between requests like a browser.
type testClient struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *testClient {
	t.Helper()
	reg := metrics.NewRegistry()
	store := memory.New()
	ledgerSvc := services.NewLedgerService(store, nil, reg, nil)
	cfg := Config{
		Addr:     ":0",
		Ledger:   ledgerSvc,
		Analyzer: services.NewAnalyzerService(nil, nil, reg, nil),
		Sessions: session.NewManager(session.Options{TTL: time.Hour, MaxSessions: 10}),
		Metrics:  reg,
		Now:      func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	srv := NewServer(cfg)
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return &testClient{t: t, srv: srv}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return rr
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *testClient) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) upload(name string, content []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = fw.Write(content)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyzer/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func TestIndexAndHealth(t *testing.T) {
	c := newTestServer(t)

	rr := c.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "💰 가계부")
	assert.Contains(t, rr.Body.String(), `value="2024-03-15"`)
	assert.Contains(t, rr.Body.String(), "아직 기록된 내역이 없습니다")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.NotNil(t, c.cookie, "session cookie should be issued")

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := c.get(path)
		require.Equal(t, http.StatusOK, rr.Code, path)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.NotEmpty(t, body["status"])
	}

	rr = c.get("/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAddEntryValidationAndSuccess(t *testing.T) {
	c := newTestServer(t)
	c.get("/")

	// Wrong method
	rr := c.get("/entries")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = c.postForm("/entries", url.Values{"kind": {"지출"}, "category": {"식비"}, "amount": {"0"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), msgZeroAmount)

	rr = c.postForm("/entries", url.Values{"date": {"2024-13-01"}, "amount": {"1000"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), msgInvalidDate)

	rr = c.postForm("/entries", url.Values{"kind": {"이체"}, "amount": {"1000"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), msgInvalidKind)

	rr = c.postForm("/entries", url.Values{
		"date":     {"2024-03-01"},
		"kind":     {"수입"},
		"category": {"월급"},
		"amount":   {"3000000"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventLedgerChanged)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventFormReset)
	assert.Contains(t, rr.Body.String(), msgEntryAdded)

	rr = c.postForm("/entries", url.Values{
		"date":        {"2024-03-02"},
		"kind":        {"지출"},
		"category":    {"식비"},
		"description": {"점심 <b>"},
		"amount":      {"12000"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = c.get("/ui/ledger")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "3,000,000 원")
	assert.Contains(t, body, "12,000 원")
	assert.Contains(t, body, "2,988,000 원")
	assert.NotContains(t, body, "아직 기록된 내역이 없습니다")
	assert.NotContains(t, body, "<b>")
}

func TestAddEntryJSON(t *testing.T) {
	c := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/entries",
		strings.NewReader(`{"kind":"지출","category":"카페","amount":"4500"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := c.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "2024-03-15", got["date"])
	assert.Equal(t, "지출", got["kind"])
	assert.Equal(t, "-", got["description"])
	assert.EqualValues(t, 4500, got["amount"])
}

func TestLedgersAreIsolatedPerSession(t *testing.T) {
	a := newTestServer(t)
	a.postForm("/entries", url.Values{"kind": {"수입"}, "category": {"용돈"}, "amount": {"50000"}})

	b := &testClient{t: t, srv: a.srv}
	rr := b.get("/ui/ledger")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "아직 기록된 내역이 없습니다")

	rr = a.get("/ui/ledger")
	assert.Contains(t, rr.Body.String(), "50,000 원")
}

func TestAnalyzerUploadAndAnalysis(t *testing.T) {
	c := newTestServer(t)

	rr := c.get("/analyzer")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "📈 가계부 파일 분석")

	rr = c.get("/ui/analysis")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), msgNoUpload)

	rr = c.upload("march.csv", []byte(sampleCSV))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventUploadLoaded)
	body := rr.Body.String()
	assert.Contains(t, body, "march.csv")
	assert.Contains(t, body, "2024-03-01")
	assert.Contains(t, body, "2024-03-05")
	assert.Contains(t, body, "3,000,000 원")

	rr = c.get("/ui/analysis?start=2024-03-05&end=2024-03-01")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), msgInvalidRange)

	rr = c.get("/ui/analysis?start=2024-04-01&end=2024-04-30")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "데이터가 없습니다")

	rr = c.get("/ui/analysis?start=2024-03-02&end=2024-03-05")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventPeriodSelected)
	body = rr.Body.String()
	assert.Contains(t, body, "12,500 원")
	assert.Contains(t, body, "식비")
	assert.Contains(t, body, "<svg")

	// The selection sticks for requests without explicit dates.
	rr = c.get("/analyzer/series.json")
	require.Equal(t, http.StatusOK, rr.Code)
	var series seriesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &series))
	assert.Equal(t, "2024-03-02", series.Start)
	assert.Equal(t, "2024-03-05", series.End)
	require.Len(t, series.Points, 2)
	assert.Equal(t, "10000", series.Points[0].Amount)
}

func TestAnalyzerReportAndExport(t *testing.T) {
	c := newTestServer(t)
	require.Equal(t, http.StatusOK, c.upload("march.csv", []byte(sampleCSV)).Code)

	rr := c.postForm("/analyzer/report", url.Values{
		"start": {"2024-03-01"},
		"end":   {"2024-03-31"},
		"title": {"3월 리뷰"},
		"good":  {"외식을 줄였다"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "# 3월 리뷰")
	assert.Contains(t, body, "- 기간: 2024-03-01 ~ 2024-03-31")
	assert.Contains(t, body, "- 총 수입: ₩3,000,000")
	assert.Contains(t, body, "- 총 지출: ₩12,500")
	assert.Contains(t, body, "외식을 줄였다")
	assert.Contains(t, body, "- (아직 작성 안 함)")

	plan := strings.Repeat("저축", 1500)
	payload, err := json.Marshal(map[string]string{"start": "2024-03-02", "end": "2024-03-02", "plan": plan})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/analyzer/report", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	rr = c.do(req)
	require.Equal(t, http.StatusOK, rr.Code)
	var report map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, defaultReportTitle, report["title"])
	assert.Contains(t, report["text"], "- 총 지출: ₩10,000")
	assert.True(t, strings.HasSuffix(report["text"], "## 다음 계획\n"+plan), "plan text must be kept whole")

	rr = c.get("/analyzer/export.csv?start=2024-03-02&end=2024-03-05")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "gagyebu_2024-03-02_2024-03-05.csv")
	out := rr.Body.String()
	require.True(t, strings.HasPrefix(out, utf8BOM))
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, utf8BOM)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "날짜,금액,분류,소분류,내용,수입/지출", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2024-03-02,10000,식비"))
}

func TestOversizedFormBodyIsRejected(t *testing.T) {
	c := newTestServer(t)
	rr := c.postForm("/entries", url.Values{
		"amount":      {"1000"},
		"description": {strings.Repeat("a", maxFormBodyBytes)},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr = c.get("/ui/ledger")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "아직 기록된 내역이 없습니다")
}

func TestAnalyzerRejectsBadUploads(t *testing.T) {
	c := newTestServer(t, func(cfg *Config) { cfg.UploadMaxBytes = 1 << 10 })

	rr := c.upload("old.xls", []byte("whatever"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), msgUnsupported)

	rr = c.upload("empty.csv", []byte("기간,금액\n날짜아님,1\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), msgEmptyData)

	rr = c.upload("big.csv", bytes.Repeat([]byte("a"), 4<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr = c.postForm("/analyzer/import", url.Values{"spreadsheet_id": {"x"}, "range": {"A1:B2"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), msgSheetsDisabled)

	rr = c.get("/analyzer/series.json")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = c.get("/analyzer/export.csv")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	c := newTestServer(t)
	c.get("/")
	c.postForm("/entries", url.Values{"amount": {"0"}})

	rr := c.get("/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "gagyebu_http_requests_total")
	assert.Contains(t, body, `route="POST /entries"`)
}

func TestRateLimitOnWrites(t *testing.T) {
	c := newTestServer(t, func(cfg *Config) { cfg.RateLimitPerMinute = 6 })
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, c.postForm("/entries", url.Values{"amount": {"1000"}}).Code)
	}
	assert.Equal(t, []int{200, 429, 429}, codes)

	// Reads are never limited.
	assert.Equal(t, http.StatusOK, c.get("/ui/ledger").Code)
}
