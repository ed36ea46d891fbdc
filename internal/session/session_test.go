package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagyebu/internal/analyzer"
	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

func newManager(t *testing.T, max int, onEnd EndFunc) *Manager {
	t.Helper()
	return NewManager(Options{TTL: time.Hour, MaxSessions: max, OnEnd: onEnd})
}

func TestLoadCreatesAndReusesSession(t *testing.T) {
	m := newManager(t, 10, nil)

	rec := httptest.NewRecorder()
	st := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, st.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	again := m.Load(rec2, req)
	assert.Same(t, st, again)
	assert.Empty(t, rec2.Result().Cookies(), "existing session must not reissue the cookie")
}

func TestUnknownCookieStartsNewSession(t *testing.T) {
	m := newManager(t, 10, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})

	st := m.Load(httptest.NewRecorder(), req)
	assert.NotEqual(t, "stale", st.ID)
	assert.Equal(t, 1, m.Active())
}

func TestEvictionCallsOnEnd(t *testing.T) {
	var mu sync.Mutex
	var ended []string
	m := newManager(t, 1, func(_ context.Context, id string) error {
		mu.Lock()
		ended = append(ended, id)
		mu.Unlock()
		return nil
	})

	first := m.Load(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.Load(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{first.ID}, ended)
	_, ok := m.Get(first.ID)
	assert.False(t, ok)

	m.End("missing")
	assert.Equal(t, 1, m.Active())
}

func TestStateUploadAndPeriod(t *testing.T) {
	ds, err := analyzer.Load(sheets.NewTable([][]string{
		{"기간", "금액"},
		{"2024-03-01", "1"},
		{"2024-03-31", "2"},
	}))
	require.NoError(t, err)

	st := &State{ID: "s"}
	_, ok := st.Upload()
	assert.False(t, ok)

	up := st.SetUpload("march.csv", "file", ds)
	assert.Equal(t, core.NewDate(2024, 3, 1), up.Period.Start)
	assert.Equal(t, core.NewDate(2024, 3, 31), up.Period.End)

	err = st.SelectPeriod(core.Period{Start: core.NewDate(2024, 3, 31), End: core.NewDate(2024, 3, 1)})
	require.ErrorIs(t, err, core.ErrInvalidRange)

	require.NoError(t, st.SelectPeriod(core.Period{Start: core.NewDate(2024, 3, 5), End: core.NewDate(2024, 3, 10)}))
	got, ok := st.Upload()
	require.True(t, ok)
	assert.Equal(t, core.NewDate(2024, 3, 5), got.Period.Start)

	st.ClearUpload()
	_, ok = st.Upload()
	assert.False(t, ok)
}

func TestMiddlewareStoresState(t *testing.T) {
	m := newManager(t, 10, nil)
	var got *State
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
