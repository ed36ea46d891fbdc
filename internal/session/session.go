// Package session keeps per-visitor state behind a cookie. Each session owns
// its ledger entries (held in the entry store) and its current analyzer
// upload; both are discarded when the session expires.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"gagyebu/internal/analyzer"
	"gagyebu/internal/cache"
	"gagyebu/internal/core"
)

// CookieName is the session cookie.
const CookieName = "gagyebu_session"

// Upload is the spreadsheet currently loaded in the analyzer.
type Upload struct {
	Name     string
	Source   string
	Dataset  *analyzer.Dataset
	Period   core.Period
	LoadedAt time.Time
}

// State is one session's application state. Handlers receive it explicitly.
type State struct {
	ID string

	mu     sync.Mutex
	upload *Upload
}

// SetUpload replaces the current upload and selects the file's full date
// range.
func (s *State) SetUpload(name, source string, ds *analyzer.Dataset) Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload = &Upload{
		Name:     name,
		Source:   source,
		Dataset:  ds,
		Period:   ds.Bounds(),
		LoadedAt: time.Now(),
	}
	return *s.upload
}

// Upload returns a copy of the current upload.
func (s *State) Upload() (Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload == nil {
		return Upload{}, false
	}
	return *s.upload, true
}

// SelectPeriod stores the chosen date range. An inverted range is rejected
// with core.ErrInvalidRange and the previous selection is kept.
func (s *State) SelectPeriod(p core.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload != nil {
		s.upload.Period = p
	}
	return nil
}

// ClearUpload forgets the current upload.
func (s *State) ClearUpload() {
	s.mu.Lock()
	s.upload = nil
	s.mu.Unlock()
}

// EndFunc is called with the ID of every expired or evicted session.
type EndFunc func(ctx context.Context, id string) error

// Manager maps session cookies to State.
type Manager struct {
	states *cache.LRUCache[*State]
	ttl    time.Duration
	secure bool
	logger *slog.Logger
}

// Options configures a Manager.
type Options struct {
	TTL         time.Duration
	MaxSessions int
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie bool
	// OnEnd releases resources held outside the manager, such as the
	// session's ledger entries.
	OnEnd  EndFunc
	Logger *slog.Logger
}

func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{ttl: opts.TTL, secure: opts.SecureCookie, logger: logger}
	onEvict := func(id string, _ *State) {
		if opts.OnEnd == nil {
			return
		}
		if err := opts.OnEnd(context.Background(), id); err != nil {
			logger.Error("Failed to release session", "session_id", id, "error", err)
			return
		}
		logger.Debug("Session ended", "session_id", id)
	}
	m.states = cache.NewLRUCache[*State](opts.MaxSessions, opts.TTL,
		cache.WithSlidingTTL[*State](),
		cache.WithEvict[*State](onEvict))
	return m
}

// Load returns the request's session, starting a new one and setting the
// cookie when the request has none or its session expired.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *State {
	if c, err := r.Cookie(CookieName); err == nil {
		if st, ok := m.states.Get(c.Value); ok {
			return st
		}
	}

	st := &State{ID: uuid.NewString()}
	m.states.Set(st.ID, st)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    st.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return st
}

// Get looks up a session without creating one.
func (m *Manager) Get(id string) (*State, bool) {
	return m.states.Get(id)
}

// End discards a session immediately.
func (m *Manager) End(id string) {
	m.states.Delete(id)
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	return m.states.Size()
}

// Cleaner exposes the session cache to the cache manager's expiry sweep.
func (m *Manager) Cleaner() cache.Cleaner {
	return m.states
}

type ctxKey struct{}

// Middleware loads the session and stores it in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := m.Load(w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, st)))
	})
}

// FromContext returns the session stored by Middleware.
func FromContext(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(ctxKey{}).(*State)
	return st, ok
}
