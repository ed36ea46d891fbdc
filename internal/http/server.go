package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"gagyebu/internal/log"
	"gagyebu/internal/metrics"
	"gagyebu/internal/middleware/ratelimit"
	"gagyebu/internal/middleware/security"
	"gagyebu/internal/middleware/trace"
	"gagyebu/internal/services"
	"gagyebu/internal/session"
	appweb "gagyebu/web"
)

// Defaults applied by NewServer for zero Config values.
const (
	DefaultUploadMaxBytes = 10 << 20
	readHeaderTimeout     = 10 * time.Second
	writeTimeout          = 60 * time.Second
	idleTimeout           = 120 * time.Second
)

// Config wires the server to its services.
type Config struct {
	Addr     string
	Ledger   *services.LedgerService
	Analyzer *services.AnalyzerService
	Sessions *session.Manager
	// Metrics may be nil, in which case /metrics answers 404.
	Metrics *metrics.Registry
	// Ready reports backend readiness for /readyz; nil means always ready.
	Ready              func(ctx context.Context) error
	UploadMaxBytes     int64
	RateLimitPerMinute int
	Logger             *log.Logger
	// Now is the clock used for form defaults; tests may pin it.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.LedgerService
	analyzer  *services.AnalyzerService
	sessions  *session.Manager
	metrics   *metrics.Registry
	ready     func(ctx context.Context) error
	logger    *log.Logger
	now       func() time.Time

	uploadMaxBytes int64
	rateLimiter    *ratelimit.Limiter
	detector       *security.Detector
	startedAt      time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. Template parse failures are logged and reported by
// /readyz.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = DefaultUploadMaxBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	mux := http.NewServeMux()
	s := &Server{
		ledger:         cfg.Ledger,
		analyzer:       cfg.Analyzer,
		sessions:       cfg.Sessions,
		metrics:        cfg.Metrics,
		ready:          cfg.Ready,
		logger:         logger,
		now:            cfg.Now,
		uploadMaxBytes: cfg.UploadMaxBytes,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:       security.NewDetector(cfg.Metrics),
		startedAt:      time.Now(),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Ledger
	mux.Handle("GET /{$}", s.withSession(log.ComponentLedger, s.handleLedgerPage))
	mux.Handle("GET /ui/ledger", s.withSession(log.ComponentLedger, s.handleLedgerPanel))
	mux.Handle("POST /entries", s.withSession(log.ComponentLedger, s.handleAddEntry))

	// Analyzer
	mux.Handle("GET /analyzer", s.withSession(log.ComponentAnalyzer, s.handleAnalyzerPage))
	mux.Handle("POST /analyzer/upload", s.withSession(log.ComponentAnalyzer, s.handleUpload))
	mux.Handle("POST /analyzer/import", s.withSession(log.ComponentAnalyzer, s.handleImport))
	mux.Handle("GET /ui/analysis", s.withSession(log.ComponentAnalyzer, s.handleAnalysis))
	mux.Handle("POST /analyzer/report", s.withSession(log.ComponentAnalyzer, s.handleReport))
	mux.Handle("GET /analyzer/series.json", s.withSession(log.ComponentAnalyzer, s.handleSeries))
	mux.Handle("GET /analyzer/export.csv", s.withSession(log.ComponentAnalyzer, s.handleExport))

	routeOf := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP, routeOf, s.metrics, logger)
	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Limited()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.").Write(w)
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           tracer.Middleware(s.detector.Middleware(limit(headers.Middleware(mux)))),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// sessionHandler receives the caller's session explicitly.
type sessionHandler func(w http.ResponseWriter, r *http.Request, st *session.State)

// withSession loads the session cookie, tags the request logger with the
// component and marks the response uncacheable.
func (s *Server) withSession(component string, h sessionHandler) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := session.FromContext(r.Context())
		if !ok {
			InternalServerError(msgRenderFailed).Write(w)
			return
		}
		h(w, r, st)
	})
	return security.NoStore(log.ComponentMiddleware(component)(s.sessions.Middleware(inner)))
}

// render executes a template into the builder's body. On failure it writes a
// 500 and returns false.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) bool {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		InternalServerError(msgRenderFailed).Write(w)
		return false
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate,
			"template", name)
		InternalServerError(msgRenderFailed).Write(w)
		return false
	}
	b.BodyHTML(buf.String()).Write(w)
	return true
}

// Shutdown stops background goroutines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
