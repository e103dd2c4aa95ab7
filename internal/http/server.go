package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"immistat/internal/core"
	applog "immistat/internal/log"
	"immistat/internal/metrics"
	"immistat/internal/middleware/ratelimit"
	"immistat/internal/middleware/security"
	"immistat/internal/middleware/trace"
	"immistat/internal/services"
	appweb "immistat/web"
)

// Roles shown in the sidebar. Viewer hides the entry and delete controls but
// nothing is enforced server-side.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Options carries the optional collaborators of the dashboard server.
type Options struct {
	Logger   *applog.Logger
	Metrics  *metrics.Metrics
	UserRole string
	// Ready checks the storage backend for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// RateLimit throttles the mutation routes per client.
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	templates *template.Template
	records   *services.RecordService
	metrics   *metrics.Metrics
	detector  *security.Detector
	limiter   *ratelimit.Limiter
	ready     func(ctx context.Context) error
	userRole  string
	logger    *applog.Logger
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, records *services.RecordService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	role := opts.UserRole
	if role != RoleViewer {
		role = RoleAdmin
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		records:  records,
		metrics:  opts.Metrics,
		ready:    opts.Ready,
		userRole: role,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		started:  time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.detector = security.NewDetector(logger, s.suspiciousCounter())

	rateCfg := opts.RateLimit
	if rateCfg.OnLimit == nil && s.metrics != nil {
		rateCfg.OnLimit = s.metrics.RateLimited
	}
	s.limiter = ratelimit.NewLimiter(rateCfg)
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)
	mutation := func(h http.HandlerFunc) http.Handler { return limit(h) }

	// Pages
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /entry", s.handleEntryForm)
	mux.Handle("POST /entry/preview", mutation(s.handlePreview))
	mux.HandleFunc("GET /records", s.handleRecords)
	mux.Handle("POST /records", mutation(s.handleCreateRecord))
	mux.HandleFunc("GET /records/{id}/delete", s.handleConfirmDelete)
	mux.Handle("POST /records/{id}/delete", mutation(s.handleDeleteRecord))

	// JSON API
	mux.HandleFunc("GET /api/records", s.handleAPIListRecords)
	mux.Handle("POST /api/records", mutation(s.handleAPICreateRecord))
	mux.Handle("DELETE /api/records/{id}", mutation(s.handleAPIDeleteRecord))
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)

	var observer trace.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	tracer := trace.NewMiddleware(logger, s.detector.ExtractClientIP, observer)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Handler = headers.Middleware(tracer.Middleware(s.detector.Middleware(mux)))

	s.refreshMetrics()
	return s
}

func (s *Server) suspiciousCounter() security.Counter {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// refreshMetrics recomputes the collection gauges after a mutation.
func (s *Server) refreshMetrics() {
	if s.metrics == nil || s.records == nil {
		return
	}
	s.metrics.SetSummary(s.records.Summary())
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"kyat":  formatKyat,
		"comma": humanize.Comma,
		"population": func(r core.Record) int64 {
			return r.Population()
		},
	}
}

// render executes a template into a buffer first so a failing template never
// leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err, "template", name)
		InternalServerError("failed to render page").Write(w)
		return
	}

	NewHTMXResponse().Status(status).BodyHTML(buf.String()).Write(w)
}
