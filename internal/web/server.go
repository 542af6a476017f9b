package web

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/chat"
	"github.com/vbonduro/shopassist/internal/domain"
	"github.com/vbonduro/shopassist/internal/metrics"
	"github.com/vbonduro/shopassist/internal/newsletter"
	"github.com/vbonduro/shopassist/internal/site"
	"github.com/vbonduro/shopassist/internal/storage"
	"github.com/vbonduro/shopassist/internal/voice"
)

// Settings are the non-secret deployment values shown on the admin settings
// page and used to build the voice embed.
type Settings struct {
	BackendURL        string
	ChatBackend       string
	VoiceServiceURL   string
	NewsletterEnabled bool
	FirebaseProjectID string
	SecureCookies     bool
}

type Deps struct {
	Site       *site.Service
	Chat       *chat.Conversations
	Newsletter *newsletter.Client
	Admin      *admin.Registry
	Store      *storage.Store
	Metrics    *metrics.Metrics
}

type Server struct {
	Deps
	settings  Settings
	templates fs.FS
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

func NewServer(deps Deps, settings Settings, tmpl fs.FS, logger *slog.Logger) *Server {
	s := &Server{
		Deps:      deps,
		settings:  settings,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"humanTime": humanize.Time,
			"humanBytes": func(n int64) string {
				if n < 0 {
					return "0 B"
				}
				return humanize.Bytes(uint64(n))
			},
			"dateInput": func(t *time.Time) string {
				if t == nil {
					return ""
				}
				return t.UTC().Format("2006-01-02T15:04")
			},
			"join":  strings.Join,
			"title": statusTitle,
			"roles": func() []string { return domain.UserRoles },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /blog", s.handleBlogIndex)
	s.mux.HandleFunc("GET /blog/{slug}", s.handleBlogPost)
	s.mux.HandleFunc("POST /demo", s.handleBookDemo)
	s.mux.HandleFunc("POST /newsletter", s.handleNewsletter)
	s.mux.HandleFunc("GET /voice", s.handleVoice)
	s.mux.HandleFunc("POST /theme", s.handleToggleTheme)
	s.mux.HandleFunc("GET /chat", s.handleChatTranscript)
	s.mux.HandleFunc("POST /chat", s.handleChatAsk)
	s.mux.HandleFunc("POST /chat/retry", s.handleChatRetry)
	s.mux.HandleFunc("POST /chat/reset", s.handleChatReset)
	s.mux.Handle("GET /metrics", s.Metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.mux.HandleFunc("GET /admin/login", s.handleLoginPage)
	s.mux.HandleFunc("POST /admin/login", s.handleLogin)
	s.mux.HandleFunc("POST /admin/logout", s.handleLogout)

	s.mux.Handle("GET /admin", s.requireAdmin(s.handleDashboard))
	s.mux.Handle("GET /admin/settings", s.requireAdmin(s.handleSettings))
	s.mux.Handle("POST /admin/settings/theme", s.requireAdmin(s.handleSettingsTheme))

	registerScreen(s, blogScreen)
	s.mux.Handle("GET /admin/blogs/new", s.requireAdmin(s.handleBlogNew))
	s.mux.Handle("POST /admin/blogs/new", s.requireAdmin(s.handleBlogCreate))
	s.mux.Handle("GET /admin/blogs/{id}/edit", s.requireAdmin(s.handleBlogEdit))
	s.mux.Handle("POST /admin/blogs/{id}/edit", s.requireAdmin(s.handleBlogUpdate))

	registerScreen(s, bookingScreen)
	s.mux.Handle("GET /admin/demo-bookings/{id}", s.requireAdmin(s.handleBookingModal))
	s.mux.Handle("POST /admin/demo-bookings/{id}", s.requireAdmin(s.handleBookingSave))

	registerScreen(s, mediaScreen)
	s.mux.Handle("POST /admin/media", s.requireAdmin(s.handleMediaUpload))

	registerScreen(s, userScreen)
	s.mux.Handle("POST /admin/users/{id}/role", s.requireAdmin(s.handleUserRole))
}

// securityHeaders adds defensive HTTP response headers to every response.
// The voice agent origin is the only allowed frame source.
func securityHeaders(frameSrc string, next http.Handler) http.Handler {
	csp := "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
		"font-src https://fonts.gstatic.com; " +
		"img-src 'self' data: https:; " +
		"connect-src 'self'"
	if frameSrc != "" {
		csp += "; frame-src " + frameSrc
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", csp)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger logs each request and records it under the matched route
// pattern, which ServeMux sets on r while routing.
func requestLogger(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		m.ObserveRequest(r.Method, route, rec.status, elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.deviceCookie(requestLogger(s.logger, s.Metrics,
		securityHeaders(voice.Origin(s.settings.VoiceServiceURL), s.mux))).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	return s.render(w, http.StatusOK, "base", data, files...)
}

// renderPartial parses and executes a single named partial template.
// The file must contain exactly one {{define "name"}}...{{end}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	return s.renderPartialStatus(w, http.StatusOK, file, data)
}

func (s *Server) renderPartialStatus(w http.ResponseWriter, status int, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	// ParseFS registers both the file-basename template and any {{define}} blocks.
	// Find the {{define}} template: it is the one whose name is neither "" nor
	// the file basename.
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	name := basename
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			name = n
			break
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, name, data)
}

// render executes the template called name from the given files.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, name, data)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends HTMX clients an HX-Redirect and everyone else a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// statusTitle turns "pending" into "Pending".
func statusTitle(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
