// Package web provides the HTTP server and handlers for the CSV explorer.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/csvexplorer/internal/config"
	"github.com/JonMunkholm/csvexplorer/internal/core"
	mw "github.com/JonMunkholm/csvexplorer/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

// Server is the HTTP server for the explorer.
type Server struct {
	service  *core.Service
	sessions *core.SessionStore
	cookies  *sessions.CookieStore
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server

	limiter       *mw.RateLimiter
	uploadLimiter *mw.RateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, store *core.SessionStore, cfg *config.Config) *Server {
	cookies := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		service:  service,
		sessions: store,
		cookies:  cookies,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute)
		s.uploadLimiter = mw.NewRateLimiter(cfg.Rate.UploadLimit)
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "text/html", "application/json"))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware(s.rejectRateLimited))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)

		// Page and form posts
		r.Get("/", s.handlePage)
		r.Route("/ui", func(r chi.Router) {
			r.With(s.uploadRateLimit).Post("/upload", s.handleUIUpload)
			r.Post("/select", s.handleUISelect)
			r.Post("/rows/delete", s.handleUIDelete)
			r.Post("/rows/{index}/edit", s.handleUIEdit)
		})

		// API routes
		r.Route("/api", func(r chi.Router) {
			r.With(s.uploadRateLimit).Post("/files", s.handleUpload)
			r.Get("/files", s.handleListFiles)
			r.Post("/files/{name}/select", s.handleSelect)

			r.Get("/table", s.handleTable)
			r.Get("/table/rows/{index}", s.handleGetRow)
			r.Delete("/table/rows/{index}", s.handleDeleteRow)
			r.Patch("/table/rows/{index}", s.handleEditRow)

			r.Get("/charts", s.handlePlan)
			r.Get("/charts/{n}.png", s.handleChartPNG)

			r.Get("/export", s.handleExport)
		})
	})
}

// uploadRateLimit applies the stricter upload limit.
func (s *Server) uploadRateLimit(next http.Handler) http.Handler {
	if s.uploadLimiter == nil {
		return next
	}
	return s.uploadLimiter.Middleware(s.rejectRateLimited)(next)
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, core.ErrRateLimited, http.StatusTooManyRequests)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// RunBackground starts the janitors that expire sessions and forget idle
// rate-limit clients. They stop when ctx is done.
func (s *Server) RunBackground(ctx context.Context) {
	go s.sessions.Run(ctx, s.cfg.Session.SweepInterval)
	if s.limiter != nil {
		go s.limiter.Run(ctx)
		go s.uploadLimiter.Run(ctx)
	}
}

// Shutdown stops accepting requests, then waits for in-flight parses.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.service.Limiter().WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"parses":   s.service.Limiter().Status(),
		"time":     time.Now().UTC(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// Inline styles only; no scripts.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
