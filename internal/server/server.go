package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/config"
	"github.com/hongminglow/jobportal-be/internal/http/handlers"
	"github.com/hongminglow/jobportal-be/internal/http/respond"
	"github.com/hongminglow/jobportal-be/internal/jobs"
	"github.com/hongminglow/jobportal-be/internal/middleware"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth     *auth.Service
	Jobs     *jobs.Service
	Health   handlers.Pinger
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewRouter builds the full route table.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	metrics := middleware.NewMetrics(deps.Registry)

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.AccessLog(deps.Logger),
		metrics.Handler,
		chimw.Recoverer,
		middleware.CORS(cfg.CORSOrigins),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, apperr.KindNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	guard := middleware.RequireAuth(deps.Auth)
	handlers.NewHealthHandler(time.Now(), deps.Health).Register(r)
	handlers.NewAuthHandler(deps.Auth, deps.Logger).Register(r, guard)
	handlers.NewJobsHandler(deps.Jobs, deps.Logger).Register(r, guard)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
