// Package server provides HTTP server management and lifecycle handling for the vademecum API.
// It wires middleware and routes onto a chi router and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giygas/vademecum-api/config"
	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/logging"
	"github.com/giygas/vademecum-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	rateLimiter *RateLimiter
	config      *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      gzhttp.GzipHandler(router),
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:      router,
		handler:     handler,
		rateLimiter: NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitCapacity),
		config:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Env == config.EnvProduction {
		s.router.Use(BlockDirectAccessMiddleware) // must see the original RemoteAddr
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "If-None-Match"},
		ExposedHeaders: []string{"ETag", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	s.router.Use(s.rateLimiter.Handler)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/compounds", s.handler.ListCompounds)
		r.Get("/compounds/{id}", s.handler.GetCompound)
		r.Get("/compounds/{id}/brands", s.handler.GetCompoundBrands)
		r.Get("/brands", s.handler.ListBrands)
		r.Get("/brands/{id}", s.handler.GetBrand)
		r.Get("/search", s.handler.Search)
		r.Get("/stats", s.handler.Stats)
	})

	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Ruta no encontrada")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, OPTIONS")
		respondWithError(w, http.StatusMethodNotAllowed, "Método no permitido")
	})
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the server. It blocks until the server stops.
func (s *Server) Start() error {
	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port),
		"env", s.config.Env.String())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
