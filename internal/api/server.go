// Package api provides the HTTP API server and handlers for the Inkwell archive.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkwellarchive/inkwell-server/internal/config"
	"github.com/inkwellarchive/inkwell-server/internal/ratelimit"
	"github.com/inkwellarchive/inkwell-server/internal/service"
	"github.com/inkwellarchive/inkwell-server/internal/store"
	"github.com/inkwellarchive/inkwell-server/internal/validation"
)

// Reindexer triggers and awaits index convergence. The server depends on
// this interface rather than the coordinator so tests can stub it.
type Reindexer interface {
	Drain()
}

// Services groups the business logic services used by the API server.
type Services struct {
	Search  *service.SearchService
	Reindex Reindexer
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	services *Services
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
	validate *validation.Validator

	searchCfg     config.SearchConfig
	searchLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, searchCfg config.SearchConfig, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("Inkwell Archive API", "1.0.0")
	RegisterErrorHandler()

	s := &Server{
		store:         st,
		services:      services,
		router:        router,
		logger:        logger,
		validate:      validation.New(),
		searchCfg:     searchCfg,
		searchLimiter: ratelimit.New(searchCfg.RateLimitRPS, searchCfg.RateLimitBurst),
	}

	// chi requires the full middleware stack before any route is mounted,
	// and creating the huma API mounts its schema routes on the router.
	s.setupMiddleware()
	s.api = humachi.New(router, humaConfig)

	s.registerHealthRoutes()
	s.registerSearchRoutes()
	s.registerAdminRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases handler-level resources.
func (s *Server) Close() {
	s.searchLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.rateLimitSearch)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// HealthResponse reports server health.
type HealthResponse struct {
	Status    string `json:"status" doc:"Server health status"`
	Documents uint64 `json:"documents" doc:"Number of indexed documents"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, s.handleHealth)
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	count, err := s.services.Search.DocumentCount()
	if err != nil {
		s.logger.Error("Failed to count documents", "error", err)
		return nil, err
	}

	return &HealthOutput{Body: HealthResponse{
		Status:    "healthy",
		Documents: count,
	}}, nil
}
