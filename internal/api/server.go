// Package api provides the HTTP API server and handlers for the library loan service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/librarykit/loan-server/internal/http/response"
	"github.com/librarykit/loan-server/internal/ratelimit"
	"github.com/librarykit/loan-server/internal/service"
	"github.com/librarykit/loan-server/internal/store"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Book *service.BookService
	Loan *service.LoanService
}

// Options holds the transport settings of the server.
type Options struct {
	// CORSAllowedOrigins lists the origins allowed to call the API from a browser.
	CORSAllowedOrigins []string
	// RateLimiter limits requests per client IP. Nil disables rate limiting.
	RateLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	router   *chi.Mux
	api      huma.API
	opts     Options
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:    st,
		services: services,
		router:   chi.NewRouter(),
		opts:     opts,
		logger:   logger,
	}

	s.setupMiddleware()

	s.api = humachi.New(s.router, newHumaConfig())
	RegisterErrorHandler(logger)

	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerLoanRoutes()

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "The requested URL was not found on the server", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "The method is not allowed for the requested URL", s.logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// newHumaConfig returns the OpenAPI config. Responses are bare JSON documents, so
// the $schema link transformer is left out, and JSON goes through json-iterator.
func newHumaConfig() huma.Config {
	cfg := huma.DefaultConfig("Library Loans API", "1.0.0")
	cfg.Info.Description = "Books and loans of a small library."
	cfg.CreateHooks = nil
	cfg.Transformers = nil
	cfg.Formats = map[string]huma.Format{
		"application/json": jsonFormat,
		"json":             jsonFormat,
	}
	return cfg
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	s.router.Use(corsHandler(s.opts.CORSAllowedOrigins))
	if s.opts.RateLimiter != nil {
		s.router.Use(RateLimitMiddleware(s.opts.RateLimiter, s.logger))
	}
}
