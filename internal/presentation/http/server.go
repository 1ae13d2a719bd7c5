package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/Malamih/Rara-studio-api/internal/domain/pages"
)

// HealthChecker reports whether the page store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP server wiring.
type Options struct {
	PageService pages.Service
	Health      HealthChecker
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
	AdminToken  string
	CORSOrigin  string
	Version     string
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the JSON API via Huma on top of net/http.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	handler     stdhttp.Handler
	pages       pages.Service
	health      HealthChecker
	logger      *logrus.Logger
	sentry      *sentry.Hub
	rateLimiter *RateLimiter
	adminToken  string
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.PageService == nil {
		return nil, eris.New("page service is required")
	}

	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Rara Studio API", version)
	config.Info.Description = "Editable page content for the Rara studio website."

	api := humago.New(mux, config)

	srv := &Server{
		api:        api,
		mux:        mux,
		pages:      opts.PageService,
		health:     opts.Health,
		logger:     opts.Logger,
		sentry:     opts.SentryHub,
		adminToken: strings.TrimSpace(opts.AdminToken),
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)

	srv.registerMiddlewares()
	srv.registerRoutes()

	srv.handler = withCORS(mux, opts.CORSOrigin)

	return srv, nil
}

// Handler exposes the HTTP handler, CORS included, for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.handler
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.adminAuthMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerGetPageRoute()
	s.registerUpdatePageRoute()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.handler.ServeHTTP(w, r)
}

func withCORS(next stdhttp.Handler, origin string) stdhttp.Handler {
	origins := []string{"*"}
	if trimmed := strings.TrimSpace(origin); trimmed != "" {
		origins = strings.Split(trimmed, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{stdhttp.MethodGet, stdhttp.MethodPut, stdhttp.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         600,
	}).Handler(next)
}
