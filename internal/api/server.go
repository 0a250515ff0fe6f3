// Package api provides the local status API of the sync agent.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v0 "github.com/stacklok/lynx-sync-agent/internal/api/v0"
	"github.com/stacklok/lynx-sync-agent/internal/status"
	"github.com/stacklok/lynx-sync-agent/internal/sync/coordinator"
)

// DefaultRequestTimeout bounds every request except the event stream. It
// covers a session start, which probes the server.
const DefaultRequestTimeout = 60 * time.Second

// ServerOption configures the status API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	streamInterval time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithStreamInterval sets the longest gap between status events on /events
func WithStreamInterval(d time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		cfg.streamInterval = d
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		if d > 0 {
			cfg.requestTimeout = d
		}
	}
}

// WithLogger sets the logger used by handlers
func WithLogger(logger *slog.Logger) ServerOption {
	return func(cfg *serverConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// NewServer creates and configures the HTTP router with the given coordinator and options
func NewServer(coord coordinator.Coordinator, hub *status.Hub, opts ...ServerOption) *chi.Mux {
	// Initialize configuration with defaults
	cfg := &serverConfig{
		middlewares:    []func(http.Handler) http.Handler{},
		streamInterval: v0.DefaultStreamInterval,
		requestTimeout: DefaultRequestTimeout,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	// Apply middleware
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	// The stream stays open for the lifetime of the client
	r.Get("/events", v0.EventsHandler(coord, hub, cfg.streamInterval, cfg.logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.requestTimeout))

		// Mount health and status routes directly at root
		r.Mount("/", v0.HealthRouter(coord))

		r.Mount("/session", v0.SessionRouter(coord, cfg.logger))
		r.Mount("/sync", v0.SyncRouter(coord, cfg.logger))

		if cfg.metricsHandler != nil {
			r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
		}
	})

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
