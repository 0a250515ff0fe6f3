package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/lynx-sync-agent/internal/api"
	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/remote"
	"github.com/stacklok/lynx-sync-agent/internal/status"
	pkgsync "github.com/stacklok/lynx-sync-agent/internal/sync"
	"github.com/stacklok/lynx-sync-agent/internal/sync/coordinator"
	"github.com/stacklok/lynx-sync-agent/internal/telemetry"
	"github.com/stacklok/lynx-sync-agent/internal/versions"
	"github.com/stacklok/lynx-sync-agent/internal/watcher"
)

const (
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second

	// syncTracerName names the tracer used for sync operation spans
	syncTracerName = "github.com/stacklok/lynx-sync-agent/sync"
)

// AgentAppOptions is a function that configures the agent app builder
type AgentAppOptions func(*agentAppConfig) error

// agentAppConfig collects everything needed to build an AgentApp.
// It supports dependency injection for testing while providing sensible defaults for production
type agentAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	syncManager    pkgsync.Manager
	watcherFactory watcher.Factory
	telemetry      *telemetry.Telemetry
	logger         *slog.Logger
	heartbeat      time.Duration

	// HTTP server options. An empty address falls back to the status server
	// section of the configuration.
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	idleTimeout    time.Duration
	streamInterval time.Duration
}

func baseConfig(opts ...AgentAppOptions) (*agentAppConfig, error) {
	cfg := &agentAppConfig{
		requestTimeout: api.DefaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewAgentApp builds the sync agent: status tracking, the sync coordinator
// and, when enabled, the local status API
func NewAgentApp(
	ctx context.Context,
	opts ...AgentAppOptions,
) (*AgentApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx,
			telemetry.WithTelemetryConfig(cfg.config.Telemetry),
			telemetry.WithServiceVersion(versions.GetVersionInfo().Version),
			telemetry.WithCompetition(cfg.config.CompetitionID),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	components := buildStatusComponents(cfg)
	components.Telemetry = cfg.telemetry

	components.SyncCoordinator, err = buildSyncComponents(cfg, components)
	if err != nil {
		components.Hub.Close()
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	var httpServer *http.Server
	if cfg.serveStatus() {
		httpServer, err = buildHTTPServer(cfg, components)
		if err != nil {
			components.Hub.Close()
			return nil, fmt.Errorf("failed to build HTTP server: %w", err)
		}
	}

	appCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	heartbeat := cfg.heartbeat
	if heartbeat <= 0 {
		heartbeat = coordinator.DefaultHeartbeat
	}

	return &AgentApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		logger:     cfg.logger,
		heartbeat:  heartbeat,
		ready:      make(chan struct{}),
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the status API address and enables the status API
func WithAddress(addr string) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not valid: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithWatcherFactory allows injecting a custom directory watcher (for testing)
func WithWatcherFactory(f watcher.Factory) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		cfg.watcherFactory = f
		return nil
	}
}

// WithTelemetry uses already initialized telemetry providers
func WithTelemetry(t *telemetry.Telemetry) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithLogger sets the process logger. Session records are additionally
// forwarded to the status log stream.
func WithLogger(logger *slog.Logger) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		cfg.logger = logger
		return nil
	}
}

// WithStreamInterval sets how often /events pushes the status without a change
func WithStreamInterval(d time.Duration) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("stream interval must be positive")
		}
		cfg.streamInterval = d
		return nil
	}
}

// WithHeartbeat sets how often the status is republished, with or without a session
func WithHeartbeat(d time.Duration) AgentAppOptions {
	return func(cfg *agentAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("heartbeat must be positive")
		}
		cfg.heartbeat = d
		return nil
	}
}

// serveStatus reports whether the status API should listen
func (b *agentAppConfig) serveStatus() bool {
	if b.address != "" {
		return true
	}
	return b.config.StatusServer != nil && b.config.StatusServer.Enabled
}

// listenAddress returns the explicit address or the configured one
func (b *agentAppConfig) listenAddress() string {
	if b.address != "" {
		return b.address
	}
	return b.config.StatusServer.GetAddress()
}

// buildStatusComponents wires the tracker to its observers: the hub for live
// subscribers and, when configured, the snapshot file
func buildStatusComponents(b *agentAppConfig) *AppComponents {
	hub := status.NewHub(0)
	tracker := status.NewTracker(hub)

	if b.config.StatusFile != "" {
		tracker.AddObserver(status.NewFileStore(b.config.StatusFile, b.logger))
		b.logger.Info("Status snapshots enabled", "path", b.config.StatusFile)
	}

	return &AppComponents{
		Tracker: tracker,
		Hub:     hub,
	}
}

// buildSyncComponents builds sync manager, coordinator, and related components
func buildSyncComponents(
	b *agentAppConfig,
	components *AppComponents,
) (coordinator.Coordinator, error) {
	b.logger.Debug("Initializing sync components")

	// Everything the session logs also reaches the host log stream
	sessionLogger := slog.New(status.NewLogHandler(b.logger.Handler(), components.Tracker, slog.LevelInfo))

	syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}

	if b.syncManager == nil {
		tracerProvider := b.telemetry.TracerProvider()
		b.syncManager = pkgsync.NewDefaultSyncManager(
			pkgsync.WithLogger(sessionLogger),
			pkgsync.WithTracer(b.telemetry.Tracer(syncTracerName)),
			pkgsync.WithSyncMetrics(syncMetrics),
			pkgsync.WithClientFactory(func(cfg *config.Config) remote.Client {
				return remote.NewClient(cfg.ServerURL, cfg.APIKey,
					remote.WithLogger(sessionLogger),
					remote.WithTracerProvider(tracerProvider),
				)
			}),
		)
	}

	coordOpts := []coordinator.Option{
		coordinator.WithLogger(sessionLogger),
		coordinator.WithSyncMetrics(syncMetrics),
		coordinator.WithWatcherFactory(b.watcherFactory),
	}
	if b.heartbeat > 0 {
		coordOpts = append(coordOpts, coordinator.WithHeartbeat(b.heartbeat))
	}

	syncCoordinator := coordinator.New(b.syncManager, components.Tracker, b.config, coordOpts...)
	b.logger.Debug("Sync components initialized")

	return syncCoordinator, nil
}

// buildHTTPServer builds the status API server with router and middleware
func buildHTTPServer(
	b *agentAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			api.LoggingMiddleware(b.logger),
		}
	}

	// Metrics and tracing wrap everything else so rejected requests are counted too
	metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	outer := []func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.telemetry.TracerProvider())}
	if metricsMiddleware != nil {
		outer = append([]func(http.Handler) http.Handler{metricsMiddleware}, outer...)
	}
	b.middlewares = append(outer, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithRequestTimeout(b.requestTimeout),
		api.WithLogger(b.logger),
	}
	if h := b.telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
	}
	if b.streamInterval > 0 {
		serverOpts = append(serverOpts, api.WithStreamInterval(b.streamInterval))
	}

	router := api.NewServer(components.SyncCoordinator, components.Hub, serverOpts...)

	// No write timeout: /events streams for as long as the client stays
	server := &http.Server{
		Addr:              b.listenAddress(),
		Handler:           router,
		ReadTimeout:       b.readTimeout,
		ReadHeaderTimeout: b.readTimeout,
		IdleTimeout:       b.idleTimeout,
	}

	b.logger.Info("Status API configured", "address", server.Addr)
	return server, nil
}
