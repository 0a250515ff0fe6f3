package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/queue"
	"github.com/stacklok/lynx-sync-agent/internal/status"
	pkgsync "github.com/stacklok/lynx-sync-agent/internal/sync"
	"github.com/stacklok/lynx-sync-agent/internal/telemetry"
	"github.com/stacklok/lynx-sync-agent/internal/watcher"
)

// DefaultHeartbeat is how often the status is republished while a session runs
const DefaultHeartbeat = time.Second

var (
	// ErrSessionActive is returned when an operation requires an idle agent
	ErrSessionActive = errors.New("sync session is already running")

	// ErrSessionInactive is returned when an operation requires a running session
	ErrSessionInactive = errors.New("sync session is not running")
)

// Coordinator runs a sync session: it watches the result directory, queues
// changed files, uploads them on every drain tick and keeps the exported
// start lists current. All session work happens on one goroutine.
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks github.com/stacklok/lynx-sync-agent/internal/sync/coordinator Coordinator
type Coordinator interface {
	// Start validates the configuration, checks connectivity and starts the
	// session loop. It returns once the session is running.
	Start(ctx context.Context) error

	// Stop ends the session and waits for the loop to exit. Stopping an idle
	// coordinator is a no-op.
	Stop() error

	// Enqueue queues a result file, replacing any entry for the same path
	Enqueue(ctx context.Context, path string) error

	// ProcessQueue drains the queue immediately
	ProcessQueue(ctx context.Context) error

	// SyncStartLists exports the start lists immediately
	SyncStartLists(ctx context.Context) error

	// Status returns a copy of the current status
	Status() status.SyncStatus

	// Reload replaces the configuration. It fails while a session runs.
	Reload(cfg *config.Config) error

	// Config returns a copy of the current configuration
	Config() *config.Config

	// IsRunning reports whether a session is active
	IsRunning() bool
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager        pkgsync.Manager
	tracker        *status.Tracker
	watcherFactory watcher.Factory
	logger         *slog.Logger
	syncMetrics    *telemetry.SyncMetrics
	now            func() time.Time
	heartbeat      time.Duration

	// lifecycleMu serializes Start, Stop and Reload
	lifecycleMu gosync.Mutex
	cfg         *config.Config

	sessionMu gosync.RWMutex
	session   *session
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithLogger sets the logger. Records logged here are what the host sees in
// its log stream when the logger tees into the status hub.
func WithLogger(logger *slog.Logger) Option {
	return func(c *defaultCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWatcherFactory overrides how the result directory is watched
func WithWatcherFactory(factory watcher.Factory) Option {
	return func(c *defaultCoordinator) {
		if factory != nil {
			c.watcherFactory = factory
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *defaultCoordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHeartbeat sets how often the status is republished during a session
func WithHeartbeat(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.heartbeat = d
		}
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	tracker *status.Tracker,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	if cfg == nil {
		cfg = config.Default()
	}
	if tracker == nil {
		tracker = status.NewTracker()
	}

	c := &defaultCoordinator{
		manager:        manager,
		tracker:        tracker,
		watcherFactory: watcher.NewSource,
		logger:         slog.Default(),
		now:            time.Now,
		heartbeat:      DefaultHeartbeat,
		cfg:            cfg.Clone(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins a sync session
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.IsRunning() {
		return ErrSessionActive
	}

	cfg := c.cfg.Clone()
	if err := cfg.Validate(); err != nil {
		c.logger.Error("Cannot start sync session", "error", err)
		c.tracker.Update(func(s *status.SyncStatus) {
			s.LastError = err.Error()
		})
		return err
	}

	c.logger.Info("Starting sync session",
		"server", cfg.ServerURL,
		"competition", cfg.CompetitionID,
		"result_dir", cfg.OutputDir,
		"start_list_dir", cfg.InputDir)

	c.tracker.Update(func(s *status.SyncStatus) {
		s.ConnectionStatus = status.ConnectionConnecting
	})

	if probeErr := c.manager.Probe(ctx, cfg); probeErr != nil {
		c.logger.Error("Cannot reach competition server", "server", cfg.ServerURL, "error", probeErr.Message)
		c.tracker.Update(func(s *status.SyncStatus) {
			s.ConnectionStatus = status.ConnectionError
			s.MonitorStatus = status.MonitorError
			s.LastError = probeErr.Message
		})
		return probeErr
	}

	source, err := c.watcherFactory(cfg.OutputDir, cfg.ResultExtension, c.logger)
	if err != nil {
		watchErr := &pkgsync.Error{
			Err:     err,
			Message: fmt.Sprintf("Cannot watch result directory %s: %v", cfg.OutputDir, err),
			Kind:    pkgsync.KindFilesystem,
		}
		c.logger.Error("Cannot watch result directory", "dir", cfg.OutputDir, "error", err)
		c.tracker.Update(func(s *status.SyncStatus) {
			s.ConnectionStatus = status.ConnectionConnected
			s.MonitorStatus = status.MonitorError
			s.LastError = watchErr.Message
		})
		return watchErr
	}

	// The session outlives the caller's context; a request that starts the
	// session must not end it when the request completes.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{
		id:       uuid.NewString(),
		cfg:      cfg,
		source:   source,
		queue:    queue.New(queue.WithClock(c.now), queue.WithMaxAttempts(cfg.MaxUploadAttempts)),
		requests: make(chan request),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	c.tracker.Update(func(st *status.SyncStatus) {
		st.IsRunning = true
		st.ConnectionStatus = status.ConnectionConnected
		st.MonitorStatus = status.MonitorActive
		st.SessionID = s.id
		st.LastError = ""
		st.QueuedFiles = s.queue.Snapshot()
	})

	c.sessionMu.Lock()
	c.session = s
	c.sessionMu.Unlock()

	go c.run(loopCtx, s)

	c.logger.Info("Sync session started",
		"session_id", s.id,
		"sync_interval", cfg.SyncIntervalDuration(),
		"start_list_interval", cfg.StartListIntervalDuration())
	return nil
}

// Stop gracefully stops the session
func (c *defaultCoordinator) Stop() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	c.sessionMu.Lock()
	s := c.session
	c.session = nil
	c.sessionMu.Unlock()

	if s == nil {
		return nil
	}

	c.logger.Info("Stopping sync session", "session_id", s.id)
	s.cancel()
	<-s.done

	var closeErr error
	if err := s.source.Close(); err != nil {
		closeErr = fmt.Errorf("failed to close directory watcher: %w", err)
		c.logger.Warn("Failed to close directory watcher", "error", err)
	}

	c.tracker.Update(func(st *status.SyncStatus) {
		st.IsRunning = false
		st.ConnectionStatus = status.ConnectionDisconnected
		st.MonitorStatus = status.MonitorInactive
		st.QueuedFiles = s.queue.Snapshot()
	})
	c.logger.Info("Sync session stopped", "session_id", s.id)
	return closeErr
}

// Enqueue queues a result file through the session loop
func (c *defaultCoordinator) Enqueue(ctx context.Context, path string) error {
	return c.call(ctx, request{op: opEnqueue, path: path})
}

// ProcessQueue drains the queue through the session loop
func (c *defaultCoordinator) ProcessQueue(ctx context.Context) error {
	return c.call(ctx, request{op: opDrain})
}

// SyncStartLists exports the start lists through the session loop
func (c *defaultCoordinator) SyncStartLists(ctx context.Context) error {
	return c.call(ctx, request{op: opStartLists})
}

// Status returns a copy of the current status
func (c *defaultCoordinator) Status() status.SyncStatus {
	return c.tracker.Snapshot()
}

// Reload replaces the configuration used by the next session
func (c *defaultCoordinator) Reload(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}

	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.IsRunning() {
		return ErrSessionActive
	}
	c.cfg = cfg.Clone()
	c.logger.Info("Configuration reloaded", "competition", cfg.CompetitionID)
	return nil
}

// Config returns a copy of the current configuration
func (c *defaultCoordinator) Config() *config.Config {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	return c.cfg.Clone()
}

// IsRunning reports whether a session is active
func (c *defaultCoordinator) IsRunning() bool {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session != nil
}

// call hands req to the session loop and waits for the outcome
func (c *defaultCoordinator) call(ctx context.Context, req request) error {
	c.sessionMu.RLock()
	s := c.session
	c.sessionMu.RUnlock()
	if s == nil {
		return ErrSessionInactive
	}

	req.reply = make(chan error, 1)
	select {
	case s.requests <- req:
	case <-s.done:
		return ErrSessionInactive
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-s.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrSessionInactive
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
