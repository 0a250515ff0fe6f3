// Package app provides application lifecycle management for the sync agent.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/status"
	"github.com/stacklok/lynx-sync-agent/internal/sync/coordinator"
)

// AgentApp encapsulates all components needed to run the sync agent.
// It provides lifecycle management and graceful shutdown capabilities
type AgentApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
	logger     *slog.Logger
	heartbeat  time.Duration

	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}
	idle  sync.WaitGroup

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts a sync session when autoSync is set and serves the status
// API. It blocks until Stop is called or the server fails.
func (app *AgentApp) Start() error {
	app.idle.Add(1)
	go app.idleHeartbeat()

	if app.config.AutoSync {
		// A failed start is recorded in the status; the host can retry
		// through the status API.
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			app.logger.Error("Sync session did not start", "error", err)
		}
	}

	if app.httpServer == nil {
		close(app.ready)
		<-app.ctx.Done()
		return nil
	}

	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		close(app.ready)
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.mu.Lock()
	app.addr = ln.Addr()
	app.mu.Unlock()
	close(app.ready)

	app.logger.Info("Status API listening", "address", ln.Addr().String())
	if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// It stops the sync session and then shuts down the HTTP server
func (app *AgentApp) Stop(timeout time.Duration) error {
	app.logger.Info("Shutting down sync agent")

	var errs []error
	if err := app.components.SyncCoordinator.Stop(); err != nil {
		app.logger.Error("Failed to stop sync session", "error", err)
	}

	// Cancel the application context
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
	app.idle.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Subscribers must be gone before the server waits on open streams
	app.components.Hub.Close()

	if app.httpServer != nil {
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
	}

	if app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown telemetry: %w", err))
		}
	}

	app.logger.Info("Sync agent stopped")
	return errors.Join(errs...)
}

// idleHeartbeat republishes the status while no session runs, so observers
// keep receiving it between sessions. A running session publishes its own.
func (app *AgentApp) idleHeartbeat() {
	defer app.idle.Done()

	ticker := time.NewTicker(app.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			if !app.components.SyncCoordinator.IsRunning() {
				app.components.Tracker.Publish()
			}
		}
	}
}

// Ready is closed once Start has bound the listener or failed to
func (app *AgentApp) Ready() <-chan struct{} {
	return app.ready
}

// Addr returns the bound status API address, or "" before Start binds it
func (app *AgentApp) Addr() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.addr == nil {
		return ""
	}
	return app.addr.String()
}

// GetConfig returns the application configuration
func (app *AgentApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server, or nil when the status API is disabled
func (app *AgentApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Coordinator returns the sync coordinator
func (app *AgentApp) Coordinator() coordinator.Coordinator {
	return app.components.SyncCoordinator
}

// Hub returns the status hub for in-process subscribers
func (app *AgentApp) Hub() *status.Hub {
	return app.components.Hub
}
