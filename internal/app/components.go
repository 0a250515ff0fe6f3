package app

import (
	"github.com/stacklok/lynx-sync-agent/internal/status"
	"github.com/stacklok/lynx-sync-agent/internal/sync/coordinator"
	"github.com/stacklok/lynx-sync-agent/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator runs sync sessions
	SyncCoordinator coordinator.Coordinator

	// Tracker holds the current status
	Tracker *status.Tracker

	// Hub fans status snapshots and log entries out to subscribers
	Hub *status.Hub

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry
}
