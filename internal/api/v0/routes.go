// Package v0 provides the handlers of the local status API: health and
// version, the status snapshot and its event stream, and the session and
// sync controls.
package v0

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/lynx-sync-agent/internal/api/common"
	"github.com/stacklok/lynx-sync-agent/internal/config"
	pkgsync "github.com/stacklok/lynx-sync-agent/internal/sync"
	"github.com/stacklok/lynx-sync-agent/internal/sync/coordinator"
	"github.com/stacklok/lynx-sync-agent/internal/versions"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ActionResponse is returned by session and sync controls
type ActionResponse struct {
	Message string `json:"message"`
}

// Routes holds the handlers backed by the sync coordinator
type Routes struct {
	coord  coordinator.Coordinator
	logger *slog.Logger
}

// NewRoutes creates a new Routes instance with the provided coordinator
func NewRoutes(coord coordinator.Coordinator, logger *slog.Logger) *Routes {
	if logger == nil {
		logger = slog.Default()
	}
	return &Routes{
		coord:  coord,
		logger: logger,
	}
}

// HealthRouter creates a router for health, version and status endpoints
func HealthRouter(coord coordinator.Coordinator) http.Handler {
	routes := NewRoutes(coord, nil)

	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler)
	r.Get("/status", routes.getStatus)

	return r
}

// SessionRouter creates a router for starting and stopping the sync session
func SessionRouter(coord coordinator.Coordinator, logger *slog.Logger) http.Handler {
	routes := NewRoutes(coord, logger)

	r := chi.NewRouter()

	r.Post("/start", routes.startSession)
	r.Post("/stop", routes.stopSession)

	return r
}

// SyncRouter creates a router for on-demand sync operations
func SyncRouter(coord coordinator.Coordinator, logger *slog.Logger) http.Handler {
	routes := NewRoutes(coord, logger)

	r := chi.NewRouter()

	r.Post("/queue", routes.processQueue)
	r.Post("/start-lists", routes.syncStartLists)

	return r
}

// healthHandler handles GET /health
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// versionHandler handles GET /version
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// getStatus handles GET /status
func (rr *Routes) getStatus(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, rr.coord.Status(), http.StatusOK)
}

// startSession handles POST /session/start
func (rr *Routes) startSession(w http.ResponseWriter, r *http.Request) {
	if err := rr.coord.Start(r.Context()); err != nil {
		rr.writeError(w, "start session", err)
		return
	}
	common.WriteJSONResponse(w, rr.coord.Status(), http.StatusOK)
}

// stopSession handles POST /session/stop
func (rr *Routes) stopSession(w http.ResponseWriter, _ *http.Request) {
	if err := rr.coord.Stop(); err != nil {
		rr.writeError(w, "stop session", err)
		return
	}
	common.WriteJSONResponse(w, rr.coord.Status(), http.StatusOK)
}

// processQueue handles POST /sync/queue
func (rr *Routes) processQueue(w http.ResponseWriter, r *http.Request) {
	if err := rr.coord.ProcessQueue(r.Context()); err != nil {
		rr.writeError(w, "process queue", err)
		return
	}
	common.WriteJSONResponse(w, ActionResponse{Message: "Queue processed"}, http.StatusOK)
}

// syncStartLists handles POST /sync/start-lists
func (rr *Routes) syncStartLists(w http.ResponseWriter, r *http.Request) {
	if err := rr.coord.SyncStartLists(r.Context()); err != nil {
		rr.writeError(w, "sync start lists", err)
		return
	}
	common.WriteJSONResponse(w, ActionResponse{Message: "Start lists exported"}, http.StatusOK)
}

// writeError maps coordinator and sync errors to HTTP status codes
func (rr *Routes) writeError(w http.ResponseWriter, op string, err error) {
	code := http.StatusInternalServerError
	kind := pkgsync.KindOf(err)

	switch {
	case errors.Is(err, coordinator.ErrSessionActive), errors.Is(err, coordinator.ErrSessionInactive):
		code = http.StatusConflict
		kind = ""
	case config.IsValidationError(err):
		code = http.StatusUnprocessableEntity
	case kind == pkgsync.KindConnectivity, kind == pkgsync.KindServer:
		code = http.StatusBadGateway
	}

	rr.logger.Warn("Status API request failed", "op", op, "status_code", code, "error", err)
	common.WriteKindErrorResponse(w, err.Error(), string(kind), code)
}
