package v0

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/lynx-sync-agent/internal/status"
	"github.com/stacklok/lynx-sync-agent/internal/sync/coordinator"
)

// DefaultStreamInterval is the longest gap between two status events on the stream
const DefaultStreamInterval = time.Second

// Stream event names
const (
	EventStatus = "status"
	EventLog    = "log"
)

// EventsHandler serves GET /events as a server-sent event stream. The
// current status is sent on connect, then every status change and log entry
// published on the hub, and the status again whenever interval passes.
func EventsHandler(coord coordinator.Coordinator, hub *status.Hub, interval time.Duration, logger *slog.Logger) http.HandlerFunc {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)

		events, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func(name string, data any) bool {
			if err := writeEvent(w, name, data); err != nil {
				logger.Debug("Event stream closed", "error", err)
				return false
			}
			if err := rc.Flush(); err != nil {
				logger.Debug("Event stream cannot be flushed", "error", err)
				return false
			}
			return true
		}

		if !send(EventStatus, coord.Status()) {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			var ok bool
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-events:
				if !open {
					return
				}
				switch ev.Type {
				case status.EventStatus:
					ok = send(EventStatus, ev.Status)
				case status.EventLog:
					ok = send(EventLog, ev.Log)
				default:
					ok = true
				}
			case <-ticker.C:
				ok = send(EventStatus, coord.Status())
			}
			if !ok {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
