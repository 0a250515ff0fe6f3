package status

import (
	"time"

	"github.com/stacklok/lynx-sync-agent/internal/queue"
)

// ConnectionState is the state of the link to the competition platform
type ConnectionState string

const (
	// ConnectionDisconnected means no session is running
	ConnectionDisconnected ConnectionState = "disconnected"

	// ConnectionConnecting means the probe is in flight
	ConnectionConnecting ConnectionState = "connecting"

	// ConnectionConnected means the last request reached the server
	ConnectionConnected ConnectionState = "connected"

	// ConnectionError means the last request failed
	ConnectionError ConnectionState = "error"
)

// MonitorState is the state of the result directory watch
type MonitorState string

const (
	// MonitorInactive means the directory is not watched
	MonitorInactive MonitorState = "inactive"

	// MonitorActive means the directory is watched
	MonitorActive MonitorState = "active"

	// MonitorError means the session failed to start
	MonitorError MonitorState = "error"
)

// SyncStatus is the status reported to the host
type SyncStatus struct {
	// IsRunning is true while a session is active
	IsRunning bool `json:"isRunning"`

	ConnectionStatus ConnectionState `json:"connectionStatus"`
	MonitorStatus    MonitorState    `json:"monitorStatus"`

	// LastSync is the time of the last successful upload or start list export
	LastSync *time.Time `json:"lastSync"`

	// LastError is the verbatim message of the most recent failure
	LastError string `json:"lastError,omitempty"`

	// ProcessedFiles counts files uploaded during the process lifetime
	ProcessedFiles int `json:"processedFiles"`

	QueuedFiles []queue.Entry `json:"queuedFiles"`

	// SessionID identifies the current or most recent session
	SessionID string `json:"sessionId,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSyncStatus returns the status of an agent that has not started a session
func NewSyncStatus() SyncStatus {
	return SyncStatus{
		ConnectionStatus: ConnectionDisconnected,
		MonitorStatus:    MonitorInactive,
		QueuedFiles:      []queue.Entry{},
	}
}

// Clone returns a deep copy
func (s SyncStatus) Clone() SyncStatus {
	out := s
	if s.LastSync != nil {
		t := *s.LastSync
		out.LastSync = &t
	}
	out.QueuedFiles = make([]queue.Entry, len(s.QueuedFiles))
	copy(out.QueuedFiles, s.QueuedFiles)
	return out
}

// LogLevel is the severity of a log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is a log message forwarded to the host
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Observer receives status snapshots and log entries. Implementations must
// not block; they are called from the agent's sync loop.
type Observer interface {
	OnStatus(SyncStatus)
	OnLog(LogEntry)
}
