// Package status tracks the agent's sync status and streams status
// snapshots and log entries to the host.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

// StatusPersistence stores the latest status snapshot
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus stores the snapshot
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus returns the stored snapshot, or a fresh status when none exists
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// FileStore persists snapshots to a JSON file for hosts that poll instead
// of subscribing. It is an Observer: every published snapshot is written.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu          sync.Mutex
	lastWritten time.Time
}

var (
	_ StatusPersistence = (*FileStore)(nil)
	_ Observer          = (*FileStore)(nil)
)

// NewFileStore creates a store writing to path
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the status file path
func (f *FileStore) Path() string {
	return f.path
}

// SaveStatus writes the snapshot to a temporary file and renames it into place
func (f *FileStore) SaveStatus(_ context.Context, status *SyncStatus) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// LoadStatus reads the snapshot. A missing file yields a fresh status.
func (f *FileStore) LoadStatus(_ context.Context) (*SyncStatus, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			s := NewSyncStatus()
			return &s, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var s SyncStatus
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status file: %w", err)
	}
	return &s, nil
}

// OnStatus writes snapshots that changed since the last write
func (f *FileStore) OnStatus(s SyncStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !s.UpdatedAt.IsZero() && s.UpdatedAt.Equal(f.lastWritten) {
		return
	}
	if err := f.SaveStatus(context.Background(), &s); err != nil {
		f.logger.Warn("Failed to persist status", "path", f.path, "error", err)
		return
	}
	f.lastWritten = s.UpdatedAt
}

// OnLog ignores log entries
func (*FileStore) OnLog(LogEntry) {}
