package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/lynx-sync-agent/internal/queue"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "status.json")
	store := NewFileStore(path, nil)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	saved := &SyncStatus{
		IsRunning:        true,
		ConnectionStatus: ConnectionConnected,
		MonitorStatus:    MonitorActive,
		LastSync:         &now,
		ProcessedFiles:   3,
		QueuedFiles: []queue.Entry{
			{Path: "/results/001-1-01.lif", Kind: queue.KindResult, EnqueuedAt: now, Processed: true},
		},
		SessionID: "abc",
	}

	ctx := context.Background()
	require.NoError(t, store.SaveStatus(ctx, saved))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed")

	loaded, err := store.LoadStatus(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.IsRunning)
	assert.Equal(t, ConnectionConnected, loaded.ConnectionStatus)
	assert.Equal(t, MonitorActive, loaded.MonitorStatus)
	require.NotNil(t, loaded.LastSync)
	assert.True(t, now.Equal(*loaded.LastSync))
	assert.Equal(t, 3, loaded.ProcessedFiles)
	require.Len(t, loaded.QueuedFiles, 1)
	assert.Equal(t, "/results/001-1-01.lif", loaded.QueuedFiles[0].Path)
}

func TestFileStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"), nil)
	loaded, err := store.LoadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ConnectionDisconnected, loaded.ConnectionStatus)
	assert.Equal(t, MonitorInactive, loaded.MonitorStatus)
	assert.False(t, loaded.IsRunning)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path, nil).LoadStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal status file")
}

func TestFileStore_OnStatusSkipsUnchangedSnapshots(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "status.json")
	store := NewFileStore(path, nil)

	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.OnStatus(SyncStatus{ProcessedFiles: 1, UpdatedAt: ts})

	// Same UpdatedAt: a heartbeat, not a change
	store.OnStatus(SyncStatus{ProcessedFiles: 99, UpdatedAt: ts})

	loaded, err := store.LoadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ProcessedFiles)

	store.OnStatus(SyncStatus{ProcessedFiles: 2, UpdatedAt: ts.Add(time.Second)})
	loaded, err = store.LoadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.ProcessedFiles)
}
