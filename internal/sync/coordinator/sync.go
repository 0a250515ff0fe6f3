package coordinator

import (
	"context"
	"time"

	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/queue"
	"github.com/stacklok/lynx-sync-agent/internal/status"
	pkgsync "github.com/stacklok/lynx-sync-agent/internal/sync"
	"github.com/stacklok/lynx-sync-agent/internal/watcher"
)

type operation int

const (
	opEnqueue operation = iota
	opDrain
	opStartLists
)

// request is an on-demand operation executed by the session loop
type request struct {
	op    operation
	path  string
	reply chan error
}

// session is the state owned by one run of the loop
type session struct {
	id       string
	cfg      *config.Config
	source   watcher.Source
	queue    *queue.Queue
	requests chan request
	cancel   context.CancelFunc
	done     chan struct{}
}

// run is the session loop. Watcher events, ticks and requests are handled
// one at a time, so uploads never overlap.
func (c *defaultCoordinator) run(ctx context.Context, s *session) {
	defer close(s.done)

	drainTicker := time.NewTicker(drainInterval(s.cfg))
	defer drainTicker.Stop()

	var startListTick <-chan time.Time
	if interval := startListInterval(s.cfg); interval > 0 {
		startListTicker := time.NewTicker(interval)
		defer startListTicker.Stop()
		startListTick = startListTicker.C
	}

	heartbeat := time.NewTicker(c.heartbeat)
	defer heartbeat.Stop()

	// Perform initial start list export
	_ = c.syncStartLists(ctx, s)

	events := s.source.Events()
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Sync loop stopping", "session_id", s.id)
			return
		case ev, ok := <-events:
			if !ok {
				c.logger.Warn("Directory watcher stopped delivering events", "dir", s.cfg.OutputDir)
				events = nil
				c.tracker.Update(func(st *status.SyncStatus) {
					st.MonitorStatus = status.MonitorError
				})
				continue
			}
			c.enqueue(s, ev.Path)
		case <-drainTicker.C:
			c.drain(ctx, s)
		case <-startListTick:
			_ = c.syncStartLists(ctx, s)
		case <-heartbeat.C:
			c.tracker.Publish()
		case req := <-s.requests:
			req.reply <- c.handle(ctx, s, req)
		}
	}
}

func (c *defaultCoordinator) handle(ctx context.Context, s *session, req request) error {
	switch req.op {
	case opEnqueue:
		c.enqueue(s, req.path)
		return nil
	case opDrain:
		c.drain(ctx, s)
		return nil
	case opStartLists:
		return c.syncStartLists(ctx, s)
	default:
		return nil
	}
}

// enqueue adds or replaces the queue entry for path
func (c *defaultCoordinator) enqueue(s *session, path string) {
	s.queue.Enqueue(path)
	c.logger.Info("Result file queued", "file", path)
	c.publishQueue(s)
}

// drain processes every pending file once, oldest first, then prunes
// entries that were finished more than an hour ago
func (c *defaultCoordinator) drain(ctx context.Context, s *session) {
	pending := s.queue.Pending()
	c.syncMetrics.RecordQueueDepth(ctx, len(pending))
	if len(pending) > 0 {
		c.logger.Debug("Processing queued result files", "pending", len(pending))
	}

	for _, entry := range pending {
		if ctx.Err() != nil {
			return
		}
		c.processEntry(ctx, s, entry)
	}

	if removed := s.queue.Prune(queue.DefaultRetention); removed > 0 {
		c.logger.Debug("Pruned processed queue entries", "removed", removed)
	}
	c.syncMetrics.RecordQueueDepth(ctx, len(s.queue.Pending()))
	c.publishQueue(s)
}

// processEntry uploads one file. An upload that has started is not
// cancelled by stopping the session; it is bounded by the client timeout.
func (c *defaultCoordinator) processEntry(ctx context.Context, s *session, entry queue.Entry) {
	result, syncErr := c.manager.ProcessFile(context.WithoutCancel(ctx), s.cfg, entry.Path)
	if syncErr != nil {
		deadLettered := s.queue.MarkFailed(entry.Path, syncErr)
		c.syncMetrics.RecordFileFailed(ctx, string(syncErr.Kind))
		c.logger.Error("Failed to process result file",
			"file", entry.Path,
			"attempt", entry.Attempts+1,
			"error", syncErr.Message)
		if deadLettered {
			c.logger.Warn("Giving up on result file until it changes",
				"file", entry.Path,
				"attempts", entry.Attempts+1)
		}

		c.tracker.Update(func(st *status.SyncStatus) {
			st.LastError = syncErr.Message
			if isRemoteFailure(syncErr) {
				st.ConnectionStatus = status.ConnectionError
			}
			st.QueuedFiles = s.queue.Snapshot()
		})
		return
	}

	s.queue.MarkProcessed(entry.Path)
	if !result.Uploaded() {
		c.publishQueue(s)
		return
	}

	c.syncMetrics.RecordFileProcessed(ctx)
	now := c.now()
	c.tracker.Update(func(st *status.SyncStatus) {
		st.ProcessedFiles++
		st.LastSync = &now
		st.ConnectionStatus = status.ConnectionConnected
		st.QueuedFiles = s.queue.Snapshot()
	})
}

// syncStartLists fetches and exports the start lists. Failures are logged
// and recorded in the status.
func (c *defaultCoordinator) syncStartLists(ctx context.Context, s *session) error {
	result, syncErr := c.manager.SyncStartLists(context.WithoutCancel(ctx), s.cfg)
	if syncErr != nil {
		c.logger.Error("Start list export failed", "error", syncErr.Message)
		c.tracker.Update(func(st *status.SyncStatus) {
			st.LastError = syncErr.Message
			if isRemoteFailure(syncErr) {
				st.ConnectionStatus = status.ConnectionError
			}
		})
		return syncErr
	}

	c.logger.Info("Start lists exported",
		"files", len(result.Files),
		"removed", result.Removed,
		"errors", len(result.Errors))

	now := c.now()
	c.tracker.Update(func(st *status.SyncStatus) {
		st.LastSync = &now
		st.ConnectionStatus = status.ConnectionConnected
	})
	return nil
}

func (c *defaultCoordinator) publishQueue(s *session) {
	c.tracker.Update(func(st *status.SyncStatus) {
		st.QueuedFiles = s.queue.Snapshot()
	})
}

func isRemoteFailure(err *pkgsync.Error) bool {
	return err.Kind == pkgsync.KindConnectivity || err.Kind == pkgsync.KindServer
}
