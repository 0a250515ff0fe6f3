// Package coordinator runs the sync session of the agent.
//
// The coordinator owns everything with a lifetime of one session: the
// directory watcher, the file queue and the tickers. It sits on top of
// sync.Manager, which performs the individual operations.
//
//   - internal/sync: how to probe, upload a file and export start lists
//   - internal/sync/coordinator: when to do it (session lifecycle, scheduling, status)
//   - cmd/lynx-sync-agent and internal/api: start and stop the session
//
// # Session Lifecycle
//
// A session moves from idle to active on Start and back on Stop:
//
//	c := coordinator.New(manager, tracker, cfg,
//	    coordinator.WithLogger(logger),
//	    coordinator.WithSyncMetrics(metrics),
//	)
//	if err := c.Start(ctx); err != nil {
//	    // *config.ValidationError, or a *sync.Error from the probe or the watcher
//	}
//	defer c.Stop()
//
// Start validates the configuration, probes the server and attaches the
// watcher before the loop runs. A failure leaves the session idle and is
// recorded in the status.
//
// # Loop
//
// One goroutine selects over watcher events, the drain ticker, the optional
// start list ticker, a one second heartbeat and on-demand requests
// (Enqueue, ProcessQueue, SyncStartLists). Uploads are therefore strictly
// sequential. Each drain processes the pending entries oldest first; a failed
// upload leaves the entry pending for the next drain. Processed entries are
// pruned after one hour.
//
// # Status
//
// Every transition goes through status.Tracker, which notifies its
// observers (the status hub and the status file). Status returns a copy.
package coordinator
