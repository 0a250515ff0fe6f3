package coordinator

import (
	"time"

	"github.com/stacklok/lynx-sync-agent/internal/config"
)

// minInterval keeps a misconfigured interval from spinning the loop
const minInterval = 100 * time.Millisecond

// drainInterval returns how often the queue is drained
func drainInterval(cfg *config.Config) time.Duration {
	d := cfg.SyncIntervalDuration()
	if d < minInterval {
		return minInterval
	}
	return d
}

// startListInterval returns how often start lists are refreshed, or 0 when
// they are only exported at session start
func startListInterval(cfg *config.Config) time.Duration {
	d := cfg.StartListIntervalDuration()
	if d > 0 && d < minInterval {
		return minInterval
	}
	return d
}
