package status

import (
	"sync"
	"time"
)

// Tracker holds the current status. The sync loop mutates it through
// Update; everybody else reads copies.
type Tracker struct {
	mu        sync.RWMutex
	current   SyncStatus
	observers []Observer
	now       func() time.Time
}

// NewTracker creates a tracker notifying observers on every update
func NewTracker(observers ...Observer) *Tracker {
	return &Tracker{
		current:   NewSyncStatus(),
		observers: observers,
		now:       time.Now,
	}
}

// AddObserver registers another observer
func (t *Tracker) AddObserver(o Observer) {
	if o == nil {
		return
	}
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
}

// Update applies fn to the status and notifies the observers with the result
func (t *Tracker) Update(fn func(*SyncStatus)) SyncStatus {
	t.mu.Lock()
	fn(&t.current)
	t.current.UpdatedAt = t.now()
	snapshot := t.current.Clone()
	observers := append([]Observer(nil), t.observers...)
	t.mu.Unlock()

	for _, o := range observers {
		o.OnStatus(snapshot.Clone())
	}
	return snapshot
}

// Snapshot returns a copy of the current status
func (t *Tracker) Snapshot() SyncStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current.Clone()
}

// Publish notifies the observers with the current status without changing it
func (t *Tracker) Publish() {
	t.mu.RLock()
	snapshot := t.current.Clone()
	observers := append([]Observer(nil), t.observers...)
	t.mu.RUnlock()

	for _, o := range observers {
		o.OnStatus(snapshot.Clone())
	}
}

// OnLog forwards a log entry to the observers
func (t *Tracker) OnLog(entry LogEntry) {
	t.mu.RLock()
	observers := append([]Observer(nil), t.observers...)
	t.mu.RUnlock()

	for _, o := range observers {
		o.OnLog(entry)
	}
}
