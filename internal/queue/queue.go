// Package queue provides the in-memory, deduplicated work queue of result
// files waiting to be uploaded.
package queue

import (
	"sort"
	"sync"
	"time"
)

// DefaultRetention is how long processed entries are kept before pruning
const DefaultRetention = time.Hour

// Kind is the type of file held by an entry
type Kind string

const (
	// KindResult is a timing-system result file
	KindResult Kind = "result"
)

// Entry is a queued file. There is at most one entry per path.
type Entry struct {
	Path       string    `json:"path"`
	Kind       Kind      `json:"kind"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Processed  bool      `json:"processed"`

	// Attempts counts failed processing attempts since the last enqueue
	Attempts int `json:"attempts,omitempty"`

	// LastError is the message of the most recent failure
	LastError string `json:"lastError,omitempty"`

	// Failed is set once Attempts reaches the configured ceiling. Failed
	// entries are not returned by Pending until the file is enqueued again.
	Failed bool `json:"failed,omitempty"`
}

// Option configures a Queue
type Option func(*Queue)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// WithMaxAttempts sets the number of failed attempts after which an entry
// is dead-lettered. Zero means retry forever.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// Queue holds result files keyed by path
type Queue struct {
	mu          sync.Mutex
	entries     map[string]*Entry
	now         func() time.Time
	maxAttempts int
}

// New creates an empty queue
func New(opts ...Option) *Queue {
	q := &Queue{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a result file, replacing any existing entry for the same path
func (q *Queue) Enqueue(path string) Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := &Entry{
		Path:       path,
		Kind:       KindResult,
		EnqueuedAt: q.now(),
	}
	q.entries[path] = e
	return *e
}

// Pending returns copies of the entries still to be processed, oldest first
func (q *Queue) Pending() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		if !e.Processed && !e.Failed {
			pending = append(pending, *e)
		}
	}
	sortEntries(pending)
	return pending
}

// MarkProcessed flags the entry for path as done.
// It returns false when the path is not queued.
func (q *Queue) MarkProcessed(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[path]
	if !ok {
		return false
	}
	e.Processed = true
	e.LastError = ""
	return true
}

// MarkFailed records a failed attempt for path. It returns true when the
// entry has been dead-lettered by this call.
func (q *Queue) MarkFailed(path string, err error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[path]
	if !ok {
		return false
	}
	e.Attempts++
	if err != nil {
		e.LastError = err.Error()
	}
	if q.maxAttempts > 0 && e.Attempts >= q.maxAttempts && !e.Failed {
		e.Failed = true
		return true
	}
	return false
}

// Prune removes processed or failed entries enqueued before now minus
// retention, and returns how many were removed
func (q *Queue) Prune(retention time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-retention)
	removed := 0
	for path, e := range q.entries {
		if (e.Processed || e.Failed) && e.EnqueuedAt.Before(cutoff) {
			delete(q.entries, path)
			removed++
		}
	}
	return removed
}

// Get returns a copy of the entry for path
func (q *Queue) Get(path string) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[path]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Snapshot returns copies of all entries, oldest first
func (q *Queue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	all := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		all = append(all, *e)
	}
	sortEntries(all)
	return all
}

// Len returns the number of entries, processed or not
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear drops every entry
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = make(map[string]*Entry)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EnqueuedAt.Equal(entries[j].EnqueuedAt) {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
	})
}
