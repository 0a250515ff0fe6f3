package status

import (
	"sync"
	"sync/atomic"
)

// DefaultSubscriberBuffer is the channel capacity of a subscription
const DefaultSubscriberBuffer = 64

// EventType distinguishes the payload of an Event
type EventType string

const (
	EventStatus EventType = "status"
	EventLog    EventType = "log"
)

// Event is one message of a subscription
type Event struct {
	Type   EventType   `json:"type"`
	Status *SyncStatus `json:"status,omitempty"`
	Log    *LogEntry   `json:"log,omitempty"`
}

// Hub fans status snapshots and log entries out to subscribers. Publishing
// never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu         sync.RWMutex
	subs       map[uint64]chan Event
	nextID     uint64
	bufferSize int
	closed     bool

	dropped atomic.Int64
}

var _ Observer = (*Hub)(nil)

// NewHub creates a hub. bufferSize <= 0 selects DefaultSubscriberBuffer.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:       make(map[uint64]chan Event),
		bufferSize: bufferSize,
	}
}

// Subscribe returns a channel of events and a function that ends the
// subscription and closes the channel
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.bufferSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// OnStatus publishes a status snapshot
func (h *Hub) OnStatus(s SyncStatus) {
	h.publish(Event{Type: EventStatus, Status: &s})
}

// OnLog publishes a log entry
func (h *Hub) OnLog(entry LogEntry) {
	h.publish(Event{Type: EventLog, Log: &entry})
}

// Subscribers returns the number of active subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns the number of events not delivered because a subscriber was full
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close ends every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}
