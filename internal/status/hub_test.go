package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_FanOut(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()
	assert.Equal(t, 2, hub.Subscribers())

	hub.OnStatus(SyncStatus{ProcessedFiles: 7})
	hub.OnLog(LogEntry{Message: "uploaded"})

	for _, ch := range []<-chan Event{a, b} {
		ev := receive(t, ch)
		assert.Equal(t, EventStatus, ev.Type)
		require.NotNil(t, ev.Status)
		assert.Equal(t, 7, ev.Status.ProcessedFiles)

		ev = receive(t, ch)
		assert.Equal(t, EventLog, ev.Type)
		require.NotNil(t, ev.Log)
		assert.Equal(t, "uploaded", ev.Log.Message)
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub(1)
	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.OnLog(LogEntry{Message: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked on a full subscriber")
	}
	assert.Equal(t, int64(9), hub.Dropped())
}

func TestHub_CancelAndClose(t *testing.T) {
	t.Parallel()

	hub := NewHub(0)
	ch, cancel := hub.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok, "cancelled subscription should be closed")
	assert.Equal(t, 0, hub.Subscribers())

	other, _ := hub.Subscribe()
	hub.Close()
	hub.Close()
	_, ok = <-other
	assert.False(t, ok, "close should end subscriptions")

	late, lateCancel := hub.Subscribe()
	defer lateCancel()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed hub yields a closed channel")
}
