// Package watcher observes the timing system's result directory and emits an
// event whenever a matching file is created or modified.
package watcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultBufferSize is the capacity of the event channel
const defaultBufferSize = 64

// ChangeKind describes what happened to a file
type ChangeKind string

const (
	// ChangeCreated is emitted when a file appears in the directory
	ChangeCreated ChangeKind = "create"

	// ChangeModified is emitted when a file is written to
	ChangeModified ChangeKind = "modify"
)

// Event is a change to a matching file
type Event struct {
	Path string
	Kind ChangeKind
	Time time.Time
}

// Source is a stream of file events that can be closed
type Source interface {
	// Events returns the event stream. The channel is closed after Close.
	Events() <-chan Event

	// Close releases the OS watch handle
	Close() error
}

// Factory creates a Source for a directory and extension filter
type Factory func(dir, ext string, logger *slog.Logger) (Source, error)

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger used to report watch errors
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithBufferSize sets the capacity of the event channel
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.bufferSize = n
		}
	}
}

// Watcher is an fsnotify backed Source. Files present before New returns
// never produce events.
type Watcher struct {
	dir        string
	ext        string
	logger     *slog.Logger
	bufferSize int

	fsw    *fsnotify.Watcher
	events chan Event
	stop   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	errCount  atomic.Int64
}

// New starts watching dir for files with extension ext (for example ".lif")
func New(dir, ext string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		dir:        dir,
		ext:        strings.ToLower(ext),
		logger:     slog.Default(),
		bufferSize: defaultBufferSize,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access watch directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.fsw = fsw
	w.events = make(chan Event, w.bufferSize)
	go w.run()

	w.logger.Info("Watching result directory", "dir", dir, "extension", ext)
	return w, nil
}

// NewSource adapts New to the Factory signature
func NewSource(dir, ext string, logger *slog.Logger) (Source, error) {
	return New(dir, ext, WithLogger(logger))
}

// Events returns the event stream
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// ErrorCount returns the number of watch errors seen so far
func (w *Watcher) ErrorCount() int64 {
	return w.errCount.Load()
}

// Close stops watching and waits for the event goroutine to exit.
// It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stop)
		err = w.fsw.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if out, keep := w.translate(ev); keep {
				select {
				case w.events <- out:
				case <-w.stop:
					return
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.errCount.Add(1)
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("File watcher event overflow, some changes may be missed", "dir", w.dir)
				continue
			}
			w.logger.Error("File watcher error", "dir", w.dir, "error", err)
		}
	}
}

// translate maps an fsnotify event to an Event, dropping everything the
// agent does not care about
func (w *Watcher) translate(ev fsnotify.Event) (Event, bool) {
	var kind ChangeKind
	switch {
	case ev.Has(fsnotify.Create):
		kind = ChangeCreated
	case ev.Has(fsnotify.Write):
		kind = ChangeModified
	default:
		return Event{}, false
	}

	if !Matches(ev.Name, w.ext) {
		return Event{}, false
	}

	return Event{Path: ev.Name, Kind: kind, Time: time.Now()}, true
}

// Matches reports whether path is a visible file with extension ext.
// The comparison is case-insensitive.
func Matches(path, ext string) bool {
	base := filepath.Base(path)
	if base == "" || strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ext)
}
