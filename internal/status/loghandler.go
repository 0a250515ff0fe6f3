package status

import (
	"context"
	"log/slog"
	"slices"
)

// LogSink receives log entries
type LogSink interface {
	OnLog(LogEntry)
}

// LogHandler is a slog.Handler that passes records to another handler and
// also forwards them as LogEntry values, so the host sees the same log
// stream as the process output.
type LogHandler struct {
	next  slog.Handler
	sink  LogSink
	level slog.Leveler

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*LogHandler)(nil)

// NewLogHandler wraps next. Records at or above level are forwarded to sink.
func NewLogHandler(next slog.Handler, sink LogSink, level slog.Leveler) *LogHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &LogHandler{next: next, sink: sink, level: level}
}

// Enabled implements slog.Handler
func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() || h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.sink != nil && r.Level >= h.level.Level() {
		h.sink.OnLog(h.entry(r))
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.next = h.next.WithAttrs(attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.prefixed(a))
	}
	return clone
}

// WithGroup implements slog.Handler
func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.next = h.next.WithGroup(name)
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *LogHandler) clone() *LogHandler {
	return &LogHandler{
		next:   h.next,
		sink:   h.sink,
		level:  h.level,
		attrs:  slices.Clone(h.attrs),
		groups: slices.Clone(h.groups),
	}
}

// prefixed nests a under the handler's open groups
func (h *LogHandler) prefixed(a slog.Attr) slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		a = slog.Group(h.groups[i], a)
	}
	return a
}

func (h *LogHandler) entry(r slog.Record) LogEntry {
	entry := LogEntry{
		Timestamp: r.Time,
		Level:     levelName(r.Level),
		Message:   r.Message,
	}

	data := map[string]any{}
	for _, a := range h.attrs {
		addAttr(data, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(data, h.prefixed(a))
		return true
	})
	if len(data) > 0 {
		entry.Data = data
	}
	return entry
}

func addAttr(dst map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		target := dst
		if a.Key != "" {
			nested, ok := dst[a.Key].(map[string]any)
			if !ok {
				nested = map[string]any{}
				dst[a.Key] = nested
			}
			target = nested
		}
		for _, ga := range attrs {
			addAttr(target, ga)
		}
		return
	}

	v := a.Value.Any()
	if err, ok := v.(error); ok {
		v = err.Error()
	}
	dst[a.Key] = v
}

func levelName(l slog.Level) LogLevel {
	switch {
	case l >= slog.LevelError:
		return LogLevelError
	case l >= slog.LevelWarn:
		return LogLevelWarn
	case l >= slog.LevelInfo:
		return LogLevelInfo
	default:
		return LogLevelDebug
	}
}
