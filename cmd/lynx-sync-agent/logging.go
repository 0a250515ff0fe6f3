package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// keyLogLevel is read as LYNX_SYNC_LOG_LEVEL
const keyLogLevel = "log-level"

// logLevel reads LYNX_SYNC_LOG_LEVEL, then LOG_LEVEL. Unknown values fall
// back to info. Offsets such as "debug-2" are accepted.
func logLevel(v *viper.Viper) slog.Level {
	raw := strings.TrimSpace(v.GetString(keyLogLevel))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}
	if raw == "" {
		return slog.LevelInfo
	}
	if strings.EqualFold(raw, "warning") {
		raw = "warn"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("Unknown log level, using info", "value", raw)
		return slog.LevelInfo
	}
	return level
}

// newLogHandler returns the JSON handler used by every command
func newLogHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return &spanContextHandler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	}
}

// spanContextHandler adds trace_id and span_id to records logged inside a
// span, so the log lines of an upload can be found from its trace
type spanContextHandler struct {
	slog.Handler
}

func (h *spanContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *spanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *spanContextHandler) WithGroup(name string) slog.Handler {
	return &spanContextHandler{Handler: h.Handler.WithGroup(name)}
}
