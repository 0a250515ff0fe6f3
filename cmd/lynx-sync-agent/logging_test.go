package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/lynx-sync-agent/internal/config"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		prefixed string
		plain    string
		want     slog.Level
	}{
		{name: "unset", want: slog.LevelInfo},
		{name: "prefixed", prefixed: "debug", want: slog.LevelDebug},
		{name: "prefixed wins", prefixed: "error", plain: "debug", want: slog.LevelError},
		{name: "plain fallback", plain: "WARN", want: slog.LevelWarn},
		{name: "warning alias", prefixed: "warning", want: slog.LevelWarn},
		{name: "offset", prefixed: "info+2", want: slog.LevelInfo + 2},
		{name: "unknown", prefixed: "chatty", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LYNX_SYNC_LOG_LEVEL", tt.prefixed)
			t.Setenv("LOG_LEVEL", tt.plain)

			assert.Equal(t, tt.want, logLevel(config.NewViper()))
		})
	}
}

func TestLogHandler_AddsSpanContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, slog.LevelInfo)).With("component", "sync")

	traceID := trace.TraceID{0x01, 0x02, 0x03}
	spanID := trace.SpanID{0x0a, 0x0b}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "Uploaded results", "records", 3)
	logger.InfoContext(context.Background(), "Result file queued")
	logger.DebugContext(ctx, "dropped")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var traced, plain map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &traced))
	require.NoError(t, json.Unmarshal(lines[1], &plain))

	assert.Equal(t, traceID.String(), traced["trace_id"])
	assert.Equal(t, spanID.String(), traced["span_id"])
	assert.Equal(t, "sync", traced["component"])
	assert.NotContains(t, plain, "trace_id")
}
