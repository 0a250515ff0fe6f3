// Package main is the entry point for the Lynx sync agent.
package main

import (
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"

	"github.com/stacklok/lynx-sync-agent/cmd/lynx-sync-agent/app"
	"github.com/stacklok/lynx-sync-agent/internal/config"
)

func main() {
	// Logs go to stderr; stdout carries command output such as parse --format json
	handler := newLogHandler(os.Stderr, logLevel(config.NewViper()))
	slog.SetDefault(slog.New(handler))

	// OpenTelemetry reports exporter failures through its own logr logger
	otel.SetLogger(logr.FromSlogHandler(handler))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
