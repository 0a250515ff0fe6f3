package sync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/exporter"
	"github.com/stacklok/lynx-sync-agent/internal/lif"
	"github.com/stacklok/lynx-sync-agent/internal/otel"
	"github.com/stacklok/lynx-sync-agent/internal/remote"
	"github.com/stacklok/lynx-sync-agent/internal/telemetry"
)

// FileResult contains the outcome of processing one result file
type FileResult struct {
	Path     string
	FileName string

	// Records is the number of results decoded from the file. Files with no
	// results are not uploaded.
	Records int

	// Imported is the count reported by the server, or -1 when unknown
	Imported  int
	RequestID string
	Duration  time.Duration
}

// Uploaded reports whether the file was sent to the server
func (r *FileResult) Uploaded() bool {
	return r != nil && r.Records > 0
}

// Manager performs sync operations against the competition platform
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/lynx-sync-agent/internal/sync Manager
type Manager interface {
	// Probe checks that the server is reachable with the configured API key
	Probe(ctx context.Context, cfg *config.Config) *Error

	// ProcessFile decodes a result file and uploads its results
	ProcessFile(ctx context.Context, cfg *config.Config, path string) (*FileResult, *Error)

	// SyncStartLists downloads the start lists and exports them for the timing system
	SyncStartLists(ctx context.Context, cfg *config.Config) (*exporter.ExportResult, *Error)
}

// ClientFactory creates the remote client for a configuration
type ClientFactory func(cfg *config.Config) remote.Client

// Option configures the default Manager
type Option func(*defaultSyncManager)

// WithClientFactory overrides how remote clients are created
func WithClientFactory(factory ClientFactory) Option {
	return func(m *defaultSyncManager) {
		if factory != nil {
			m.clientFactory = factory
		}
	}
}

// WithFs sets the file system used to read result files and write exports
func WithFs(fsys afero.Fs) Option {
	return func(m *defaultSyncManager) {
		if fsys != nil {
			m.fs = fsys
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *defaultSyncManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTracer sets the tracer used for operation spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// WithSyncMetrics sets the metrics recorder
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// WithClock overrides the time source passed to the exporter
func WithClock(now func() time.Time) Option {
	return func(m *defaultSyncManager) {
		if now != nil {
			m.now = now
		}
	}
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	clientFactory ClientFactory
	fs            afero.Fs
	logger        *slog.Logger
	tracer        trace.Tracer
	metrics       *telemetry.SyncMetrics
	now           func() time.Time

	mu        gosync.Mutex
	client    remote.Client
	clientKey string
}

// NewDefaultSyncManager creates a Manager reading and writing the OS file system
func NewDefaultSyncManager(opts ...Option) Manager {
	m := &defaultSyncManager{
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clientFactory == nil {
		logger := m.logger
		m.clientFactory = func(cfg *config.Config) remote.Client {
			return remote.NewClient(cfg.ServerURL, cfg.APIKey, remote.WithLogger(logger))
		}
	}
	return m
}

// clientFor returns the client for cfg, reusing the previous one while the
// server URL and API key are unchanged
func (s *defaultSyncManager) clientFor(cfg *config.Config) remote.Client {
	key := cfg.ServerURL + "\x00" + cfg.APIKey

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil || s.clientKey != key {
		s.client = s.clientFactory(cfg)
		s.clientKey = key
	}
	return s.client
}

// Probe checks connectivity. The message of a returned error is the reason
// reported by the client, unchanged.
func (s *defaultSyncManager) Probe(ctx context.Context, cfg *config.Config) *Error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.Probe",
		trace.WithAttributes(otel.AttrCompetitionID.String(cfg.CompetitionID)))
	defer span.End()

	if err := s.clientFor(cfg).Probe(ctx); err != nil {
		otel.RecordError(span, err)
		s.logger.Warn("Server connectivity check failed",
			"server", cfg.ServerURL,
			"error", err)
		return newError(err, err.Error())
	}

	s.logger.Info("Server connectivity check succeeded", "server", cfg.ServerURL)
	return nil
}

// ProcessFile reads and decodes the file at path and uploads the results.
// A file without results is not an error; the result reports zero records.
func (s *defaultSyncManager) ProcessFile(ctx context.Context, cfg *config.Config, path string) (*FileResult, *Error) {
	fileName := filepath.Base(path)
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.ProcessFile",
		trace.WithAttributes(
			otel.AttrCompetitionID.String(cfg.CompetitionID),
			otel.AttrFileName.String(fileName),
		))
	defer span.End()

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		otel.RecordError(span, err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Failed to read %s: %v", fileName, err),
			Kind:    KindFilesystem,
		}
	}

	records, err := lif.NewDecoder().Decode(bytes.NewReader(data))
	if err != nil {
		otel.RecordError(span, err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Failed to decode %s: %v", fileName, err),
			Kind:    KindFilesystem,
		}
	}
	span.SetAttributes(otel.AttrRecordCount.Int(len(records)))

	result := &FileResult{Path: path, FileName: fileName, Records: len(records), Imported: -1}
	if len(records) == 0 {
		s.logger.Warn("Result file contains no results", "file", fileName)
		return result, nil
	}

	start := time.Now()
	resp, err := s.clientFor(cfg).UploadResults(ctx, remote.UploadRequest{
		CompetitionID: cfg.CompetitionID,
		FileName:      fileName,
		Results:       records,
	})
	result.Duration = time.Since(start)
	s.metrics.RecordUpload(ctx, result.Duration, err == nil)

	if err != nil {
		otel.RecordError(span, err)
		span.SetAttributes(otel.AttrErrorKind.String(string(KindOf(err))))
		return nil, newError(err, fmt.Sprintf("Upload of %s failed: %v", fileName, err))
	}

	result.Imported = resp.Imported
	result.RequestID = resp.RequestID
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	s.logger.Info("Uploaded results",
		"file", fileName,
		"records", len(records),
		"imported", resp.Imported,
		"request_id", resp.RequestID,
		"duration", result.Duration)

	return result, nil
}

// SyncStartLists fetches the start lists of the configured competition and
// writes them to the output directory. Failures writing single files are
// reported in the result; only an unusable directory or a failed download
// returns an error.
func (s *defaultSyncManager) SyncStartLists(ctx context.Context, cfg *config.Config) (*exporter.ExportResult, *Error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.SyncStartLists",
		trace.WithAttributes(otel.AttrCompetitionID.String(cfg.CompetitionID)))
	defer span.End()

	events, err := s.clientFor(cfg).FetchStartLists(ctx, cfg.CompetitionID)
	if err != nil {
		otel.RecordError(span, err)
		s.metrics.RecordStartListExport(ctx, 0, false)
		return nil, newError(err, fmt.Sprintf("Failed to fetch start lists: %v", err))
	}
	span.SetAttributes(otel.AttrEventCount.Int(len(events)))

	if len(events) == 0 {
		s.logger.Info("No start lists published for competition", "competition", cfg.CompetitionID)
	}

	exp := exporter.New(s.fs, cfg.InputDir,
		exporter.WithLogger(s.logger),
		exporter.WithClock(s.now),
		exporter.WithRetention(cfg.ExportRetentionDuration()))

	result, err := exp.ExportAll(events, exporter.Metadata{
		CompetitionID:   cfg.CompetitionID,
		CompetitionName: cfg.CompetitionName,
		ServerURL:       cfg.ServerURL,
		TimingSystem:    cfg.TimingSystem,
		StartListDir:    cfg.InputDir,
		ResultDir:       cfg.OutputDir,
	})
	if err != nil {
		otel.RecordError(span, err)
		s.metrics.RecordStartListExport(ctx, len(events), false)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Cannot export start lists to %s: %v", cfg.InputDir, err),
			Kind:    KindFilesystem,
		}
	}

	if exportErr := result.Err(); exportErr != nil {
		s.logger.Warn("Some start list files could not be written",
			"failed", len(result.Errors),
			"error", exportErr)
	}
	s.metrics.RecordStartListExport(ctx, len(events), len(result.Errors) == 0)

	return result, nil
}
