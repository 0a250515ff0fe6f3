package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/lynx-sync-agent/sync"
)

// SyncMetrics holds the instruments describing uploads and start list exports
type SyncMetrics struct {
	uploadDuration   metric.Float64Histogram
	filesProcessed   metric.Int64Counter
	filesFailed      metric.Int64Counter
	queueDepth       metric.Int64Gauge
	startListExports metric.Int64Counter
}

// NewSyncMetrics creates the sync instruments. A nil provider returns nil,
// and every Record method is a no-op on a nil receiver.
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	uploadDuration, err := meter.Float64Histogram(
		"lynx_sync_upload_duration_seconds",
		metric.WithDescription("Duration of result uploads in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	filesProcessed, err := meter.Int64Counter(
		"lynx_sync_files_processed_total",
		metric.WithDescription("Result files uploaded successfully"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	filesFailed, err := meter.Int64Counter(
		"lynx_sync_files_failed_total",
		metric.WithDescription("Failed result file processing attempts"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64Gauge(
		"lynx_sync_queue_pending",
		metric.WithDescription("Result files waiting to be uploaded"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	startListExports, err := meter.Int64Counter(
		"lynx_sync_start_list_exports_total",
		metric.WithDescription("Start list export runs"),
		metric.WithUnit("{export}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		uploadDuration:   uploadDuration,
		filesProcessed:   filesProcessed,
		filesFailed:      filesFailed,
		queueDepth:       queueDepth,
		startListExports: startListExports,
	}, nil
}

// RecordUpload records the duration and outcome of one file upload
func (m *SyncMetrics) RecordUpload(ctx context.Context, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.uploadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordFileProcessed counts a file whose results reached the server
func (m *SyncMetrics) RecordFileProcessed(ctx context.Context) {
	if m == nil {
		return
	}
	m.filesProcessed.Add(ctx, 1)
}

// RecordFileFailed counts a failed attempt. kind is the error classification.
func (m *SyncMetrics) RecordFileFailed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.filesFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordQueueDepth records the number of pending files
func (m *SyncMetrics) RecordQueueDepth(ctx context.Context, pending int) {
	if m == nil {
		return
	}
	m.queueDepth.Record(ctx, int64(pending))
}

// RecordStartListExport counts an export run
func (m *SyncMetrics) RecordStartListExport(ctx context.Context, events int, success bool) {
	if m == nil {
		return
	}
	m.startListExports.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.Bool("empty", events == 0),
	))
}
