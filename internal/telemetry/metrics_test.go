package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewSyncMetrics_NilProvider(t *testing.T) {
	t.Parallel()

	metrics, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordUpload(ctx, time.Second, true)
		metrics.RecordFileProcessed(ctx)
		metrics.RecordFileFailed(ctx, "server")
		metrics.RecordQueueDepth(ctx, 3)
		metrics.RecordStartListExport(ctx, 2, true)
	})
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RecordUpload(ctx, 200*time.Millisecond, true)
	metrics.RecordUpload(ctx, 2*time.Second, false)
	metrics.RecordFileProcessed(ctx)
	metrics.RecordFileProcessed(ctx)
	metrics.RecordFileFailed(ctx, "connectivity")
	metrics.RecordQueueDepth(ctx, 4)
	metrics.RecordStartListExport(ctx, 0, true)

	data := collect(t, reader)

	hist, ok := data["lynx_sync_upload_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var uploads uint64
	for _, dp := range hist.DataPoints {
		uploads += dp.Count
	}
	assert.Equal(t, uint64(2), uploads)

	processed, ok := data["lynx_sync_files_processed_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, processed.DataPoints, 1)
	assert.Equal(t, int64(2), processed.DataPoints[0].Value)

	failed, ok := data["lynx_sync_files_failed_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failed.DataPoints, 1)
	kind, _ := failed.DataPoints[0].Attributes.Value("kind")
	assert.Equal(t, "connectivity", kind.AsString())

	depth, ok := data["lynx_sync_queue_pending"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, depth.DataPoints, 1)
	assert.Equal(t, int64(4), depth.DataPoints[0].Value)

	exports, ok := data["lynx_sync_start_list_exports_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, exports.DataPoints, 1)
	empty, _ := exports.DataPoints[0].Attributes.Value("empty")
	assert.True(t, empty.AsBool())
}
