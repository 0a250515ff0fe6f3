package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	t.Parallel()

	for _, opts := range [][]ProviderOption{
		nil,
		{WithTracing(&TracingConfig{Enabled: false})},
		{WithMetrics(&MetricsConfig{Prometheus: true})},
	} {
		tp, err := NewTracerProvider(context.Background(), opts...)
		require.NoError(t, err)
		_, ok := tp.(noop.TracerProvider)
		assert.True(t, ok, "expected no-op tracer provider")
	}
}

func TestNewTracerProvider_ExportsSpans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exporter := tracetest.NewInMemoryExporter()
	tp, err := NewTracerProvider(ctx,
		WithService("agent-test", "0.0.1"),
		WithAttributes(CompetitionIDKey.String("comp-7")),
		WithTracing(&TracingConfig{Enabled: true, Sampling: 1.0}),
		WithSpanExporter(exporter),
	)
	require.NoError(t, err)

	sdkTP, ok := tp.(*sdktrace.TracerProvider)
	require.True(t, ok)

	_, span := tp.Tracer("test").Start(ctx, "sync.upload")
	span.End()
	require.NoError(t, sdkTP.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync.upload", spans[0].Name)

	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Resource.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "agent-test", attrs["service.name"])
	assert.Equal(t, "0.0.1", attrs["service.version"])
	assert.Equal(t, "comp-7", attrs[CompetitionIDKey])

	require.NoError(t, sdkTP.Shutdown(ctx))
}

func TestProviderOptions(t *testing.T) {
	t.Parallel()

	cfg := newProviderConfig(nil)
	assert.Equal(t, DefaultServiceName, cfg.serviceName)
	assert.Equal(t, DefaultEndpoint, cfg.endpoint)
	assert.Equal(t, DefaultMetricsInterval, cfg.metricsInterval)

	cfg = newProviderConfig([]ProviderOption{
		WithService("", "2.0.0"),
		WithCollector("collector:4318", true),
		WithMetricsInterval(0),
	})
	assert.Equal(t, DefaultServiceName, cfg.serviceName)
	assert.Equal(t, "2.0.0", cfg.serviceVersion)
	assert.Equal(t, "collector:4318", cfg.endpoint)
	assert.True(t, cfg.insecure)
	assert.Equal(t, DefaultMetricsInterval, cfg.metricsInterval)
}
