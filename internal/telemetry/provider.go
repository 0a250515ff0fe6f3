package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// CompetitionIDKey tags every exported span and metric with the competition
// the agent is bound to
const CompetitionIDKey = attribute.Key("lynx.competition_id")

// ProviderOption configures NewTracerProvider and NewMeterProvider
type ProviderOption func(*providerConfig)

// providerConfig is shared by both providers so that traces and metrics
// describe the agent with the same resource
type providerConfig struct {
	serviceName     string
	serviceVersion  string
	endpoint        string
	insecure        bool
	attributes      []attribute.KeyValue
	tracing         *TracingConfig
	metrics         *MetricsConfig
	spanExporter    sdktrace.SpanExporter
	registry        *prometheus.Registry
	metricsInterval time.Duration
}

func newProviderConfig(opts []ProviderOption) *providerConfig {
	cfg := &providerConfig{
		serviceName:     DefaultServiceName,
		serviceVersion:  "unknown",
		endpoint:        DefaultEndpoint,
		metricsInterval: DefaultMetricsInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithService sets the service name and version of the resource. Empty
// values keep the defaults.
func WithService(name, version string) ProviderOption {
	return func(cfg *providerConfig) {
		if name != "" {
			cfg.serviceName = name
		}
		if version != "" {
			cfg.serviceVersion = version
		}
	}
}

// WithCollector points the OTLP exporters at endpoint ("host:port")
func WithCollector(endpoint string, insecure bool) ProviderOption {
	return func(cfg *providerConfig) {
		if endpoint != "" {
			cfg.endpoint = endpoint
		}
		cfg.insecure = insecure
	}
}

// WithAttributes adds attributes to the resource
func WithAttributes(attrs ...attribute.KeyValue) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.attributes = append(cfg.attributes, attrs...)
	}
}

// WithTracing enables tracing as described by tc
func WithTracing(tc *TracingConfig) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.tracing = tc
	}
}

// WithMetrics enables the metric readers described by mc
func WithMetrics(mc *MetricsConfig) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.metrics = mc
	}
}

// WithSpanExporter replaces the OTLP span exporter
func WithSpanExporter(exporter sdktrace.SpanExporter) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.spanExporter = exporter
	}
}

// WithPrometheusRegistry sets the registry the Prometheus reader registers
// with. It is only used when MetricsConfig.Prometheus is set.
func WithPrometheusRegistry(reg *prometheus.Registry) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.registry = reg
	}
}

// WithMetricsInterval sets how often metrics are pushed over OTLP
func WithMetricsInterval(d time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if d > 0 {
			cfg.metricsInterval = d
		}
	}
}

func (cfg *providerConfig) resource(ctx context.Context) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(cfg.serviceName),
		semconv.ServiceVersion(cfg.serviceVersion),
	}, cfg.attributes...)

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
