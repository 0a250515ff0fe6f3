// Package telemetry provides OpenTelemetry instrumentation for the sync agent.
// It supports tracing and metrics exported over OTLP, and metrics served
// locally in the Prometheus text format.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "lynx-sync-agent"

	// DefaultEndpoint is the default OTLP endpoint for telemetry
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the default trace sampling rate. Upload volume is
	// low, so every trace is kept unless configured otherwise.
	DefaultSampling = 1.0
)

// Config represents the telemetry configuration section
type Config struct {
	// Enabled controls whether telemetry is enabled globally
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`

	// ServiceName defaults to "lynx-sync-agent"
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty" toml:"serviceName,omitempty"`

	// ServiceVersion defaults to the agent version
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty" toml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP collector endpoint ("host:port")
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`

	// Insecure allows HTTP connections to the collector
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty" toml:"insecure,omitempty"`

	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty" toml:"tracing,omitempty"`
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty" toml:"metrics,omitempty"`
}

// TracingConfig defines tracing-specific configuration
type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`

	// Sampling is the trace sampling ratio (0.0 to 1.0). 0 selects DefaultSampling.
	Sampling float64 `json:"sampling,omitempty" yaml:"sampling,omitempty" toml:"sampling,omitempty"`
}

// MetricsConfig defines metrics-specific configuration
type MetricsConfig struct {
	// Enabled pushes metrics to the OTLP endpoint
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`

	// Prometheus serves metrics on the status server's /metrics endpoint
	Prometheus bool `json:"prometheus,omitempty" yaml:"prometheus,omitempty" toml:"prometheus,omitempty"`
}

// GetServiceName returns the service name, using default if not specified
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetEndpoint returns the endpoint, using default if not specified
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetSampling returns the sampling ratio. 0 means unset and selects DefaultSampling.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// active reports whether any metrics reader is requested
func (c *MetricsConfig) active() bool {
	return c != nil && (c.Enabled || c.Prometheus)
}

// Validate validates the telemetry configuration
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if c.Tracing != nil && c.Tracing.Enabled {
		if s := c.Tracing.Sampling; s < 0 || s > 1.0 {
			errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %f", s))
		}
	}
	return errors.Join(errs...)
}
