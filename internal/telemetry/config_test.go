package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	empty := &Config{}
	assert.Equal(t, DefaultServiceName, empty.GetServiceName())
	assert.Equal(t, DefaultEndpoint, empty.GetEndpoint())

	set := &Config{ServiceName: "agent-a", ServiceVersion: "1.2.3", Endpoint: "otel:4318"}
	assert.Equal(t, "agent-a", set.GetServiceName())
	assert.Equal(t, "otel:4318", set.GetEndpoint())

	assert.Equal(t, DefaultSampling, (&TracingConfig{}).GetSampling())
	assert.Equal(t, 0.25, (&TracingConfig{Sampling: 0.25}).GetSampling())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil config", config: nil},
		{name: "disabled ignores bad values", config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 5}}},
		{name: "valid sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 0.5}}},
		{name: "disabled tracing ignores sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Sampling: -1}}},
		{
			name:    "sampling above one",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: "sampling must be between 0.0 and 1.0",
		},
		{
			name:    "negative sampling",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			wantErr: "sampling must be between 0.0 and 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Decoding(t *testing.T) {
	t.Parallel()

	const jsonDoc = `{"enabled":true,"endpoint":"otel:4318","tracing":{"enabled":true,"sampling":0.2},"metrics":{"enabled":false,"prometheus":true}}`
	const yamlDoc = `
enabled: true
endpoint: otel:4318
tracing:
  enabled: true
  sampling: 0.2
metrics:
  prometheus: true
`

	var fromJSON, fromYAML Config
	require.NoError(t, json.Unmarshal([]byte(jsonDoc), &fromJSON))
	require.NoError(t, yaml.Unmarshal([]byte(yamlDoc), &fromYAML))

	for _, cfg := range []Config{fromJSON, fromYAML} {
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "otel:4318", cfg.Endpoint)
		require.NotNil(t, cfg.Tracing)
		assert.Equal(t, 0.2, cfg.Tracing.Sampling)
		require.NotNil(t, cfg.Metrics)
		assert.False(t, cfg.Metrics.Enabled)
		assert.True(t, cfg.Metrics.Prometheus)
	}
}
