// Package config loads the sync agent configuration from JSON, YAML, TOML
// or roster files and applies environment and flag overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/lynx-sync-agent/internal/telemetry"
)

const (
	// DefaultSyncInterval is the queue drain interval in seconds
	DefaultSyncInterval = 10

	// DefaultResultExtension is the extension of result files written by the timing system
	DefaultResultExtension = ".lif"

	// DefaultExportRetention is how long exported start lists are kept
	DefaultExportRetention = 24 * time.Hour

	// DefaultStatusAddress is the listen address of the local status server
	DefaultStatusAddress = "127.0.0.1:8787"

	// RosterExtension is the extension of roster files
	RosterExtension = ".roster"
)

// Option configures LoadConfig
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from the file at path. The format is
// chosen by extension: ".roster", ".yaml"/".yml", ".toml", anything else is JSON.
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}
		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config is the agent configuration. It is treated as immutable once
// loaded; reconfiguration replaces the whole value.
type Config struct {
	ServerURL string `json:"serverUrl" yaml:"serverUrl" toml:"serverUrl"`
	APIKey    string `json:"apiKey" yaml:"apiKey" toml:"apiKey"`

	// InputDir is the timing system's input directory; start lists are written here
	InputDir string `json:"inputDir" yaml:"inputDir" toml:"inputDir"`
	// OutputDir is where the timing system drops result files; it is watched
	OutputDir string `json:"outputDir" yaml:"outputDir" toml:"outputDir"`

	CompetitionID string `json:"competitionId" yaml:"competitionId" toml:"competitionId"`

	// SyncInterval is the queue drain interval in seconds
	SyncInterval int  `json:"syncInterval" yaml:"syncInterval" toml:"syncInterval"`
	AutoSync     bool `json:"autoSync" yaml:"autoSync" toml:"autoSync"`

	CompetitionName string `json:"competitionName,omitempty" yaml:"competitionName,omitempty" toml:"competitionName,omitempty"`
	TimingSystem    string `json:"timingSystem,omitempty" yaml:"timingSystem,omitempty" toml:"timingSystem,omitempty"`
	DeviceID        string `json:"deviceId,omitempty" yaml:"deviceId,omitempty" toml:"deviceId,omitempty"`
	Email           string `json:"email,omitempty" yaml:"email,omitempty" toml:"email,omitempty"`

	// ResultExtension selects which files in OutputDir are uploaded
	ResultExtension string `json:"resultExtension,omitempty" yaml:"resultExtension,omitempty" toml:"resultExtension,omitempty"`

	// StartListInterval refreshes start lists every n seconds; 0 only syncs at session start
	StartListInterval int `json:"startListInterval,omitempty" yaml:"startListInterval,omitempty" toml:"startListInterval,omitempty"`

	// ExportRetention is a duration such as "24h"
	ExportRetention string `json:"exportRetention,omitempty" yaml:"exportRetention,omitempty" toml:"exportRetention,omitempty"`

	// MaxUploadAttempts dead-letters a file after n failed uploads; 0 retries forever
	MaxUploadAttempts int `json:"maxUploadAttempts,omitempty" yaml:"maxUploadAttempts,omitempty" toml:"maxUploadAttempts,omitempty"`

	// StatusFile receives a JSON snapshot of the status on every change
	StatusFile string `json:"statusFile,omitempty" yaml:"statusFile,omitempty" toml:"statusFile,omitempty"`

	StatusServer *StatusServerConfig `json:"statusServer,omitempty" yaml:"statusServer,omitempty" toml:"statusServer,omitempty"`
	Telemetry    *telemetry.Config   `json:"telemetry,omitempty" yaml:"telemetry,omitempty" toml:"telemetry,omitempty"`
}

// StatusServerConfig configures the local status API
type StatusServerConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Address string `json:"address,omitempty" yaml:"address,omitempty" toml:"address,omitempty"`
}

// GetAddress returns the listen address, using the default if not specified
func (s *StatusServerConfig) GetAddress() string {
	if s == nil || s.Address == "" {
		return DefaultStatusAddress
	}
	return s.Address
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the configuration file, applies defaults and checks the
// values that are present. Required fields are not checked here; see Validate.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, formatOf(loaderCfg.path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format is a configuration file format
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatRoster Format = "roster"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case RosterExtension:
		return FormatRoster
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Parse decodes data in the given format, applies defaults and checks the values
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatRoster:
		var r Roster
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse roster file: %w", err)
		}
		cfg = *r.ToConfig()
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SyncInterval == 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.ResultExtension == "" {
		c.ResultExtension = DefaultResultExtension
	}
	if !strings.HasPrefix(c.ResultExtension, ".") {
		c.ResultExtension = "." + c.ResultExtension
	}
	if c.ExportRetention == "" {
		c.ExportRetention = DefaultExportRetention.String()
	}
	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
}

// SyncIntervalDuration returns the drain interval
func (c *Config) SyncIntervalDuration() time.Duration {
	if c.SyncInterval <= 0 {
		return DefaultSyncInterval * time.Second
	}
	return time.Duration(c.SyncInterval) * time.Second
}

// StartListIntervalDuration returns the start list refresh interval, or 0 when disabled
func (c *Config) StartListIntervalDuration() time.Duration {
	if c.StartListInterval <= 0 {
		return 0
	}
	return time.Duration(c.StartListInterval) * time.Second
}

// ExportRetentionDuration returns the start list retention
func (c *Config) ExportRetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.ExportRetention)
	if err != nil || d <= 0 {
		return DefaultExportRetention
	}
	return d
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.StatusServer != nil {
		s := *c.StatusServer
		out.StatusServer = &s
	}
	if c.Telemetry != nil {
		t := *c.Telemetry
		if c.Telemetry.Tracing != nil {
			tr := *c.Telemetry.Tracing
			t.Tracing = &tr
		}
		if c.Telemetry.Metrics != nil {
			m := *c.Telemetry.Metrics
			t.Metrics = &m
		}
		out.Telemetry = &t
	}
	return &out
}
