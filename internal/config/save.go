package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Marshal encodes the configuration in the given format
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatRoster:
		return json.MarshalIndent(RosterFromConfig(c), "", "  ")
	case FormatYAML:
		return yaml.Marshal(c)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(c, "", "  ")
	}
}

// SaveConfig writes the configuration to path in the format implied by its
// extension. The file holds the API key, so it is only readable by the owner.
func SaveConfig(c *Config, path string) error {
	data, err := c.Marshal(formatOf(path))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename config file: %w", err)
	}
	return nil
}

// SaveRoster writes the roster representation of the configuration to path
func SaveRoster(c *Config, path string) error {
	if formatOf(path) != FormatRoster {
		path += RosterExtension
	}
	return SaveConfig(c, path)
}
