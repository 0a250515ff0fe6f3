package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override configuration values
const EnvPrefix = "LYNX_SYNC"

// Override keys. Environment variables are EnvPrefix + "_" + the key in
// upper case with dashes replaced by underscores, e.g. LYNX_SYNC_API_KEY.
const (
	KeyServerURL         = "server-url"
	KeyAPIKey            = "api-key"
	KeyInputDir          = "input-dir"
	KeyOutputDir         = "output-dir"
	KeyCompetitionID     = "competition-id"
	KeySyncInterval      = "sync-interval"
	KeyAutoSync          = "auto-sync"
	KeyResultExtension   = "result-extension"
	KeyStartListInterval = "start-list-interval"
	KeyExportRetention   = "export-retention"
	KeyMaxUploadAttempts = "max-upload-attempts"
	KeyStatusFile        = "status-file"
	KeyStatusAddress     = "status-address"
)

// NewViper returns a viper instance reading LYNX_SYNC_* environment variables
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides copies every key set in v (by environment, bound flag or
// explicit Set) onto the configuration, then re-applies defaults
func (c *Config) ApplyOverrides(v *viper.Viper) {
	if v == nil {
		return
	}

	strs := map[string]*string{
		KeyServerURL:       &c.ServerURL,
		KeyAPIKey:          &c.APIKey,
		KeyInputDir:        &c.InputDir,
		KeyOutputDir:       &c.OutputDir,
		KeyCompetitionID:   &c.CompetitionID,
		KeyResultExtension: &c.ResultExtension,
		KeyExportRetention: &c.ExportRetention,
		KeyStatusFile:      &c.StatusFile,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		KeySyncInterval:      &c.SyncInterval,
		KeyStartListInterval: &c.StartListInterval,
		KeyMaxUploadAttempts: &c.MaxUploadAttempts,
	}
	for key, dst := range ints {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	if v.IsSet(KeyAutoSync) {
		c.AutoSync = v.GetBool(KeyAutoSync)
	}
	if v.IsSet(KeyStatusAddress) {
		if c.StatusServer == nil {
			c.StatusServer = &StatusServerConfig{}
		}
		c.StatusServer.Enabled = true
		c.StatusServer.Address = v.GetString(KeyStatusAddress)
	}

	c.applyDefaults()
}
