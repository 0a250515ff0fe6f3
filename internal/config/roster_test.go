package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoster_ToConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		dev     bool
		wantURL string
	}{
		{name: "https kept", url: "https://results.example.org", wantURL: "https://results.example.org"},
		{name: "http kept", url: "http://results.example.org", wantURL: "http://results.example.org"},
		{name: "bare host gets https", url: "results.example.org", wantURL: "https://results.example.org"},
		{name: "dev server forces http", url: "https://localhost:3000", dev: true, wantURL: "http://localhost:3000"},
		{name: "dev server bare host", url: "192.168.1.10:3000", dev: true, wantURL: "http://192.168.1.10:3000"},
		{name: "empty", url: "", wantURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &Roster{URL: tt.url, Token: "tok", MeetingID: "m-1", MeetingName: "Games", DevServer: tt.dev}
			cfg := r.ToConfig()
			assert.Equal(t, tt.wantURL, cfg.ServerURL)
			assert.Equal(t, "tok", cfg.APIKey)
			assert.Equal(t, "m-1", cfg.CompetitionID)
			assert.Equal(t, "Games", cfg.CompetitionName)
		})
	}
}

func TestRosterFromConfig_InfersDevServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		wantDev bool
	}{
		{url: "http://localhost:3000", wantDev: true},
		{url: "http://127.0.0.1:3000", wantDev: true},
		{url: "https://results.example.org", wantDev: false},
	}

	for _, tt := range tests {
		r := RosterFromConfig(&Config{ServerURL: tt.url})
		assert.Equal(t, tt.wantDev, r.DevServer, tt.url)
	}
}

func TestSaveRoster_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ServerURL = "http://localhost:3000"
	cfg.APIKey = "tok"
	cfg.CompetitionID = "m-1"
	cfg.CompetitionName = "Games"
	cfg.DeviceID = "dev-1"
	cfg.Email = "official@example.org"
	cfg.TimingSystem = "FinishLynx"

	path := filepath.Join(t.TempDir(), "out", "meeting")
	require.NoError(t, SaveRoster(cfg, path))

	data, err := os.ReadFile(path + RosterExtension)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "http://localhost:3000", raw["url"])
	assert.Equal(t, "tok", raw["token"])
	assert.Equal(t, "m-1", raw["meetingId"])
	assert.Equal(t, true, raw["devServer"])

	loaded, err := LoadConfig(WithConfigPath(path + RosterExtension))
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerURL, loaded.ServerURL)
	assert.Equal(t, cfg.APIKey, loaded.APIKey)
	assert.Equal(t, cfg.CompetitionID, loaded.CompetitionID)
	assert.Equal(t, cfg.DeviceID, loaded.DeviceID)
	assert.Equal(t, cfg.Email, loaded.Email)
}

func TestSaveConfig_AllFormats(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ServerURL = "https://results.example.org"
	cfg.APIKey = "k"
	cfg.InputDir = "/in"
	cfg.OutputDir = "/out"
	cfg.CompetitionID = "c-1"
	cfg.AutoSync = true
	cfg.StatusServer = &StatusServerConfig{Enabled: true, Address: ":8787"}

	for _, name := range []string{"agent.json", "agent.yaml", "agent.toml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveConfig(cfg, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			loaded, err := LoadConfig(WithConfigPath(path))
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}
