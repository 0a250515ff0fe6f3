package config

import (
	"strings"
)

// Roster is the connection file handed out by the competition platform
type Roster struct {
	URL          string `json:"url"`
	Token        string `json:"token"`
	DeviceID     string `json:"deviceId,omitempty"`
	Email        string `json:"email,omitempty"`
	MeetingID    string `json:"meetingId"`
	MeetingName  string `json:"meetingName,omitempty"`
	TimingSystem string `json:"timingSystem,omitempty"`
	DevServer    bool   `json:"devServer,omitempty"`
}

// ToConfig maps the roster to a configuration. A development server is
// always reached over plain HTTP.
func (r *Roster) ToConfig() *Config {
	return &Config{
		ServerURL:       rosterURL(r.URL, r.DevServer),
		APIKey:          r.Token,
		CompetitionID:   r.MeetingID,
		CompetitionName: r.MeetingName,
		TimingSystem:    r.TimingSystem,
		DeviceID:        r.DeviceID,
		Email:           r.Email,
	}
}

// RosterFromConfig maps a configuration back to a roster. DevServer is
// inferred from a loopback host in the server URL.
func RosterFromConfig(c *Config) *Roster {
	return &Roster{
		URL:          c.ServerURL,
		Token:        c.APIKey,
		DeviceID:     c.DeviceID,
		Email:        c.Email,
		MeetingID:    c.CompetitionID,
		MeetingName:  c.CompetitionName,
		TimingSystem: c.TimingSystem,
		DevServer:    isLocalURL(c.ServerURL),
	}
}

func rosterURL(raw string, devServer bool) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	rest := raw
	hasScheme := false
	for _, scheme := range []string{"http://", "https://"} {
		if len(raw) >= len(scheme) && strings.EqualFold(raw[:len(scheme)], scheme) {
			rest = raw[len(scheme):]
			hasScheme = true
			break
		}
	}

	switch {
	case devServer:
		return "http://" + rest
	case hasScheme:
		return raw
	default:
		return "https://" + rest
	}
}

func isLocalURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "localhost") || strings.Contains(lower, "127.0.0.1")
}
