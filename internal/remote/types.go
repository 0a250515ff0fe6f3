package remote

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/stacklok/lynx-sync-agent/internal/lif"
)

// UploadRequest is the body of a result upload
type UploadRequest struct {
	CompetitionID string             `json:"competitionId"`
	FileName      string             `json:"fileName"`
	Results       []lif.ResultRecord `json:"results"`
}

// UploadResponse describes an accepted upload
type UploadResponse struct {
	StatusCode int
	RequestID  string
	// Imported is the number of results the server reported as imported,
	// or -1 when the response did not say
	Imported int
}

// FlexString decodes a JSON string, number or null into a string. The
// platform is not consistent about numeric identifiers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
		return nil
	}
}

// String returns the plain string value
func (f FlexString) String() string {
	return string(f)
}

// Registration is an athlete entered in an event
type Registration struct {
	FirstName     FlexString `json:"firstName"`
	LastName      FlexString `json:"lastName"`
	AthleteName   FlexString `json:"athleteName"`
	Club          FlexString `json:"club"`
	StartNumber   FlexString `json:"startNumber"`
	LicenseNumber FlexString `json:"licenseNumber"`
}

// Names returns the given name and surname of the athlete. When the
// separate fields are missing the full athlete name is split on its last
// space; a single word is treated as the surname.
func (r Registration) Names() (given, surname string) {
	given = strings.TrimSpace(r.FirstName.String())
	surname = strings.TrimSpace(r.LastName.String())
	if given != "" || surname != "" {
		return given, surname
	}

	full := strings.Join(strings.Fields(r.AthleteName.String()), " ")
	if full == "" {
		return "", ""
	}
	idx := strings.LastIndex(full, " ")
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+1:]
}

// StartListEvent is one event (round and heat) of the competition schedule
type StartListEvent struct {
	EventNumber   FlexString     `json:"eventNumber"`
	EventName     FlexString     `json:"eventName"`
	Round         FlexString     `json:"round"`
	Heat          FlexString     `json:"heat"`
	ScheduledTime FlexString     `json:"scheduledTime"`
	Registrations []Registration `json:"registrations"`
}
