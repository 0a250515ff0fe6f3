package lif

// Status is the outcome of an athlete's attempt as derived from the raw
// position and result fields
type Status string

const (
	// StatusValid means the athlete has a placing and a result
	StatusValid Status = "VALID"

	// StatusDNS means the athlete did not start
	StatusDNS Status = "DNS"

	// StatusDNF means the athlete did not finish
	StatusDNF Status = "DNF"

	// StatusDQ means the athlete was disqualified
	StatusDQ Status = "DQ"

	// StatusNoResult means the athlete has a placing but no result yet
	StatusNoResult Status = "NO_RESULT"

	// StatusUnknown is used when the position field is not recognised
	StatusUnknown Status = "UNKNOWN"
)

// LineKind is the classification of a single line
type LineKind int

const (
	// LineIgnored is a blank, comment or unrecognised line
	LineIgnored LineKind = iota

	// LineMetadata is an event header line
	LineMetadata

	// LineResult is an athlete result line
	LineResult
)

// String returns a readable name for the line kind
func (k LineKind) String() string {
	switch k {
	case LineMetadata:
		return "metadata"
	case LineResult:
		return "result"
	default:
		return "ignored"
	}
}

// EventInfo describes the event, round and heat the following results belong to
type EventInfo struct {
	EventNumber string `json:"eventNumber"`
	Round       string `json:"round"`
	Heat        string `json:"heat"`
	EventName   string `json:"eventName"`
	Timestamp   string `json:"timestamp"`
}

// ResultRecord is a single decoded athlete result
type ResultRecord struct {
	// Position is the placing, nil when the position field is not numeric
	Position      *int       `json:"position"`
	StartNumber   string     `json:"startNumber"`
	Result        string     `json:"result"`
	LicenseNumber string     `json:"licenseNumber"`
	ReactionTime  *float64   `json:"reactionTime"`
	Wind          *float64   `json:"wind"`
	Status        Status     `json:"status"`
	Club          string     `json:"club"`
	EventInfo     *EventInfo `json:"eventInfo"`
}
