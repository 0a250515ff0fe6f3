package lif

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const commentMarker = ";"

// maxLineSize bounds a single line; longer lines are skipped
const maxLineSize = 1 << 20

var errLineTooLong = errors.New("line too long")

// Field positions used by the result file format
const (
	fieldPosition     = 0
	fieldStartNumber  = 1
	fieldRound        = 1
	fieldHeat         = 2
	fieldEventName    = 3
	fieldClub         = 4
	fieldClubFallback = 5
	fieldResult       = 6
	fieldLicense      = 7
	fieldReactionTime = 8
	fieldWind         = 9
	fieldTimestamp    = 10
)

const (
	minMetadataFields  = 4
	minResultFields    = 6
	minEventNameLength = 3
)

var (
	positionTokenRe = regexp.MustCompile(`^(DNS|DNF|DQ|\d+)$`)
	digitsRe        = regexp.MustCompile(`^\d+$`)
)

// SplitLine splits a line into trimmed comma separated fields
func SplitLine(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// field returns the field at index i, or "" when the line is too short
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// isSkippable reports whether a raw line carries no data
func isSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, commentMarker)
}

// Classify decides whether the fields of a line form event metadata, an
// athlete result or neither. Metadata is checked first.
func Classify(fields []string) LineKind {
	if isMetadata(fields) {
		return LineMetadata
	}
	if isResult(fields) {
		return LineResult
	}
	return LineIgnored
}

func isMetadata(fields []string) bool {
	if len(fields) < minMetadataFields {
		return false
	}
	first := field(fields, fieldPosition)
	name := field(fields, fieldEventName)
	if first == "" || len(name) < minEventNameLength {
		return false
	}
	if !positionTokenRe.MatchString(first) {
		return true
	}
	if !digitsRe.MatchString(first) {
		return false
	}
	// A numeric event number looks like a placing. Headers carry none of the
	// athlete fields, and they have either a textual round or a timestamp,
	// which result lines never have.
	for i := fieldClub; i <= fieldWind; i++ {
		if field(fields, i) != "" {
			return false
		}
	}
	return !digitsRe.MatchString(field(fields, fieldRound)) || field(fields, fieldTimestamp) != ""
}

func isResult(fields []string) bool {
	if len(fields) < minResultFields {
		return false
	}
	switch first := field(fields, fieldPosition); first {
	case "DNS", "DNF", "DQ":
		return true
	default:
		return digitsRe.MatchString(first)
	}
}

// DetermineStatus derives the status of a result from its raw position and
// result fields
func DetermineStatus(position, result string) Status {
	switch {
	case position == "DNS":
		return StatusDNS
	case position == "DNF":
		return StatusDNF
	case position == "DQ":
		return StatusDQ
	case digitsRe.MatchString(position) && result != "":
		return StatusValid
	case digitsRe.MatchString(position):
		return StatusNoResult
	default:
		return StatusUnknown
	}
}

// parseEventInfo builds the EventInfo carried by a metadata line
func parseEventInfo(fields []string) *EventInfo {
	return &EventInfo{
		EventNumber: field(fields, fieldPosition),
		Round:       field(fields, fieldRound),
		Heat:        field(fields, fieldHeat),
		EventName:   field(fields, fieldEventName),
		Timestamp:   field(fields, fieldTimestamp),
	}
}

// parseResult builds a record from a result line. It returns nil when the
// line has no license number.
func parseResult(fields []string, info *EventInfo) *ResultRecord {
	license := field(fields, fieldLicense)
	if license == "" {
		return nil
	}

	position := field(fields, fieldPosition)
	result := field(fields, fieldResult)

	club := field(fields, fieldClub)
	if club == "" {
		club = field(fields, fieldClubFallback)
	}

	rec := &ResultRecord{
		StartNumber:   field(fields, fieldStartNumber),
		Result:        result,
		LicenseNumber: license,
		ReactionTime:  parseOptionalFloat(field(fields, fieldReactionTime)),
		Wind:          parseOptionalFloat(field(fields, fieldWind)),
		Status:        DetermineStatus(position, result),
		Club:          club,
	}
	if digitsRe.MatchString(position) {
		if n, err := strconv.Atoi(position); err == nil {
			rec.Position = &n
		}
	}
	if info != nil {
		infoCopy := *info
		rec.EventInfo = &infoCopy
	}
	return rec
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Decoder decodes result files line by line.
// The current EventInfo is the only state; it is cleared by Reset.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	current *EventInfo
}

// NewDecoder creates a decoder with no event context
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset clears the current event context
func (d *Decoder) Reset() {
	d.current = nil
}

// EventInfo returns a copy of the current event context, or nil
func (d *Decoder) EventInfo() *EventInfo {
	if d.current == nil {
		return nil
	}
	info := *d.current
	return &info
}

// DecodeLine classifies one line and applies it to the decoder.
// A record is returned only for result lines with a license number.
func (d *Decoder) DecodeLine(line string) (LineKind, *ResultRecord) {
	if isSkippable(line) {
		return LineIgnored, nil
	}

	fields := SplitLine(strings.TrimSpace(line))
	switch kind := Classify(fields); kind {
	case LineMetadata:
		d.current = parseEventInfo(fields)
		return kind, nil
	case LineResult:
		return kind, parseResult(fields, d.current)
	default:
		return LineIgnored, nil
	}
}

// Decode resets the decoder and reads every record from r
func (d *Decoder) Decode(r io.Reader) ([]ResultRecord, error) {
	d.Reset()

	records := make([]ResultRecord, 0)
	br := bufio.NewReader(r)
	for {
		line, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, errLineTooLong) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read result data: %w", err)
		}
		if _, rec := d.DecodeLine(line); rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed and reported as errLineTooLong.
func readLine(br *bufio.Reader) (string, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return "", err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", errLineTooLong
	}
	return string(buf), nil
}

// ParseResults decodes a complete result file with a fresh decoder
func ParseResults(r io.Reader) ([]ResultRecord, error) {
	return NewDecoder().Decode(r)
}

// ParseResultsString decodes result file content held in memory
func ParseResultsString(content string) ([]ResultRecord, error) {
	return ParseResults(strings.NewReader(content))
}
