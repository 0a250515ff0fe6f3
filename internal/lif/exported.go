package lif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Field positions of the start list (".evt") format written by the exporter
const (
	evtFieldEventNumber = 0
	evtFieldRound       = 1
	evtFieldHeat        = 2
	evtFieldEventName   = 3
	evtFieldTime        = 9

	evtFieldStartNumber = 1
	evtFieldSurname     = 2
	evtFieldGivenName   = 3
	evtFieldClub        = 4
	evtFieldLicense     = 7
)

// StartListAthlete is an athlete row of a start list file
type StartListAthlete struct {
	StartNumber   string
	Surname       string
	GivenName     string
	Club          string
	LicenseNumber string
}

// StartListEvent is an event header row of a start list file together with
// the athlete rows that follow it
type StartListEvent struct {
	EventNumber   string
	Round         string
	Heat          string
	EventName     string
	ScheduledTime string
	Athletes      []StartListAthlete
}

// ScheduleEntry is one line of a schedule (".sch") file
type ScheduleEntry struct {
	EventNumber string
	Round       string
	Heat        string
	Time        string
}

// ParseStartList reads a start list file. Rows with a non-empty first field
// open a new event; rows with an empty first field are athletes of the
// current event. Athlete rows before any event header are an error.
func ParseStartList(r io.Reader) ([]StartListEvent, error) {
	var events []StartListEvent

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isSkippable(line) {
			continue
		}

		fields := SplitLine(line)
		if field(fields, evtFieldEventNumber) != "" {
			events = append(events, StartListEvent{
				EventNumber:   field(fields, evtFieldEventNumber),
				Round:         field(fields, evtFieldRound),
				Heat:          field(fields, evtFieldHeat),
				EventName:     field(fields, evtFieldEventName),
				ScheduledTime: field(fields, evtFieldTime),
			})
			continue
		}

		if len(events) == 0 {
			return nil, fmt.Errorf("line %d: athlete row before any event header", lineNo)
		}
		current := &events[len(events)-1]
		current.Athletes = append(current.Athletes, StartListAthlete{
			StartNumber:   field(fields, evtFieldStartNumber),
			Surname:       field(fields, evtFieldSurname),
			GivenName:     field(fields, evtFieldGivenName),
			Club:          field(fields, evtFieldClub),
			LicenseNumber: field(fields, evtFieldLicense),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read start list: %w", err)
	}
	return events, nil
}

// ParseSchedule reads a schedule file
func ParseSchedule(r io.Reader) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if isSkippable(line) {
			continue
		}
		fields := SplitLine(strings.TrimSpace(line))
		entries = append(entries, ScheduleEntry{
			EventNumber: field(fields, 0),
			Round:       field(fields, 1),
			Heat:        field(fields, 2),
			Time:        field(fields, 3),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return entries, nil
}
