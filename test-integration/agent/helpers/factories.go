package helpers

import (
	"fmt"
	"strings"
)

// ResultRow is one athlete line of a result file
type ResultRow struct {
	Position      string
	StartNumber   string
	Club          string
	Result        string
	LicenseNumber string
	Reaction      string
	Wind          string
}

// ResultFile renders a result file for one heat
func ResultFile(eventNumber, round, heat, eventName string, rows ...ResultRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s,%s,%s,%s,,,,,,,14:05:00\n", eventNumber, round, heat, eventName)
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,,,%s,,%s,%s,%s,%s\n",
			r.Position, r.StartNumber, r.Club, r.Result, r.LicenseNumber, r.Reaction, r.Wind)
	}
	return b.String()
}

// ThreeFinishers returns a heat with three placed athletes
func ThreeFinishers() []ResultRow {
	return []ResultRow{
		{Position: "1", StartNumber: "101", Club: "IFK Lund", Result: "10.52", LicenseNumber: "L-101", Reaction: "0.152", Wind: "+0.3"},
		{Position: "2", StartNumber: "102", Club: "Hammarby IF", Result: "10.61", LicenseNumber: "L-102", Reaction: "0.160", Wind: "+0.3"},
		{Position: "3", StartNumber: "103", Club: "Malmo AI", Result: "10.74", LicenseNumber: "L-103", Reaction: "0.171", Wind: "+0.3"},
	}
}

// StartLists is a platform response with one heat of the 100m
const StartLists = `{"data":[{"eventNumber":12,"eventName":"100m Men","round":1,"heat":2,"scheduledTime":"14:05",
"registrations":[
{"firstName":"Erik","lastName":"Berg","club":"IFK Lund","startNumber":101,"licenseNumber":"L-101"},
{"firstName":"Jonas","lastName":"Ek","club":"Hammarby IF","startNumber":102,"licenseNumber":"L-102"}]}]}`
