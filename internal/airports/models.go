package airports

import "regexp"

// codePattern is the shape of a valid IATA airport code.
var codePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Record represents a single airport from the static dataset.
// Records are immutable after load; the table hands out copies, never
// pointers into its backing slice.
type Record struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// hasCoords marks records whose coordinates parsed cleanly. Records
	// without coordinates stay in the table for name matching but are
	// excluded from distance search.
	hasCoords bool
}

// HasCoordinates reports whether the record carries usable coordinates.
func (r Record) HasCoordinates() bool {
	return r.hasCoords
}

// IsValidCode reports whether s is a well-formed 3-letter IATA code.
func IsValidCode(s string) bool {
	return codePattern.MatchString(s)
}
