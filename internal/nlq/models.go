package nlq

import (
	"errors"
	"fmt"
	"time"
)

// Trip types as the model is asked to emit them.
const (
	TripTypeOneWay    = "one-way"
	TripTypeRoundtrip = "roundtrip"
)

// TripQuery is the structured form of a natural-language flight request.
// Field names mirror the JSON contract given to the language model.
type TripQuery struct {
	OriginCity      string  `json:"origin_city"`
	DestinationCity string  `json:"destination_city"`
	DepartureDate   string  `json:"departure_date"`
	ReturnDate      string  `json:"return_date,omitempty"`
	Passengers      int     `json:"passengers"`
	MaxPrice        float64 `json:"max_price,omitempty"`
	TripType        string  `json:"trip_type"`
}

// ErrMissingFields is wrapped by Validate when the query lacks the
// essentials (origin, destination, departure date).
var ErrMissingFields = errors.New("query is missing essential flight details")

// Normalize fills defaults the model is allowed to omit.
func (q *TripQuery) Normalize() {
	if q.Passengers <= 0 {
		q.Passengers = 1
	}
	if q.TripType == "" {
		if q.ReturnDate != "" {
			q.TripType = TripTypeRoundtrip
		} else {
			q.TripType = TripTypeOneWay
		}
	}
}

// Validate checks the essentials and date formats.
func (q TripQuery) Validate() error {
	if q.OriginCity == "" || q.DestinationCity == "" || q.DepartureDate == "" {
		return fmt.Errorf("%w: origin=%q destination=%q departure=%q",
			ErrMissingFields, q.OriginCity, q.DestinationCity, q.DepartureDate)
	}
	if _, err := time.Parse("2006-01-02", q.DepartureDate); err != nil {
		return fmt.Errorf("invalid departure date %q: %w", q.DepartureDate, err)
	}
	if q.ReturnDate != "" {
		if _, err := time.Parse("2006-01-02", q.ReturnDate); err != nil {
			return fmt.Errorf("invalid return date %q: %w", q.ReturnDate, err)
		}
	}
	return nil
}
