package flights

// Offer types
const (
	OfferTypeOneWay    = "one-way"
	OfferTypeRoundtrip = "roundtrip"
)

// Leg is a single flight segment of an offer.
type Leg struct {
	Airline         string `json:"airline"`
	FlightNumber    string `json:"flight_number,omitempty"`
	DepartureTime   string `json:"departure_time,omitempty"`
	ArrivalTime     string `json:"arrival_time,omitempty"`
	Stops           int    `json:"stops"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// Offer is a priced itinerary, simplified from the provider response.
type Offer struct {
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Outbound    Leg     `json:"outbound"`
	Return      *Leg    `json:"return,omitempty"`
	ItineraryID string  `json:"itinerary_id,omitempty"`
}

// SearchRequest carries resolved IATA codes plus the trip parameters.
// Callers must only pass codes the resolution pipeline accepted; the
// client does not second-guess them.
type SearchRequest struct {
	OriginCode      string
	DestinationCode string
	DepartureDate   string
	ReturnDate      string
	Passengers      int
	MaxPrice        float64
}

// Provider response shapes. Pricing appears in two forms depending on
// provider version, so both are decoded and reconciled in offerPrice.
type apiResponse struct {
	Data struct {
		Context struct {
			Status string `json:"status"`
		} `json:"context"`
		Itineraries []apiItinerary `json:"itineraries"`
	} `json:"data"`
}

type apiItinerary struct {
	ID    string `json:"id"`
	Price struct {
		Raw       float64 `json:"raw"`
		Formatted string  `json:"formatted"`
	} `json:"price"`
	Pricing struct {
		PricingOptions []struct {
			Price struct {
				Amount float64 `json:"amount"`
			} `json:"price"`
		} `json:"pricingOptions"`
	} `json:"pricing"`
	Legs []apiLeg `json:"legs"`
}

type apiLeg struct {
	Departure         string `json:"departure"`
	Arrival           string `json:"arrival"`
	StopCount         int    `json:"stopCount"`
	DurationInMinutes int    `json:"durationInMinutes"`
	Carriers          struct {
		Marketing []struct {
			Name         string `json:"name"`
			FlightNumber string `json:"flightNumber"`
		} `json:"marketing"`
	} `json:"carriers"`
}

func (it apiItinerary) price() float64 {
	if it.Price.Raw > 0 {
		return it.Price.Raw
	}
	if len(it.Pricing.PricingOptions) > 0 {
		return it.Pricing.PricingOptions[0].Price.Amount
	}
	return 0
}

func (l apiLeg) toLeg() Leg {
	leg := Leg{
		DepartureTime:   l.Departure,
		ArrivalTime:     l.Arrival,
		Stops:           l.StopCount,
		DurationMinutes: l.DurationInMinutes,
	}
	if len(l.Carriers.Marketing) > 0 {
		leg.Airline = l.Carriers.Marketing[0].Name
		leg.FlightNumber = l.Carriers.Marketing[0].FlightNumber
	}
	return leg
}
