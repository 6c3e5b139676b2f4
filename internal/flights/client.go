// Package flights retrieves flight offers from a RapidAPI-hosted flight
// search provider.
package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// Client is responsible for fetching flight offers from the provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiHost    string
	apiKey     string
	currency   string
	maxOffers  int
	logger     *logger.Logger
}

// NewClient creates a new flight offers client
func NewClient(baseURL, apiHost, apiKey, currency string, maxOffers int, timeout time.Duration, log *logger.Logger) *Client {
	if apiKey == "" {
		log.Warn("Flight provider API key is not set, offer searches will fail")
	}
	if currency == "" {
		currency = "USD"
	}
	if maxOffers <= 0 {
		maxOffers = 10
	}
	return &Client{
		baseURL:   baseURL,
		apiHost:   apiHost,
		apiKey:    apiKey,
		currency:  currency,
		maxOffers: maxOffers,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("flights-cli"),
	}
}

// Search fetches offers for the given request, filters them by the
// price ceiling (when set) and returns them cheapest first.
func (c *Client) Search(ctx context.Context, searchReq SearchRequest) ([]Offer, error) {
	params := url.Values{}
	params.Set("originSkyId", searchReq.OriginCode)
	params.Set("destinationSkyId", searchReq.DestinationCode)
	params.Set("departureDate", searchReq.DepartureDate)
	params.Set("adults", strconv.Itoa(searchReq.Passengers))
	params.Set("cabinClass", "economy")
	params.Set("currency", c.currency)
	params.Set("sort", "price")
	if searchReq.ReturnDate != "" {
		params.Set("returnDate", searchReq.ReturnDate)
	}

	reqURL := fmt.Sprintf("%s/flight/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-rapidapi-host", c.apiHost)
	req.Header.Set("x-rapidapi-key", c.apiKey)

	c.logger.Debug("Searching flight offers",
		logger.String("origin", searchReq.OriginCode),
		logger.String("destination", searchReq.DestinationCode),
		logger.String("departure", searchReq.DepartureDate),
		logger.String("return", searchReq.ReturnDate),
		logger.Int("passengers", searchReq.Passengers))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Unexpected status code from flight provider",
			logger.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if data.Data.Context.Status == "incomplete" {
		// The provider paginates slow searches; partial results are still
		// usable for ranking, so they are returned rather than polled.
		c.logger.Warn("Flight provider returned incomplete results")
	}

	offers := c.processItineraries(data.Data.Itineraries, searchReq)

	c.logger.Info("Flight offers retrieved",
		logger.Int("itineraries", len(data.Data.Itineraries)),
		logger.Int("offers", len(offers)))

	return offers, nil
}

// processItineraries maps provider itineraries to Offers, applies the
// price ceiling and sorts ascending by price.
func (c *Client) processItineraries(itineraries []apiItinerary, searchReq SearchRequest) []Offer {
	offers := make([]Offer, 0, len(itineraries))
	for _, itinerary := range itineraries {
		if len(itinerary.Legs) == 0 {
			continue
		}

		price := itinerary.price()
		if price <= 0 {
			// No extractable price; the offer cannot be ranked or filtered
			c.logger.Debug("Skipping unpriced itinerary", logger.String("id", itinerary.ID))
			continue
		}
		if searchReq.MaxPrice > 0 && price > searchReq.MaxPrice {
			continue
		}

		offer := Offer{
			Type:        OfferTypeOneWay,
			Price:       price,
			Currency:    c.currency,
			Outbound:    itinerary.Legs[0].toLeg(),
			ItineraryID: itinerary.ID,
		}
		if len(itinerary.Legs) >= 2 && searchReq.ReturnDate != "" {
			ret := itinerary.Legs[1].toLeg()
			offer.Type = OfferTypeRoundtrip
			offer.Return = &ret
		}
		offers = append(offers, offer)
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Price < offers[j].Price
	})

	if len(offers) > c.maxOffers {
		offers = offers[:c.maxOffers]
	}
	return offers
}
