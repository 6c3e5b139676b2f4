// Package search composes query understanding, airport-code resolution
// and offer retrieval into the end-to-end flight search flow.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripflow/flightfinder/internal/flights"
	"github.com/tripflow/flightfinder/internal/nlq"
	"github.com/tripflow/flightfinder/internal/resolver"
	"github.com/tripflow/flightfinder/pkg/logger"
)

// ErrEndpointUnresolved marks a search that failed because an origin or
// destination could not be mapped to an airport code. The response still
// carries everything that was resolved; nothing is silently defaulted.
var ErrEndpointUnresolved = errors.New("origin or destination could not be resolved")

// QueryParser extracts a structured trip query from natural language.
type QueryParser interface {
	Parse(ctx context.Context, userQuery string) (nlq.TripQuery, error)
}

// PlaceResolver maps a free-text place to an airport code.
type PlaceResolver interface {
	Resolve(ctx context.Context, place string) (resolver.Result, error)
}

// OfferSearcher retrieves priced offers for resolved codes.
type OfferSearcher interface {
	Search(ctx context.Context, req flights.SearchRequest) ([]flights.Offer, error)
}

// AnswerFormatter renders results conversationally. Optional.
type AnswerFormatter interface {
	Format(ctx context.Context, userQuery string, payload any) (string, error)
}

// Endpoint reports how one end of the trip resolved.
type Endpoint struct {
	City       string               `json:"city"`
	Code       string               `json:"code,omitempty"`
	Confidence float64              `json:"confidence,omitempty"`
	Source     resolver.Source      `json:"source,omitempty"`
	Candidates []resolver.Candidate `json:"candidates,omitempty"`
	Resolved   bool                 `json:"resolved"`
}

// Response is the full result of a natural-language flight search.
type Response struct {
	Query       nlq.TripQuery   `json:"query"`
	Origin      Endpoint        `json:"origin"`
	Destination Endpoint        `json:"destination"`
	Offers      []flights.Offer `json:"offers"`
	Answer      string          `json:"answer,omitempty"`
}

// Service runs the search flow.
type Service struct {
	parser    QueryParser
	resolver  PlaceResolver
	offers    OfferSearcher
	formatter AnswerFormatter
	logger    *logger.Logger
}

// NewService creates a search service. formatter may be nil, in which
// case responses carry structured results only.
func NewService(parser QueryParser, placeResolver PlaceResolver, offers OfferSearcher, formatter AnswerFormatter, log *logger.Logger) *Service {
	return &Service{
		parser:    parser,
		resolver:  placeResolver,
		offers:    offers,
		formatter: formatter,
		logger:    log.Named("search"),
	}
}

// Search answers a natural-language flight request. When an endpoint is
// unresolvable the partially filled response is returned together with
// ErrEndpointUnresolved so callers can report exactly what failed.
func (s *Service) Search(ctx context.Context, userQuery string) (*Response, error) {
	query, err := s.parser.Parse(ctx, userQuery)
	if err != nil {
		return nil, fmt.Errorf("query understanding failed: %w", err)
	}

	response := &Response{
		Query:       query,
		Origin:      s.resolveEndpoint(ctx, query.OriginCity),
		Destination: s.resolveEndpoint(ctx, query.DestinationCity),
	}
	if !response.Origin.Resolved || !response.Destination.Resolved {
		return response, ErrEndpointUnresolved
	}

	offers, err := s.offers.Search(ctx, flights.SearchRequest{
		OriginCode:      response.Origin.Code,
		DestinationCode: response.Destination.Code,
		DepartureDate:   query.DepartureDate,
		ReturnDate:      query.ReturnDate,
		Passengers:      query.Passengers,
		MaxPrice:        query.MaxPrice,
	})
	if err != nil {
		return response, fmt.Errorf("offer retrieval failed: %w", err)
	}
	response.Offers = offers

	if s.formatter != nil {
		answer, err := s.formatter.Format(ctx, userQuery, response)
		if err != nil {
			// Presentation is best-effort; the structured response stands
			s.logger.Warn("Answer formatting failed", logger.Error(err))
		} else {
			response.Answer = answer
		}
	}

	return response, nil
}

func (s *Service) resolveEndpoint(ctx context.Context, city string) Endpoint {
	endpoint := Endpoint{City: city}

	result, err := s.resolver.Resolve(ctx, city)
	if err != nil {
		if !errors.Is(err, resolver.ErrUnresolved) {
			s.logger.Error("Resolution failed", logger.String("city", city), logger.Error(err))
		}
		return endpoint
	}

	endpoint.Code = result.Code
	endpoint.Confidence = result.Confidence
	endpoint.Source = result.Source
	endpoint.Candidates = result.Candidates
	endpoint.Resolved = true

	if result.LowConfidence {
		s.logger.Warn("Endpoint resolved below acceptance threshold",
			logger.String("city", city),
			logger.String("code", result.Code),
			logger.Float64("confidence", result.Confidence))
	}
	return endpoint
}
