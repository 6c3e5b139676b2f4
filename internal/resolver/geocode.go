package resolver

import (
	"context"
	"fmt"

	"github.com/tripflow/flightfinder/internal/airports"
	"github.com/tripflow/flightfinder/internal/geocoding"
	"github.com/tripflow/flightfinder/pkg/logger"
)

// Geocoder turns a place name into coordinate candidates, best first.
// An empty slice with a nil error means "place unknown"; an error means
// the service was unavailable.
type Geocoder interface {
	Geocode(ctx context.Context, place string) ([]geocoding.Location, error)
}

// Geocode resolves a place by geocoding it and then picking the nearest
// airport from the local table by great-circle distance. Matches beyond
// the radius cap are discarded: a wrong airport is worse than no answer.
type Geocode struct {
	geocoder Geocoder
	table    *airports.Table
	radiusKM float64
	logger   *logger.Logger
}

// Confidence for a nearest-airport match decays linearly with distance,
// from maxConfidence at the query point down to minConfidence at the
// radius cap.
const (
	geocodeMaxConfidence = 0.9
	geocodeMinConfidence = 0.5
)

// NewGeocode creates a geocoding resolver with the given search radius
// in kilometers.
func NewGeocode(geocoder Geocoder, table *airports.Table, radiusKM float64, log *logger.Logger) *Geocode {
	return &Geocode{
		geocoder: geocoder,
		table:    table,
		radiusKM: radiusKM,
		logger:   log.Named("geocode-resolver"),
	}
}

// Source implements Resolver.
func (g *Geocode) Source() Source {
	return SourceGeocode
}

// Resolve implements Resolver.
func (g *Geocode) Resolve(ctx context.Context, query Query) (Result, error) {
	locations, err := g.geocoder.Geocode(ctx, query.Place)
	if err != nil {
		return Result{}, Unavailable(SourceGeocode, err)
	}
	if len(locations) == 0 {
		g.logger.Debug("No geocoding results", logger.String("place", query.Place))
		return Result{}, nil
	}

	loc := locations[0]
	record, distMeters, ok := g.table.Nearest(loc.Latitude, loc.Longitude)
	if !ok {
		return Result{}, Unavailable(SourceGeocode, fmt.Errorf("airport table has no records with coordinates"))
	}

	distKM := airports.MetersToKM(distMeters)
	if distKM > g.radiusKM {
		g.logger.Debug("Nearest airport beyond radius cap",
			logger.String("place", query.Place),
			logger.String("code", record.Code),
			logger.Float64("distance_km", distKM),
			logger.Float64("radius_km", g.radiusKM))
		return Result{}, nil
	}

	confidence := geocodeMaxConfidence - (geocodeMaxConfidence-geocodeMinConfidence)*(distKM/g.radiusKM)

	g.logger.Debug("Nearest airport match",
		logger.String("place", query.Place),
		logger.String("code", record.Code),
		logger.Float64("distance_km", distKM),
		logger.Float64("confidence", confidence))

	return Result{
		Code:       record.Code,
		Confidence: confidence,
		Source:     SourceGeocode,
		Candidates: []Candidate{toCandidate(record, confidence)},
	}, nil
}
