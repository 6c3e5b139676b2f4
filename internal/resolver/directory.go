package resolver

import (
	"context"
	"errors"

	"github.com/tripflow/flightfinder/internal/geonames"
	"github.com/tripflow/flightfinder/pkg/logger"
)

// AirportSearcher queries a geographic directory's airport search-by-name
// capability.
type AirportSearcher interface {
	SearchAirports(ctx context.Context, place string) ([]geonames.Airport, error)
}

// Directory resolves places by asking an external geo-directory for
// airports matching the name and taking the first result that carries a
// usable code. Name search is noisier than the local dataset, so its
// matches score a fixed confidence below exact local matches.
type Directory struct {
	searcher AirportSearcher
	logger   *logger.Logger
}

// directoryConfidence is the fixed score for a directory name-search hit.
const directoryConfidence = 0.8

// NewDirectory creates a directory lookup resolver.
func NewDirectory(searcher AirportSearcher, log *logger.Logger) *Directory {
	return &Directory{
		searcher: searcher,
		logger:   log.Named("directory-resolver"),
	}
}

// Source implements Resolver.
func (d *Directory) Source() Source {
	return SourceDirectory
}

// Resolve implements Resolver.
func (d *Directory) Resolve(ctx context.Context, query Query) (Result, error) {
	records, err := d.searcher.SearchAirports(ctx, query.Place)
	if err != nil {
		if errors.Is(err, geonames.ErrAuth) {
			return Result{}, AuthFailure(SourceDirectory, err)
		}
		return Result{}, Unavailable(SourceDirectory, err)
	}

	var candidates []Candidate
	for _, record := range records {
		if record.Code == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Code:       record.Code,
			Name:       record.Name,
			City:       record.City,
			Country:    record.Country,
			Confidence: directoryConfidence,
		})
	}
	if len(candidates) == 0 {
		d.logger.Debug("No directory match with usable code",
			logger.String("place", query.Place),
			logger.Int("raw_results", len(records)))
		return Result{}, nil
	}

	d.logger.Debug("Directory match",
		logger.String("place", query.Place),
		logger.String("code", candidates[0].Code))

	return Result{
		Code:       candidates[0].Code,
		Confidence: directoryConfidence,
		Source:     SourceDirectory,
		Candidates: candidates,
	}, nil
}
