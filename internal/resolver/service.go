package resolver

import (
	"context"
	"fmt"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// Cache stores previously resolved places. Implementations must be safe
// for concurrent use. A cache is an optimization only: every method may
// fail without affecting resolution correctness.
type Cache interface {
	Lookup(ctx context.Context, place string) (Result, bool, error)
	Store(ctx context.Context, place string, result Result) error
	Purge(ctx context.Context) error
}

// Service is the entry point callers use to resolve place names. It
// fronts the orchestrator with an optional write-through cache keyed by
// the normalized place string. Only confident results are cached;
// low-confidence fallbacks are re-resolved every time.
type Service struct {
	orchestrator *Orchestrator
	cache        Cache
	logger       *logger.Logger
}

// NewService creates a resolution service. cache may be nil.
func NewService(orchestrator *Orchestrator, cache Cache, log *logger.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		cache:        cache,
		logger:       log.Named("resolver"),
	}
}

// Resolve maps a free-text place to an airport code. See
// Orchestrator.Resolve for the failure contract.
func (s *Service) Resolve(ctx context.Context, place string) (Result, error) {
	key := normalizePlace(place)

	if s.cache != nil {
		cached, ok, err := s.cache.Lookup(ctx, key)
		if err != nil {
			s.logger.Warn("Resolution cache lookup failed", logger.Error(err))
		} else if ok {
			s.logger.Debug("Resolution cache hit",
				logger.String("place", place),
				logger.String("code", cached.Code))
			return cached, nil
		}
	}

	result, err := s.orchestrator.Resolve(ctx, Query{Place: place})
	if err != nil {
		return Result{}, err
	}

	if s.cache != nil && !result.LowConfidence {
		if err := s.cache.Store(ctx, key, result); err != nil {
			s.logger.Warn("Resolution cache store failed", logger.Error(err))
		}
	}

	return result, nil
}

// PurgeCache drops every cached resolution. Called after the airport
// dataset is replaced: stale mappings must not outlive the table they
// came from.
func (s *Service) PurgeCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Purge(ctx); err != nil {
		return fmt.Errorf("failed to purge resolution cache: %w", err)
	}
	s.logger.Info("Resolution cache purged")
	return nil
}
