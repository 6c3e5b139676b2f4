package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// state names the orchestrator's position in the resolver chain. The
// machine is strictly ordered and short-circuits on the first result at
// or above the acceptance threshold.
type state string

const (
	stateTryLocal     state = "TRY_LOCAL"
	stateTryGeocode   state = "TRY_GEOCODE"
	stateTryDirectory state = "TRY_DIRECTORY"
	stateResolved     state = "RESOLVED"
	stateUnresolved   state = "UNRESOLVED"
)

func stateFor(source Source) state {
	switch source {
	case SourceLocal:
		return stateTryLocal
	case SourceGeocode:
		return stateTryGeocode
	case SourceDirectory:
		return stateTryDirectory
	default:
		return state("TRY_" + strings.ToUpper(string(source)))
	}
}

// Orchestrator runs resolvers in priority order. A resolver's result is
// accepted only if its confidence meets the acceptance threshold;
// otherwise the next resolver is tried while the best candidate seen so
// far is retained. External failures never abort the chain: they are
// logged (auth failures distinctly, since they mean misconfiguration)
// and the chain advances. Exhaustion with no candidate at all yields
// ErrUnresolved.
type Orchestrator struct {
	resolvers       []Resolver
	acceptThreshold float64
	resolverTimeout time.Duration
	logger          *logger.Logger
}

// NewOrchestrator creates an orchestrator over the given resolvers, in
// the order they should be tried. resolverTimeout bounds each resolver
// invocation; a timeout is treated like any other service failure.
func NewOrchestrator(resolvers []Resolver, acceptThreshold float64, resolverTimeout time.Duration, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		resolvers:       resolvers,
		acceptThreshold: acceptThreshold,
		resolverTimeout: resolverTimeout,
		logger:          log.Named("orchestrator"),
	}
}

// Resolve runs the chain for a single query. It returns ErrUnresolved
// only when every resolver produced neither a candidate nor an accepted
// match. A below-threshold best candidate is returned with
// LowConfidence set rather than discarded.
func (o *Orchestrator) Resolve(ctx context.Context, query Query) (Result, error) {
	var best Result

	for _, r := range o.resolvers {
		current := stateFor(r.Source())
		o.logger.Debug("Entering resolver state",
			logger.String("state", string(current)),
			logger.String("place", query.Place))

		result, err := o.tryResolver(ctx, r, query)
		if err != nil {
			if IsAuthFailure(err) {
				o.logger.Warn("Resolver credentials rejected, continuing degraded",
					logger.String("state", string(current)),
					logger.Error(err))
			} else {
				o.logger.Warn("Resolver unavailable, continuing",
					logger.String("state", string(current)),
					logger.Error(err))
			}
			continue
		}
		if result.Empty() {
			continue
		}

		if result.Confidence >= o.acceptThreshold {
			o.logger.Debug("Resolved",
				logger.String("state", string(stateResolved)),
				logger.String("place", query.Place),
				logger.String("code", result.Code),
				logger.String("source", string(result.Source)),
				logger.Float64("confidence", result.Confidence))
			return result, nil
		}

		if result.Confidence > best.Confidence {
			best = result
		}
	}

	if !best.Empty() {
		best.LowConfidence = true
		o.logger.Info("Resolved below acceptance threshold",
			logger.String("place", query.Place),
			logger.String("code", best.Code),
			logger.String("source", string(best.Source)),
			logger.Float64("confidence", best.Confidence))
		return best, nil
	}

	o.logger.Info("Unresolved",
		logger.String("state", string(stateUnresolved)),
		logger.String("place", query.Place))
	return Result{}, ErrUnresolved
}

func (o *Orchestrator) tryResolver(ctx context.Context, r Resolver, query Query) (Result, error) {
	if o.resolverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.resolverTimeout)
		defer cancel()
	}
	return r.Resolve(ctx, query)
}
