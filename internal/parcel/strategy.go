package parcel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// Strategy is a single cadastral data source. A nil result with a nil error
// means "no match" and is treated the same as an error: soft failure, advance
// to the next strategy.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, geocode string) (*model.LookupResult, error)
}

// Resolver tries strategies in priority order and stops at the first success.
type Resolver struct {
	strategies []Strategy
}

// NewResolver creates a Resolver with the given strategy chain.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve normalizes the geocode and runs the strategy chain. Each strategy
// failure is swallowed as a soft failure; only chain exhaustion produces a
// failed LookupResult. The returned result always satisfies the success/error
// exclusivity invariant.
func (r *Resolver) Resolve(ctx context.Context, rawGeocode string) (*model.LookupResult, error) {
	geocode, err := Normalize(rawGeocode)
	if err != nil {
		return nil, err
	}

	for _, s := range r.strategies {
		result, err := s.Resolve(ctx, geocode)
		if err != nil {
			zap.L().Debug("parcel: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("geocode", geocode),
				zap.Error(err),
			)
			continue
		}
		if result != nil && result.Success {
			result.Source = s.Name()
			return result, nil
		}
	}

	return &model.LookupResult{
		Success: false,
		Geocode: geocode,
		Error: fmt.Sprintf(
			"Property data not available for geocode %s. This service uses the official Montana cadastral database, but some properties may not be available or may require different formatting.",
			geocode,
		),
	}, nil
}
