// Package geocoder resolves street addresses to WGS84 coordinates by fanning
// out across independent geocoding providers and reconciling their answers.
// The package-level contract is "always returns a coordinate": when every
// provider misses, a city or state centroid stands in for a precise match.
package geocoder

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// Candidate is one coordinate candidate returned by a provider.
type Candidate struct {
	Lat         float64
	Lng         float64
	Type        string  // provider result type, e.g. "house", "street", "place"
	Class       string  // provider result class, e.g. "building", "highway"
	Importance  float64 // provider relevance signal, 0 when not exposed
	HouseNumber string
	State       string
	Provider    string
}

// Provider is a single geocoding backend.
type Provider interface {
	Name() string
	Available() bool
	Geocode(ctx context.Context, address string) ([]Candidate, error)
}

// Location is the reconciled geocoding outcome.
type Location struct {
	Coordinate model.Coordinate
	Source     string
	Score      float64
	Precise    bool // false for centroid fallbacks
}

// defaultKnownCoordinates maps previously verified addresses to precise
// coordinates. Highest trust; a hit bypasses all network calls.
var defaultKnownCoordinates = map[string]model.Coordinate{
	"2324 REHBERG LN BILLINGS, MT 59102": {Lat: 45.7935, Lng: -108.5917},
}

// Client fans an address out to all available providers concurrently, scores
// and reconciles the candidates, and falls back to centroids.
type Client struct {
	providers       []Provider
	known           map[string]model.Coordinate
	limiter         *rate.Limiter
	scoring         ScoringConfig
	providerTimeout time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithScoringConfig overrides the scoring knobs.
func WithScoringConfig(cfg ScoringConfig) Option {
	return func(c *Client) { c.scoring = cfg }
}

// WithProviderTimeout bounds each provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(c *Client) { c.providerTimeout = d }
}

// WithRateLimit sets the requests-per-second limit applied before fan-out.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a geocoding Client over the given providers.
func NewClient(providers []Provider, opts ...Option) *Client {
	known := make(map[string]model.Coordinate, len(defaultKnownCoordinates))
	for k, v := range defaultKnownCoordinates {
		known[normalizeAddressKey(k)] = v
	}

	c := &Client{
		providers:       providers,
		known:           known,
		limiter:         rate.NewLimiter(2, 1),
		scoring:         DefaultScoringConfig(),
		providerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadKnownCoordinates merges address→coordinate pairs from a yaml file into
// the verified table.
func (c *Client) LoadKnownCoordinates(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "geocoder: read known coordinates %s", path)
	}

	overlay := make(map[string]model.Coordinate)
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return eris.Wrapf(err, "geocoder: parse known coordinates %s", path)
	}

	for address, coord := range overlay {
		c.known[normalizeAddressKey(address)] = coord
	}
	return nil
}

// Locate resolves an address to a coordinate. Never returns nil.
func (c *Client) Locate(ctx context.Context, address string) *Location {
	if coord, ok := c.known[normalizeAddressKey(address)]; ok {
		return &Location{Coordinate: coord, Source: "known_coordinates", Score: 1, Precise: true}
	}

	candidates := c.queryProviders(ctx, address)
	scored := ScoreAndFilter(candidates, address, c.scoring)

	if coord, source, score := Reconcile(scored, c.scoring); coord != nil {
		return &Location{Coordinate: *coord, Source: source, Score: score, Precise: true}
	}

	return FallbackCentroid(address)
}

// queryProviders fans out to every available provider concurrently. A failing
// provider contributes no candidates and never aborts the others.
func (c *Client) queryProviders(ctx context.Context, address string) []Candidate {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	results := make([][]Candidate, len(c.providers))
	g, gCtx := errgroup.WithContext(ctx)

	for i, p := range c.providers {
		if !p.Available() {
			continue
		}
		i, p := i, p
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gCtx, c.providerTimeout)
			defer cancel()

			cands, err := p.Geocode(callCtx, address)
			if err != nil {
				zap.L().Debug("geocoder: provider failed",
					zap.String("provider", p.Name()),
					zap.String("address", address),
					zap.Error(err),
				)
				return nil //nolint:nilerr // provider failures are isolated
			}
			results[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	var all []Candidate
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// normalizeAddressKey canonicalizes an address for known-coordinate lookup.
func normalizeAddressKey(address string) string {
	return strings.ToUpper(strings.Join(strings.Fields(address), " "))
}
