package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/big-sky-labs/parcel-cli/internal/cache"
	"github.com/big-sky-labs/parcel-cli/internal/parcel"
	"github.com/big-sky-labs/parcel-cli/internal/pipeline"
	"github.com/big-sky-labs/parcel-cli/internal/store"
	"github.com/big-sky-labs/parcel-cli/pkg/geocoder"
)

// pipelineEnv holds the initialized strategies, clients, and the pipeline
// needed by the lookup/batch/serve commands.
type pipelineEnv struct {
	Store    *store.SQLiteStore
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the history store, the strategy chain, the geocoding
// client, and builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// Strategy chain: registry → cadastral scrape → known properties.
	var registryOpts []parcel.RegistryOption
	if cfg.Registry.URL != "" {
		registryOpts = append(registryOpts, parcel.WithRegistryURL(cfg.Registry.URL))
	}
	if cfg.Registry.TimeoutSecs > 0 {
		registryOpts = append(registryOpts, parcel.WithRegistryHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Registry.TimeoutSecs) * time.Second,
		}))
	}

	var scrapeOpts []parcel.ScrapeOption
	if cfg.Cadastral.URL != "" {
		scrapeOpts = append(scrapeOpts, parcel.WithScrapeURL(cfg.Cadastral.URL))
	}
	if cfg.Cadastral.TimeoutSecs > 0 {
		scrapeOpts = append(scrapeOpts, parcel.WithScrapeHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Cadastral.TimeoutSecs) * time.Second,
		}))
	}

	known := parcel.NewKnownPropertyStrategy()
	if cfg.Known.PropertiesFile != "" {
		if err := known.LoadOverlay(cfg.Known.PropertiesFile); err != nil {
			zap.L().Warn("known properties overlay not loaded", zap.Error(err))
		}
	}

	resolver := parcel.NewResolver(
		parcel.NewRegistryStrategy(registryOpts...),
		parcel.NewCadastralScrapeStrategy(scrapeOpts...),
		known,
	)

	// Geocoding client: Nominatim open + Nominatim bounded + Census.
	var nominatimOpts []geocoder.NominatimOption
	if cfg.Geocoder.NominatimURL != "" {
		nominatimOpts = append(nominatimOpts, geocoder.WithNominatimURL(cfg.Geocoder.NominatimURL))
	}
	var censusOpts []geocoder.CensusOption
	if cfg.Geocoder.CensusURL != "" {
		censusOpts = append(censusOpts, geocoder.WithCensusURL(cfg.Geocoder.CensusURL))
	}

	scoring := geocoder.DefaultScoringConfig()
	if cfg.Geocoder.HighConfidence > 0 {
		scoring.HighConfidence = cfg.Geocoder.HighConfidence
	}
	if cfg.Geocoder.AgreementEpsilon > 0 {
		scoring.AgreementEpsilon = cfg.Geocoder.AgreementEpsilon
	}

	clientOpts := []geocoder.Option{geocoder.WithScoringConfig(scoring)}
	if cfg.Geocoder.TimeoutSecs > 0 {
		clientOpts = append(clientOpts, geocoder.WithProviderTimeout(time.Duration(cfg.Geocoder.TimeoutSecs)*time.Second))
	}
	if cfg.Geocoder.RateLimitPerSec > 0 {
		clientOpts = append(clientOpts, geocoder.WithRateLimit(cfg.Geocoder.RateLimitPerSec))
	}

	geoClient := geocoder.NewClient([]geocoder.Provider{
		geocoder.NewNominatimProvider(nominatimOpts...),
		geocoder.NewNominatimProvider(append(nominatimOpts, geocoder.WithStrictBounds(scoring.Region))...),
		geocoder.NewCensusProvider(censusOpts...),
	}, clientOpts...)

	if cfg.Known.CoordinatesFile != "" {
		if err := geoClient.LoadKnownCoordinates(cfg.Known.CoordinatesFile); err != nil {
			zap.L().Warn("known coordinates overlay not loaded", zap.Error(err))
		}
	}

	p := pipeline.New(resolver, geoClient.Locate,
		pipeline.WithCache(cache.New(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSecs)*time.Second)),
		pipeline.WithRecorder(st),
		pipeline.WithCentroidOffset(cfg.Registry.Offset()),
		pipeline.WithBatchConcurrency(cfg.Batch.Concurrency),
		pipeline.WithThrottle(cfg.Batch.ThrottleThreshold, time.Duration(cfg.Batch.ThrottleDelayMs)*time.Millisecond),
		pipeline.WithProgress(func(done, total int, geocode string) {
			zap.L().Debug("batch progress",
				zap.Int("done", done),
				zap.Int("total", total),
				zap.String("geocode", geocode),
			)
		}),
	)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
	}, nil
}
