package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/big-sky-labs/parcel-cli/internal/cache"
	"github.com/big-sky-labs/parcel-cli/internal/model"
	"github.com/big-sky-labs/parcel-cli/internal/parcel"
)

// Recorder persists lookup outcomes for the history surface. Implementations
// must tolerate a nil info (failed lookup).
type Recorder interface {
	Record(ctx context.Context, geocode string, info *model.PropertyInfo, lookupErr error) error
}

// ProgressFunc is invoked after each batch item completes. done counts
// finished items, total is the batch size.
type ProgressFunc func(done, total int, geocode string)

// Pipeline wires the parcel resolver chain, the address geocoder, the result
// cache, and the optional history store into the lookup operations.
type Pipeline struct {
	resolver *parcel.Resolver
	locate   LocateFunc
	cache    *cache.Cache
	recorder Recorder
	offset   model.Coordinate

	batchConcurrency  int
	throttleThreshold int
	throttleDelay     time.Duration
	progress          ProgressFunc
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithCache attaches a result cache.
func WithCache(c *cache.Cache) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

// WithRecorder attaches a lookup-history recorder. Recording failures are
// logged and never fail the lookup itself.
func WithRecorder(r Recorder) PipelineOption {
	return func(p *Pipeline) { p.recorder = r }
}

// WithCentroidOffset shifts parcel-centroid coordinates by a fixed delta.
func WithCentroidOffset(offset model.Coordinate) PipelineOption {
	return func(p *Pipeline) { p.offset = offset }
}

// WithBatchConcurrency sets the worker limit for small batches.
func WithBatchConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchConcurrency = n
		}
	}
}

// WithThrottle switches batches larger than threshold to sequential
// processing with the given inter-item delay.
func WithThrottle(threshold int, delay time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if threshold > 0 {
			p.throttleThreshold = threshold
		}
		p.throttleDelay = delay
	}
}

// WithProgress registers a batch progress callback.
func WithProgress(fn ProgressFunc) PipelineOption {
	return func(p *Pipeline) { p.progress = fn }
}

// New creates a Pipeline over the given resolver and geocoding function.
func New(resolver *parcel.Resolver, locate LocateFunc, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		resolver:          resolver,
		locate:            locate,
		batchConcurrency:  4,
		throttleThreshold: 10,
		throttleDelay:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LookupOne resolves a single geocode to a full property record. The cache is
// consulted first; on a miss the resolver chain runs and the assembled record
// is cached for subsequent calls.
func (p *Pipeline) LookupOne(ctx context.Context, rawGeocode string) (*model.PropertyInfo, error) {
	geocode, err := parcel.Normalize(rawGeocode)
	if err != nil {
		return nil, err
	}

	key := cache.SingleKey(geocode)
	if p.cache != nil {
		if v, ok := p.cache.Get(key); ok {
			if info, ok := v.(*model.PropertyInfo); ok {
				zap.L().Debug("pipeline: cache hit", zap.String("geocode", geocode))
				return info, nil
			}
		}
	}

	lr, err := p.resolver.Resolve(ctx, geocode)
	if err != nil {
		return nil, err
	}

	info, err := Assemble(ctx, lr, p.locate, p.offset)
	if err != nil {
		p.record(ctx, geocode, nil, err)
		return nil, err
	}

	if p.cache != nil {
		p.cache.Put(key, info)
	}
	p.record(ctx, geocode, info, nil)
	return info, nil
}

func (p *Pipeline) record(ctx context.Context, geocode string, info *model.PropertyInfo, lookupErr error) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, geocode, info, lookupErr); err != nil {
		zap.L().Warn("pipeline: history record failed",
			zap.String("geocode", geocode),
			zap.Error(err))
	}
}
