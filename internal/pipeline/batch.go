package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/big-sky-labs/parcel-cli/internal/cache"
	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// LookupBatch resolves a set of geocodes and returns a per-item tally. Item
// failures are captured in their result slot and never abort the batch; only
// context cancellation does. Small batches fan out concurrently, batches past
// the throttle threshold run sequentially with an inter-item delay to stay
// polite to the upstream services.
func (p *Pipeline) LookupBatch(ctx context.Context, geocodes []string) (*model.BatchSummary, error) {
	if len(geocodes) == 0 {
		return &model.BatchSummary{Results: []model.BatchPropertyResult{}}, nil
	}

	key := cache.BatchKey(geocodes)
	if p.cache != nil {
		if v, ok := p.cache.Get(key); ok {
			if summary, ok := v.(*model.BatchSummary); ok {
				zap.L().Debug("pipeline: batch cache hit", zap.Int("size", len(geocodes)))
				return summary, nil
			}
		}
	}

	results := make([]model.BatchPropertyResult, len(geocodes))
	var err error
	if len(geocodes) > p.throttleThreshold {
		err = p.runThrottled(ctx, geocodes, results)
	} else {
		err = p.runConcurrent(ctx, geocodes, results)
	}
	if err != nil {
		return nil, err
	}

	summary := &model.BatchSummary{
		Results:        results,
		TotalRequested: len(geocodes),
	}
	for _, r := range results {
		if r.Success {
			summary.TotalSuccessful++
		} else {
			summary.TotalFailed++
		}
	}

	if p.cache != nil {
		p.cache.Put(key, summary)
	}
	return summary, nil
}

// runConcurrent fans items out over a bounded worker group, each writing its
// own slot so input order is preserved.
func (p *Pipeline) runConcurrent(ctx context.Context, geocodes []string, results []model.BatchPropertyResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.batchConcurrency)

	var done atomic.Int64
	for i, geocode := range geocodes {
		i, geocode := i, geocode
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.lookupItem(gctx, geocode)
			p.reportProgress(int(done.Add(1)), len(geocodes), geocode)
			return nil
		})
	}
	return g.Wait()
}

// runThrottled processes items one at a time, pacing them with a rate
// limiter derived from the configured inter-item delay.
func (p *Pipeline) runThrottled(ctx context.Context, geocodes []string, results []model.BatchPropertyResult) error {
	limit := rate.Inf
	if p.throttleDelay > 0 {
		limit = rate.Every(p.throttleDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, geocode := range geocodes {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		results[i] = p.lookupItem(ctx, geocode)
		p.reportProgress(i+1, len(geocodes), geocode)
	}
	return nil
}

// lookupItem wraps a single lookup into its batch result slot. Errors become
// the item's Error field.
func (p *Pipeline) lookupItem(ctx context.Context, geocode string) model.BatchPropertyResult {
	res := model.BatchPropertyResult{Geocode: geocode}
	info, err := p.LookupOne(ctx, geocode)
	res.ProcessedAt = time.Now().UTC()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.Data = info
	return res
}

func (p *Pipeline) reportProgress(done, total int, geocode string) {
	if p.progress != nil {
		p.progress(done, total, geocode)
	}
}
