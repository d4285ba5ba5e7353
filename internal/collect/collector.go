package collect

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

// Collector drives a Fetcher across every page of a query, one page at a time.
type Collector struct {
	fetcher api.Fetcher
	logger  *zap.Logger
	now     func() time.Time
	wait    func(ctx context.Context, d time.Duration) error
}

func NewCollector(fetcher api.Fetcher, logger *zap.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		wait:    api.Sleep,
	}
}

// CollectAll fetches pages 1..N of q until the server reports no next page or
// a cap is hit. A rate-limited page ends the run with the pages collected so
// far and a nil error. Any other failure, including ctx cancellation, returns
// the partial run tagged Error together with the error.
func (c *Collector) CollectAll(ctx context.Context, q data.Query, cfg Config) (*Run, error) {
	cfg = cfg.withDefaults()
	run := &Run{Query: q, StartedAt: c.now()}

	for page := 1; ; page++ {
		if page > 1 {
			if err := c.wait(ctx, cfg.InterPageDelay); err != nil {
				return c.finish(run, Error), err
			}
			run.DelaysElapsed++
		}

		if err := ctx.Err(); err != nil {
			return c.finish(run, Error), err
		}

		result, err := c.fetchPage(ctx, q, page, cfg)
		if err != nil {
			if api.IsRateLimited(err) {
				c.logger.Warn("rate limited, returning partial collection",
					zap.String("query", q.Key()),
					zap.Int("page", page),
					zap.Int("items", len(run.Items)),
				)
				return c.finish(run, RateLimited), nil
			}
			return c.finish(run, Error), fmt.Errorf("fetching page %d of %s: %w", page, q.Key(), err)
		}

		run.PagesFetched++
		run.TotalCount = result.TotalCount

		// An empty page that still claims a successor would otherwise loop
		// or end as a complete run; treat it as a malformed response.
		if result.HasNext && len(result.Items) == 0 {
			c.logger.Warn("empty page reports more pages",
				zap.String("query", q.Key()),
				zap.Int("page", page),
				zap.Int("items", len(run.Items)),
				zap.Int("count", result.TotalCount),
			)
			return c.finish(run, Error), &api.FatalError{
				Err: fmt.Errorf("page %d of %s is empty but reports more pages: %w", page, q.Key(), api.ErrMalformedResponse),
			}
		}

		pastBound := false
		if f := cfg.DateFilter; f != nil {
			for _, item := range result.Items {
				if f.keep(item) {
					run.Items = append(run.Items, item)
				}
			}
			pastBound = f.pastLowerBound(result.Items)
		} else {
			run.Items = append(run.Items, result.Items...)
		}

		more := result.HasNext && !pastBound

		if cfg.MaxResults > 0 && len(run.Items) >= cfg.MaxResults {
			if len(run.Items) > cfg.MaxResults || more {
				run.Items = run.Items[:cfg.MaxResults]
				return c.finish(run, ResultCap), nil
			}
		}

		if !more {
			return c.finish(run, Completed), nil
		}

		if run.PagesFetched >= cfg.MaxPages {
			return c.finish(run, PageCap), nil
		}
	}
}

// fetchPage retries transient failures that are not rate limiting.
func (c *Collector) fetchPage(ctx context.Context, q data.Query, page int, cfg Config) (*data.PageResult, error) {
	req, err := data.NewPageRequest(q, page, cfg.PageSize)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.TransientRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.RetryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying page",
				zap.String("query", q.Key()),
				zap.Int("page", page),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := c.wait(ctx, delay); err != nil {
				return nil, err
			}
		}

		result, err := c.fetcher.FetchPage(ctx, req)
		if err == nil {
			metrics.RecordPage(q.Resource, "ok")
			c.logger.Debug("page fetched",
				zap.String("query", q.Key()),
				zap.Int("page", page),
				zap.Int("items", len(result.Items)),
				zap.Int("count", result.TotalCount),
				zap.Bool("hasNext", result.HasNext),
			)
			return result, nil
		}

		switch {
		case api.IsRateLimited(err):
			metrics.RecordPage(q.Resource, "rate_limited")
			return nil, err
		case api.IsTransient(err):
			metrics.RecordPage(q.Resource, "transient")
			lastErr = err
		default:
			metrics.RecordPage(q.Resource, "error")
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Collector) finish(run *Run, reason StopReason) *Run {
	run.StoppedReason = reason
	run.FinishedAt = c.now()
	metrics.RecordRun(run.Query.Resource, string(reason), len(run.Items))

	c.logger.Info("collection finished",
		zap.String("query", run.Query.Key()),
		zap.String("reason", string(reason)),
		zap.Int("pages", run.PagesFetched),
		zap.Int("items", len(run.Items)),
		zap.Int("count", run.TotalCount),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run
}
