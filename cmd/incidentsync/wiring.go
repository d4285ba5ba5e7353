package main

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/cache"
	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/config"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/live"
)

func newFetcher(c *config.Config, logger *zap.Logger) *api.HTTPClient {
	return api.NewClient(
		c.API.BaseURL,
		api.StaticToken(c.API.Token),
		c.API.RatePerSecond,
		c.API.Timeout,
		c.API.UserAgent,
		logger,
	)
}

func collectConfig(c config.CollectorConfig) collect.Config {
	return collect.Config{
		MaxPages:         c.MaxPages,
		PageSize:         c.PageSize,
		InterPageDelay:   c.InterPageDelay,
		MaxResults:       c.MaxResults,
		TransientRetries: c.TransientRetries,
		RetryDelay:       c.RetryDelay,
	}
}

func newCache(c *config.Config, logger *zap.Logger) (*cache.Cache, *cache.BudgetMonitor, error) {
	budget, err := cache.NewBudgetMonitor(c.Budget.HighBytes, c.Budget.CriticalBytes)
	if err != nil {
		return nil, nil, err
	}
	store, err := cache.New(cache.Options{
		VolatileTTL:  c.Cache.VolatileTTL,
		ReferenceTTL: c.Cache.ReferenceTTL,
		MaxEntries:   c.Cache.MaxEntries,
		Budget:       budget,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, budget, nil
}

func newPollTransport(c config.ChannelConfig, fetcher api.Fetcher, logger *zap.Logger) *live.PollTransport {
	return live.NewPollTransport(fetcher, data.NewQuery(c.PollResource, nil), live.PollOptions{
		Interval:   c.PollInterval,
		Window:     c.PollWindow,
		PageSize:   c.PollPageSize,
		SinceParam: c.SinceParam,
	}, logger)
}

// newTransports returns the configured transport and, when fallback is
// enabled and the primary is not already polling, a poll fallback.
func newTransports(c *config.Config, fetcher api.Fetcher, logger *zap.Logger) (live.Transport, live.Transport, error) {
	creds := api.StaticToken(c.API.Token)
	ch := c.Channel

	var primary live.Transport
	switch config.Transport(ch.Transport) {
	case config.TransportSocket:
		primary = live.NewSocketTransport(ch.SocketURL, creds, logger.Named("socket"))
	case config.TransportStream:
		primary = live.NewStreamTransport(ch.StreamURL, creds, ch.IdleTimeout, logger.Named("stream"))
	case config.TransportPoll:
		primary = newPollTransport(ch, fetcher, logger.Named("poll"))
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", ch.Transport)
	}

	var fallback live.Transport
	if ch.FallbackToPoll && primary.Kind() != live.KindPoll {
		fallback = newPollTransport(ch, fetcher, logger.Named("poll"))
	}
	return primary, fallback, nil
}

func channelOptions(c config.ChannelConfig, fallback live.Transport) live.Options {
	return live.Options{
		Backoff:     live.Backoff{Base: c.BaseDelay, Ceiling: c.Ceiling},
		MaxAttempts: c.MaxAttempts,
		QueueSize:   c.QueueSize,
		Fallback:    fallback,
	}
}

// parseParams turns repeated k=v flags into query parameters.
func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))
	for _, p := range raw {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --param %q (use key=value)", p)
		}
		params[strings.TrimSpace(k)] = v
	}
	return params, nil
}

// parseBound accepts RFC 3339 timestamps or YYYY-MM-DD dates.
func parseBound(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC 3339)", raw)
}
