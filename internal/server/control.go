package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/cache"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/live"
)

var ErrBusy = errors.New("operation already in progress")

// Controller serializes operator actions against the live channel and cache.
type Controller struct {
	channel *live.Channel
	cache   *cache.Cache
	logger  *zap.Logger

	// prevents concurrent reconnects
	reconnectMu sync.Mutex
}

func NewController(channel *live.Channel, c *cache.Cache, logger *zap.Logger) *Controller {
	return &Controller{
		channel: channel,
		cache:   c,
		logger:  logger,
	}
}

// Reconnect restarts the live channel, which is the only way out of Failed.
// The channel outlives the request that triggered it.
func (c *Controller) Reconnect(ctx context.Context) (live.State, error) {
	if c.channel == nil {
		return live.State{}, errors.New("live channel is not configured")
	}
	if !c.reconnectMu.TryLock() {
		return live.State{}, ErrBusy
	}
	defer c.reconnectMu.Unlock()

	previous := c.channel.State()
	c.logger.Info("manual reconnect",
		zap.String("previous", previous.String()),
		zap.String("transport", string(previous.Transport)),
	)

	c.channel.Disconnect()
	if err := c.channel.Connect(context.WithoutCancel(ctx)); err != nil {
		if errors.Is(err, live.ErrAlreadyRunning) {
			return c.channel.State(), ErrBusy
		}
		return live.State{}, fmt.Errorf("reconnecting: %w", err)
	}

	c.logger.Info("manual reconnect started",
		zap.String("previous", previous.String()),
		zap.Time("at", time.Now()),
	)
	return c.channel.State(), nil
}

// Invalidate drops one query's entry, or the whole class when q is nil.
func (c *Controller) Invalidate(class cache.Class, q *data.Query) (int, error) {
	if c.cache == nil {
		return 0, errors.New("cache is not configured")
	}
	if class != cache.Volatile && class != cache.Reference {
		return 0, fmt.Errorf("%w: %q", cache.ErrUnknownClass, class)
	}

	removed := c.cache.Invalidate(class, q)
	query := "*"
	if q != nil {
		query = q.Key()
	}
	c.logger.Info("cache invalidated",
		zap.String("class", string(class)),
		zap.String("query", query),
		zap.Int("removed", removed),
	)
	return removed, nil
}
