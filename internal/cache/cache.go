package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

// Class decides how long a cached value may be served.
type Class string

const (
	// Volatile is operational data such as incidents and suspects.
	Volatile Class = "volatile"
	// Reference is near-static data such as offices and lookup lists.
	Reference Class = "reference"
)

// minReferenceRatio is how much longer Reference entries live than Volatile ones, at least.
const minReferenceRatio = 10

var ErrUnknownClass = errors.New("unknown resource class")

// Entry is one cached value. Entries are replaced whole, never modified.
type Entry struct {
	Key        string
	Class      Class
	Value      any
	FetchedAt  time.Time
	StaleAfter time.Time
	SizeBytes  int64
	Level      Level
}

type Options struct {
	VolatileTTL  time.Duration
	ReferenceTTL time.Duration
	// MaxEntries bounds each class independently; least recently used goes first.
	MaxEntries int
	Budget     *BudgetMonitor
}

func DefaultOptions() Options {
	return Options{
		VolatileTTL:  time.Minute,
		ReferenceTTL: 30 * time.Minute,
		MaxEntries:   256,
	}
}

// Cache memoizes fetch results keyed by (class, normalized query). It is
// safe for concurrent use; concurrent misses on one key share a single fetch.
type Cache struct {
	stores map[Class]*lru.Cache[string, *Entry]
	ttls   map[Class]time.Duration
	group  singleflight.Group
	budget *BudgetMonitor
	now    func() time.Time
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) (*Cache, error) {
	if opts.VolatileTTL <= 0 {
		return nil, fmt.Errorf("volatile ttl must be positive, got %s", opts.VolatileTTL)
	}
	if opts.ReferenceTTL < minReferenceRatio*opts.VolatileTTL {
		return nil, fmt.Errorf("reference ttl %s must be at least %dx volatile ttl %s",
			opts.ReferenceTTL, minReferenceRatio, opts.VolatileTTL)
	}
	if opts.MaxEntries < 1 {
		opts.MaxEntries = DefaultOptions().MaxEntries
	}

	c := &Cache{
		stores: make(map[Class]*lru.Cache[string, *Entry], 2),
		ttls: map[Class]time.Duration{
			Volatile:  opts.VolatileTTL,
			Reference: opts.ReferenceTTL,
		},
		budget: opts.Budget,
		now:    time.Now,
		logger: logger,
	}
	for class := range c.ttls {
		store, err := lru.New[string, *Entry](opts.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("creating %s store: %w", class, err)
		}
		c.stores[class] = store
	}
	return c, nil
}

// GetOrFetch returns the cached value for (class, q) while it is fresh;
// otherwise it calls fetch, stores the result and returns it. A failed
// fetch leaves any previous entry untouched.
//
// A shared fetch runs detached from any single caller: a caller whose ctx
// ends gets ctx.Err() without cancelling the fetch for the others.
func (c *Cache) GetOrFetch(ctx context.Context, class Class, q data.Query, fetch func(ctx context.Context) (any, error)) (any, error) {
	return c.getOrFetch(ctx, class, q, fetch, storePolicy{})
}

// runOutcome carries a run together with the error that ended it, so callers
// sharing a flight all see the partial run.
type runOutcome struct {
	run *collect.Run
	err error
}

// Collect is GetOrFetch for bulk collection runs. Runs that stopped on rate
// limiting or an error are returned but not stored, so the next call retries.
func (c *Cache) Collect(ctx context.Context, class Class, collector *collect.Collector, q data.Query, cfg collect.Config) (*collect.Run, error) {
	v, err := c.getOrFetch(ctx, class, q,
		func(ctx context.Context) (any, error) {
			run, err := collector.CollectAll(ctx, q, cfg)
			if run == nil {
				return nil, err
			}
			return runOutcome{run: run, err: err}, nil
		},
		storePolicy{
			flight: "run",
			accept: func(v any) bool {
				_, ok := v.(*collect.Run)
				return ok
			},
			keep: func(v any) (any, bool) {
				out := v.(runOutcome)
				if out.err != nil || out.run.StoppedReason == collect.RateLimited || out.run.StoppedReason == collect.Error {
					return nil, false
				}
				return out.run, true
			},
		},
	)
	if err != nil {
		return nil, err
	}

	switch v := v.(type) {
	case *collect.Run:
		return v, nil
	case runOutcome:
		return v.run, v.err
	default:
		return nil, fmt.Errorf("unexpected collection value %T", v)
	}
}

// storePolicy adapts the shared lookup to one kind of value. The zero value
// accepts and stores anything.
type storePolicy struct {
	// flight namespaces in-flight fetches so different kinds never share one.
	flight string
	// accept reports whether a cached value can serve this caller; a value
	// stored by another kind of caller is treated as a miss.
	accept func(v any) bool
	// keep maps a fetched value to what gets stored, if anything.
	keep func(v any) (any, bool)
}

func (p storePolicy) accepts(v any) bool {
	return p.accept == nil || p.accept(v)
}

func (p storePolicy) stored(v any) (any, bool) {
	if p.keep == nil {
		return v, true
	}
	return p.keep(v)
}

func (c *Cache) getOrFetch(ctx context.Context, class Class, q data.Query, fetch func(ctx context.Context) (any, error), policy storePolicy) (any, error) {
	store, ok := c.stores[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}

	key := q.Key()
	if entry, ok := c.fresh(store, key); ok && policy.accepts(entry.Value) {
		metrics.RecordCacheLookup(string(class), true)
		return entry.Value, nil
	}
	metrics.RecordCacheLookup(string(class), false)

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(policy.flight+"|"+string(class)+"|"+key, func() (any, error) {
		// A flight that just finished may already have refreshed the key.
		if entry, ok := c.fresh(store, key); ok && policy.accepts(entry.Value) {
			return entry.Value, nil
		}

		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if v, ok := policy.stored(value); ok {
			c.store(store, class, key, v)
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		c.logger.Debug("caller left in-flight fetch",
			zap.String("class", string(class)),
			zap.String("key", key),
			zap.Error(ctx.Err()),
		)
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("shared in-flight fetch", zap.String("class", string(class)), zap.String("key", key))
		}
		return res.Val, res.Err
	}
}

func (c *Cache) fresh(store *lru.Cache[string, *Entry], key string) (*Entry, bool) {
	entry, ok := store.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.StaleAfter) {
		return nil, false
	}
	return entry, true
}

func (c *Cache) store(store *lru.Cache[string, *Entry], class Class, key string, value any) {
	now := c.now()
	entry := &Entry{
		Key:        key,
		Class:      class,
		Value:      value,
		FetchedAt:  now,
		StaleAfter: now.Add(c.ttls[class]),
	}

	if c.budget != nil {
		entry.SizeBytes, entry.Level = c.budget.Check(value)
		metrics.RecordBudget(string(class), entry.Level.String(), entry.SizeBytes)
		if entry.Level != Normal {
			c.logger.Warn("cached value over memory budget",
				zap.String("class", string(class)),
				zap.String("key", key),
				zap.Int64("bytes", entry.SizeBytes),
				zap.String("level", entry.Level.String()),
			)
		}
	}

	if evicted := store.Add(key, entry); evicted {
		c.logger.Debug("evicted least recently used entry", zap.String("class", string(class)))
	}
}

// Peek returns the entry for (class, q) without refreshing it or touching recency.
func (c *Cache) Peek(class Class, q data.Query) (*Entry, bool) {
	store, ok := c.stores[class]
	if !ok {
		return nil, false
	}
	return store.Peek(q.Key())
}

// Invalidate removes the entry for q, or every entry of class when q is nil.
// It returns how many entries were removed.
func (c *Cache) Invalidate(class Class, q *data.Query) int {
	store, ok := c.stores[class]
	if !ok {
		return 0
	}
	if q == nil {
		n := store.Len()
		store.Purge()
		c.logger.Debug("invalidated class", zap.String("class", string(class)), zap.Int("count", n))
		return n
	}
	if store.Remove(q.Key()) {
		return 1
	}
	return 0
}

// Len returns the number of entries held for class, fresh or stale.
func (c *Cache) Len(class Class) int {
	if store, ok := c.stores[class]; ok {
		return store.Len()
	}
	return 0
}
