package cache

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/data"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	c, err := New(DefaultOptions(), zaptest.NewLogger(t))
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	return c, clock
}

func countingFetch(calls *int32, value any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestGetOrFetch_ServesFreshEntry(t *testing.T) {
	c, clock := newTestCache(t)
	q := data.NewQuery("incidents", map[string]string{"status": "open"})
	var calls int32

	v, err := c.GetOrFetch(context.Background(), Volatile, q, countingFetch(&calls, "first"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	clock.Advance(59 * time.Second)
	v, err = c.GetOrFetch(context.Background(), Volatile, q, countingFetch(&calls, "second"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_RefetchesAfterStaleAfter(t *testing.T) {
	c, clock := newTestCache(t)
	q := data.NewQuery("incidents", nil)
	var calls int32

	_, err := c.GetOrFetch(context.Background(), Volatile, q, countingFetch(&calls, "first"))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	v, err := c.GetOrFetch(context.Background(), Volatile, q, countingFetch(&calls, "second"))
	require.NoError(t, err)
	assert.Equal(t, "second", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	entry, ok := c.Peek(Volatile, q)
	require.True(t, ok)
	assert.True(t, entry.StaleAfter.After(entry.FetchedAt))
}

func TestGetOrFetch_ClassesHaveIndependentWindows(t *testing.T) {
	c, clock := newTestCache(t)
	q := data.NewQuery("offices", nil)
	var volatileCalls, referenceCalls int32

	_, _ = c.GetOrFetch(context.Background(), Volatile, q, countingFetch(&volatileCalls, 1))
	_, _ = c.GetOrFetch(context.Background(), Reference, q, countingFetch(&referenceCalls, 1))

	clock.Advance(10 * time.Minute)
	_, _ = c.GetOrFetch(context.Background(), Volatile, q, countingFetch(&volatileCalls, 2))
	_, _ = c.GetOrFetch(context.Background(), Reference, q, countingFetch(&referenceCalls, 2))

	assert.Equal(t, int32(2), volatileCalls)
	assert.Equal(t, int32(1), referenceCalls)
}

func TestGetOrFetch_QueryNormalization(t *testing.T) {
	c, _ := newTestCache(t)
	var calls int32

	a := data.NewQuery("incidents", map[string]string{"a": "1", "b": "2"})
	b := data.NewQuery("incidents", nil).With("b", "2").With("a", "1")

	_, _ = c.GetOrFetch(context.Background(), Volatile, a, countingFetch(&calls, "x"))
	_, _ = c.GetOrFetch(context.Background(), Volatile, b, countingFetch(&calls, "y"))
	assert.Equal(t, int32(1), calls)
}

func TestGetOrFetch_FailedFetchKeepsPreviousEntry(t *testing.T) {
	c, clock := newTestCache(t)
	q := data.NewQuery("incidents", nil)
	var calls int32

	_, _ = c.GetOrFetch(context.Background(), Volatile, q, countingFetch(&calls, "old"))
	clock.Advance(2 * time.Minute)

	boom := errors.New("boom")
	_, err := c.GetOrFetch(context.Background(), Volatile, q, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	entry, ok := c.Peek(Volatile, q)
	require.True(t, ok)
	assert.Equal(t, "old", entry.Value)
}

func TestGetOrFetch_ConcurrentMissesShareOneFetch(t *testing.T) {
	c, _ := newTestCache(t)
	q := data.NewQuery("incidents", nil)

	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrFetch(context.Background(), Volatile, q, fetch)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "value", r)
	}
}

func TestGetOrFetch_UnknownClass(t *testing.T) {
	c, _ := newTestCache(t)
	_, err := c.GetOrFetch(context.Background(), Class("archive"), data.NewQuery("x", nil), countingFetch(new(int32), 1))
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	q1 := data.NewQuery("incidents", map[string]string{"page_filter": "1"})
	q2 := data.NewQuery("incidents", map[string]string{"page_filter": "2"})
	var calls int32

	_, _ = c.GetOrFetch(context.Background(), Volatile, q1, countingFetch(&calls, 1))
	_, _ = c.GetOrFetch(context.Background(), Volatile, q2, countingFetch(&calls, 2))
	_, _ = c.GetOrFetch(context.Background(), Reference, q1, countingFetch(&calls, 3))

	assert.Equal(t, 1, c.Invalidate(Volatile, &q1))
	assert.Equal(t, 0, c.Invalidate(Volatile, &q1))
	assert.Equal(t, 1, c.Len(Volatile))

	assert.Equal(t, 1, c.Invalidate(Volatile, nil))
	assert.Equal(t, 0, c.Len(Volatile))
	assert.Equal(t, 1, c.Len(Reference))

	_, _ = c.GetOrFetch(context.Background(), Volatile, q1, countingFetch(&calls, 4))
	assert.Equal(t, int32(4), calls)
}

func TestLRUEviction(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxEntries = 2
	c, err := New(opts, zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, r := range []string{"a", "b", "c"} {
		_, _ = c.GetOrFetch(context.Background(), Volatile, data.NewQuery(r, nil), countingFetch(new(int32), r))
	}
	assert.Equal(t, 2, c.Len(Volatile))
	_, ok := c.Peek(Volatile, data.NewQuery("a", nil))
	assert.False(t, ok)
}

func TestNew_ValidatesWindows(t *testing.T) {
	_, err := New(Options{VolatileTTL: time.Minute, ReferenceTTL: 5 * time.Minute}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = New(Options{VolatileTTL: 0, ReferenceTTL: time.Hour}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = New(Options{VolatileTTL: time.Minute, ReferenceTTL: 10 * time.Minute}, zaptest.NewLogger(t))
	assert.NoError(t, err)
}

type rateLimitedOnce struct {
	calls int
}

func (f *rateLimitedOnce) FetchPage(_ context.Context, req data.PageRequest) (*data.PageResult, error) {
	f.calls++
	if f.calls == 2 {
		return nil, &api.TransientError{StatusCode: http.StatusTooManyRequests, Err: api.ErrRateLimited}
	}
	return &data.PageResult{
		Items:      []data.Record{{"id": float64(f.calls)}},
		TotalCount: 2,
		HasNext:    req.Page == 1,
	}, nil
}

func TestCollect_DoesNotStorePartialRuns(t *testing.T) {
	c, _ := newTestCache(t)
	fetcher := &rateLimitedOnce{}
	collector := collect.NewCollector(fetcher, zaptest.NewLogger(t))
	cfg := collect.DefaultConfig()
	cfg.InterPageDelay = 0
	q := data.NewQuery("incidents", nil)

	run, err := c.Collect(context.Background(), Volatile, collector, q, cfg)
	require.NoError(t, err)
	assert.Equal(t, collect.RateLimited, run.StoppedReason)
	assert.Equal(t, 0, c.Len(Volatile))

	run, err = c.Collect(context.Background(), Volatile, collector, q, cfg)
	require.NoError(t, err)
	assert.Equal(t, collect.Completed, run.StoppedReason)
	assert.Equal(t, 1, c.Len(Volatile))

	cached, err := c.Collect(context.Background(), Volatile, collector, q, cfg)
	require.NoError(t, err)
	assert.Same(t, run, cached)
	assert.Equal(t, 4, fetcher.calls)
}

func TestStoreRecordsBudgetLevel(t *testing.T) {
	budget, err := NewBudgetMonitor(10, 100)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Budget = budget
	c, err := New(opts, zaptest.NewLogger(t))
	require.NoError(t, err)

	q := data.NewQuery("incidents", nil)
	records := []data.Record{{"title": "a long enough title to cross ten bytes"}}
	_, err = c.GetOrFetch(context.Background(), Volatile, q, countingFetch(new(int32), records))
	require.NoError(t, err)

	entry, ok := c.Peek(Volatile, q)
	require.True(t, ok)
	assert.Equal(t, High, entry.Level)
	assert.Positive(t, entry.SizeBytes)
}

func TestGetOrFetch_CallerCancelDoesNotAbortSharedFetch(t *testing.T) {
	c, _ := newTestCache(t)
	q := data.NewQuery("incidents", nil)

	var calls int32
	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		once.Do(func() { close(started) })
		select {
		case <-release:
			return "value", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctxA, Volatile, q, fetch)
		errA <- err
	}()
	<-started

	type result struct {
		value any
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.GetOrFetch(context.Background(), Volatile, q, fetch)
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case res := <-resB:
		require.NoError(t, res.err)
		assert.Equal(t, "value", res.value)
	case <-time.After(time.Second):
		t.Fatal("remaining caller did not return")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	entry, ok := c.Peek(Volatile, q)
	require.True(t, ok)
	assert.Equal(t, "value", entry.Value)
}

type singlePage struct {
	calls int
}

func (f *singlePage) FetchPage(context.Context, data.PageRequest) (*data.PageResult, error) {
	f.calls++
	return &data.PageResult{Items: []data.Record{{"id": float64(1)}}, TotalCount: 1}, nil
}

func TestCollect_TreatsOtherValueUnderKeyAsMiss(t *testing.T) {
	c, _ := newTestCache(t)
	q := data.NewQuery("incidents", nil)

	_, err := c.GetOrFetch(context.Background(), Volatile, q, countingFetch(new(int32), "not a run"))
	require.NoError(t, err)

	fetcher := &singlePage{}
	collector := collect.NewCollector(fetcher, zaptest.NewLogger(t))
	run, err := c.Collect(context.Background(), Volatile, collector, q, collect.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, collect.Completed, run.StoppedReason)
	assert.Equal(t, 1, fetcher.calls)

	entry, ok := c.Peek(Volatile, q)
	require.True(t, ok)
	assert.Same(t, run, entry.Value)
}

func TestCollect_ReturnsPartialRunWithError(t *testing.T) {
	c, _ := newTestCache(t)
	q := data.NewQuery("incidents", nil)

	fatal := &api.FatalError{StatusCode: http.StatusForbidden, Err: api.ErrAuthFailed}
	collector := collect.NewCollector(failingFetcher{err: fatal}, zaptest.NewLogger(t))

	run, err := c.Collect(context.Background(), Volatile, collector, q, collect.DefaultConfig())
	require.Error(t, err)
	assert.True(t, api.IsFatal(err))
	require.NotNil(t, run)
	assert.Equal(t, collect.Error, run.StoppedReason)
	assert.Equal(t, 0, c.Len(Volatile))
}

type failingFetcher struct {
	err error
}

func (f failingFetcher) FetchPage(context.Context, data.PageRequest) (*data.PageResult, error) {
	return nil, f.err
}
