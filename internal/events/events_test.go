package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/live"
)

// latestFetcher answers bootstrap requests with the configured newest id.
type latestFetcher struct {
	mu     sync.Mutex
	latest int64
	err    error
	reqs   []data.PageRequest
}

func (f *latestFetcher) FetchPage(_ context.Context, req data.PageRequest) (*data.PageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.latest == 0 {
		return &data.PageResult{}, nil
	}
	return &data.PageResult{
		Items:      []data.Record{{"id": f.latest, "created_at": "2024-03-01T09:00:00Z"}},
		TotalCount: int(f.latest),
		HasNext:    true,
	}, nil
}

func evs(ids ...int64) []data.Event {
	out := make([]data.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, data.Event{ID: id, Payload: data.Record{"id": id}})
	}
	return out
}

func ids(events []data.Event) []int64 {
	out := make([]int64, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func bootstrapped(t *testing.T, latest int64) *Deduplicator {
	t.Helper()
	d := NewDeduplicator(zaptest.NewLogger(t))
	require.NoError(t, d.Bootstrap(context.Background(), &latestFetcher{latest: latest}, data.NewQuery("events", nil)))
	return d
}

func TestAdmitIsIdempotent(t *testing.T) {
	d := bootstrapped(t, 10)
	batch := evs(11, 12, 13)

	assert.Equal(t, []int64{11, 12, 13}, ids(d.Admit(batch)))
	assert.Empty(t, d.Admit(batch))
	assert.Equal(t, int64(13), d.Cursor().LastSeenID)
}

func TestAdmitFailsClosedBeforeBootstrap(t *testing.T) {
	d := NewDeduplicator(zaptest.NewLogger(t))

	assert.Empty(t, d.Admit(evs(1, 2, 3)))
	assert.False(t, d.Cursor().Initialized)
	assert.Equal(t, int64(0), d.Cursor().LastSeenID)
}

func TestBootstrapFailureKeepsCursorClosed(t *testing.T) {
	d := NewDeduplicator(zaptest.NewLogger(t))
	f := &latestFetcher{err: errors.New("connection refused")}

	err := d.Bootstrap(context.Background(), f, data.NewQuery("events", nil))
	require.Error(t, err)
	assert.False(t, d.Initialized())
	assert.Empty(t, d.Admit(evs(5)))

	require.Len(t, f.reqs, 1)
	assert.Equal(t, 1, f.reqs[0].Page)
	assert.Equal(t, 1, f.reqs[0].PageSize)
	assert.Empty(t, f.reqs[0].Query.Params)
}

func TestBootstrapEmptyBackend(t *testing.T) {
	d := bootstrapped(t, 0)
	assert.True(t, d.Initialized())
	assert.Equal(t, []int64{1, 2}, ids(d.Admit(evs(1, 2))))
}

func TestAdmitFiltersOldAndDuplicateEvents(t *testing.T) {
	d := bootstrapped(t, 40)

	assert.Equal(t, []int64{41, 43}, ids(d.Admit(evs(39, 40, 41, 41, 43))))
	// A stale poll result racing a socket message adds nothing and does not rewind.
	assert.Empty(t, d.Admit(evs(38, 42)))
	assert.Equal(t, int64(43), d.Cursor().LastSeenID)
	assert.Equal(t, []int64{44}, ids(d.Admit(evs(42, 44))))
}

func TestSinkPublishNewestFirst(t *testing.T) {
	s := NewSink(0, zaptest.NewLogger(t))
	s.Publish(evs(1, 2))
	s.Publish(evs(3))
	s.Publish(nil)

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{list[0].Event.ID, list[1].Event.ID, list[2].Event.ID})
	assert.Equal(t, 3, s.Unseen())
	for _, n := range list {
		assert.False(t, n.Seen)
	}
}

func TestSinkCapacity(t *testing.T) {
	s := NewSink(3, zaptest.NewLogger(t))
	s.Publish(evs(1, 2))
	s.MarkAllSeen()
	s.Publish(evs(3, 4, 5))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, int64(5), list[0].Event.ID)
	assert.Equal(t, int64(3), list[2].Event.ID)
	assert.Equal(t, 3, s.Unseen())

	// Dropping unseen entries off the back keeps the count in step with the list.
	s.Publish(evs(6, 7))
	assert.Equal(t, 3, s.Unseen())
	assert.Len(t, s.List(), 3)
}

func TestSinkMarkAllSeen(t *testing.T) {
	s := NewSink(10, zaptest.NewLogger(t))
	s.Publish(evs(1, 2))
	s.MarkAllSeen()

	assert.Equal(t, 0, s.Unseen())
	list := s.List()
	require.Len(t, list, 2)
	assert.True(t, list[0].Seen)
	assert.True(t, list[1].Seen)

	s.Publish(evs(3))
	assert.Equal(t, 1, s.Unseen())
}

func TestSinkSubscribers(t *testing.T) {
	s := NewSink(10, zaptest.NewLogger(t))
	fast, unsubFast := s.Subscribe(4)
	defer unsubFast()
	slow, unsubSlow := s.Subscribe(1)
	defer unsubSlow()

	s.Publish(evs(1, 2))

	assert.Equal(t, int64(1), (<-fast).Event.ID)
	assert.Equal(t, int64(2), (<-fast).Event.ID)
	assert.Equal(t, int64(1), (<-slow).Event.ID)
	assert.Len(t, slow, 0)

	unsubFast()
	s.Publish(evs(3))
	assert.Len(t, fast, 0)
	assert.Equal(t, int64(3), (<-slow).Event.ID)
}

func TestPumpFirstEventScenario(t *testing.T) {
	fetcher := &latestFetcher{latest: 40}
	dedup := NewDeduplicator(zaptest.NewLogger(t))
	sink := NewSink(DefaultCapacity, zaptest.NewLogger(t))
	queue := make(chan live.Batch, 1)
	p := NewPump(queue, dedup, sink, fetcher, data.NewQuery("events", nil), zaptest.NewLogger(t))

	admitted := p.Handle(context.Background(), live.Batch{Transport: live.KindSocket, Events: evs(42)})

	assert.Equal(t, []int64{42}, ids(admitted))
	assert.Equal(t, int64(42), dedup.Cursor().LastSeenID)
	assert.Len(t, sink.List(), 1)
	assert.Equal(t, 1, sink.Unseen())
	assert.Len(t, fetcher.reqs, 1)
}

func TestPumpRetriesBootstrap(t *testing.T) {
	fetcher := &latestFetcher{err: errors.New("bad gateway")}
	dedup := NewDeduplicator(zaptest.NewLogger(t))
	sink := NewSink(10, zaptest.NewLogger(t))
	p := NewPump(nil, dedup, sink, fetcher, data.NewQuery("events", nil), zaptest.NewLogger(t))

	assert.Empty(t, p.Handle(context.Background(), live.Batch{Events: evs(41)}))
	assert.Equal(t, 0, sink.Unseen())

	fetcher.mu.Lock()
	fetcher.err, fetcher.latest = nil, 41
	fetcher.mu.Unlock()

	assert.Equal(t, []int64{42}, ids(p.Handle(context.Background(), live.Batch{Events: evs(41, 42)})))
	assert.Len(t, fetcher.reqs, 2)
}

func TestPumpDropsInvalidEvents(t *testing.T) {
	dedup := bootstrapped(t, 1)
	sink := NewSink(10, zaptest.NewLogger(t))
	p := NewPump(nil, dedup, sink, &latestFetcher{}, data.NewQuery("events", nil), zaptest.NewLogger(t))

	admitted := p.Handle(context.Background(), live.Batch{Events: []data.Event{{ID: 0}, {ID: 2}}})
	assert.Equal(t, []int64{2}, ids(admitted))
}

func TestPumpRunDrainsQueue(t *testing.T) {
	dedup := bootstrapped(t, 0)
	sink := NewSink(10, zaptest.NewLogger(t))
	queue := make(chan live.Batch, 2)
	p := NewPump(queue, dedup, sink, &latestFetcher{}, data.NewQuery("events", nil), zaptest.NewLogger(t))

	queue <- live.Batch{Events: evs(1, 2)}
	queue <- live.Batch{Events: evs(2, 3)}
	close(queue)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not stop on closed queue")
	}

	assert.Equal(t, 3, sink.Unseen())
}
