package live

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

type PollOptions struct {
	Interval time.Duration
	// Window narrows each poll to events created within this span of now.
	Window     time.Duration
	PageSize   int
	SinceParam string
}

func DefaultPollOptions() PollOptions {
	return PollOptions{
		Interval:   30 * time.Second,
		Window:     10 * time.Minute,
		PageSize:   50,
		SinceParam: "created_after",
	}
}

// PollTransport turns repeated list requests into batches. Each batch is the
// delta of one poll cycle: events newer than anything the previous cycle saw.
type PollTransport struct {
	fetcher api.Fetcher
	query   data.Query
	opts    PollOptions
	logger  *zap.Logger
	now     func() time.Time
	wait    func(ctx context.Context, d time.Duration) error

	lastMaxID int64
}

func NewPollTransport(fetcher api.Fetcher, query data.Query, opts PollOptions, logger *zap.Logger) *PollTransport {
	d := DefaultPollOptions()
	if opts.Interval <= 0 {
		opts.Interval = d.Interval
	}
	if opts.Window <= 0 {
		opts.Window = d.Window
	}
	if opts.PageSize < 1 {
		opts.PageSize = d.PageSize
	}
	if opts.SinceParam == "" {
		opts.SinceParam = d.SinceParam
	}
	return &PollTransport{
		fetcher: fetcher,
		query:   query,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		wait:    api.Sleep,
	}
}

func (t *PollTransport) Kind() Kind { return KindPoll }

// Open has nothing to establish; the first poll happens in Receive.
func (t *PollTransport) Open(ctx context.Context) error {
	return ctx.Err()
}

func (t *PollTransport) Receive(ctx context.Context, out chan<- Batch) error {
	for {
		batch, err := t.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Kind: KindPoll, Op: "receive", Err: err}
		}
		if err := deliver(ctx, out, batch); err != nil {
			return err
		}
		if err := t.wait(ctx, t.opts.Interval); err != nil {
			return err
		}
	}
}

func (t *PollTransport) poll(ctx context.Context) (Batch, error) {
	since := t.now().Add(-t.opts.Window).UTC().Format(time.RFC3339)
	req, err := data.NewPageRequest(t.query.With(t.opts.SinceParam, since), 1, t.opts.PageSize)
	if err != nil {
		return Batch{}, err
	}

	page, err := t.fetcher.FetchPage(ctx, req)
	if err != nil {
		return Batch{}, err
	}

	events := make([]data.Event, 0, len(page.Items))
	for _, item := range page.Items {
		ev, err := data.EventFromRecord(item)
		if err != nil {
			metrics.RecordDroppedEvent()
			t.logger.Warn("dropping malformed polled record", zap.Error(err))
			continue
		}
		if ev.ID > t.lastMaxID {
			events = append(events, ev)
		}
	}

	// The list endpoint returns newest first; batches go out oldest first.
	sort.SliceStable(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	if n := len(events); n > 0 {
		t.lastMaxID = events[n-1].ID
	}

	t.logger.Debug("poll cycle",
		zap.String("query", req.Query.Key()),
		zap.Int("items", len(page.Items)),
		zap.Int("new", len(events)),
	)
	return Batch{Transport: KindPoll, Events: events}, nil
}

func (t *PollTransport) Close() error { return nil }
