package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/live"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

// Pump is the single consumer of the live queue. It is the only writer of
// the dedup cursor.
type Pump struct {
	batches   <-chan live.Batch
	dedup     *Deduplicator
	sink      *Sink
	fetcher   api.Fetcher
	bootstrap data.Query
	logger    *zap.Logger
}

// NewPump wires the queue to dedup and sink. bootstrap is the unfiltered
// event list query used to seed the cursor.
func NewPump(batches <-chan live.Batch, dedup *Deduplicator, sink *Sink, fetcher api.Fetcher, bootstrap data.Query, logger *zap.Logger) *Pump {
	return &Pump{
		batches:   batches,
		dedup:     dedup,
		sink:      sink,
		fetcher:   fetcher,
		bootstrap: bootstrap,
		logger:    logger,
	}
}

// Run drains the queue until ctx ends or the queue is closed.
func (p *Pump) Run(ctx context.Context) {
	p.logger.Info("event pump starting")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("event pump stopping")
			return
		case batch, ok := <-p.batches:
			if !ok {
				return
			}
			p.Handle(ctx, batch)
		}
	}
}

// Handle processes one batch. The cursor is bootstrapped on first use; if
// that fails the batch is rejected and bootstrap is retried on the next one.
func (p *Pump) Handle(ctx context.Context, batch live.Batch) []data.Event {
	if !p.dedup.Initialized() {
		if err := p.dedup.Bootstrap(ctx, p.fetcher, p.bootstrap); err != nil {
			p.logger.Warn("dedup bootstrap failed, rejecting batch",
				zap.String("transport", string(batch.Transport)),
				zap.Int("events", len(batch.Events)),
				zap.Error(err),
			)
		}
	}

	valid := make([]data.Event, 0, len(batch.Events))
	for _, ev := range batch.Events {
		if ev.ID <= 0 {
			metrics.RecordDroppedEvent()
			p.logger.Warn("dropping event without a valid id", zap.String("transport", string(batch.Transport)))
			continue
		}
		valid = append(valid, ev)
	}

	admitted := p.dedup.Admit(valid)
	metrics.RecordEvents(len(admitted), len(valid)-len(admitted))
	if len(admitted) == 0 {
		return nil
	}

	p.sink.Publish(admitted)
	p.logger.Info("events admitted",
		zap.String("transport", string(batch.Transport)),
		zap.Int("admitted", len(admitted)),
		zap.Int("received", len(batch.Events)),
		zap.Int64("cursor", p.dedup.Cursor().LastSeenID),
	)
	return admitted
}
