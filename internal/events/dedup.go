package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/data"
)

// Cursor is the dedup watermark. It only moves forward.
type Cursor struct {
	Initialized bool      `json:"initialized"`
	LastSeenID  int64     `json:"last_seen_id"`
	LastSeenAt  time.Time `json:"last_seen_at,omitempty"`
}

// Deduplicator filters inbound batches down to events newer than the cursor.
// Batches are expected oldest first. Until Bootstrap succeeds every batch is
// rejected, so a fresh process never floods observers with old events.
type Deduplicator struct {
	logger *zap.Logger

	mu     sync.Mutex
	cursor Cursor
}

func NewDeduplicator(logger *zap.Logger) *Deduplicator {
	return &Deduplicator{logger: logger}
}

// Bootstrap seeds the cursor from the single most recent event returned by
// the list endpoint for q. An empty list seeds the cursor at zero.
func (d *Deduplicator) Bootstrap(ctx context.Context, fetcher api.Fetcher, q data.Query) error {
	req, err := data.NewPageRequest(q, 1, 1)
	if err != nil {
		return err
	}
	page, err := fetcher.FetchPage(ctx, req)
	if err != nil {
		return fmt.Errorf("bootstrapping dedup cursor: %w", err)
	}

	var latest data.Event
	if len(page.Items) > 0 {
		latest, err = data.EventFromRecord(page.Items[0])
		if err != nil {
			return fmt.Errorf("bootstrapping dedup cursor: %w", err)
		}
	}

	d.mu.Lock()
	d.cursor.Initialized = true
	d.advance(latest.ID, latest.CreatedAt)
	cur := d.cursor
	d.mu.Unlock()

	d.logger.Info("dedup cursor initialized",
		zap.String("query", q.Key()),
		zap.Int64("last_seen_id", cur.LastSeenID),
	)
	return nil
}

// Admit returns the events in batch that are new, preserving batch order.
func (d *Deduplicator) Admit(batch []data.Event) []data.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cursor.Initialized {
		if len(batch) > 0 {
			d.logger.Debug("dedup cursor not initialized, rejecting batch", zap.Int("events", len(batch)))
		}
		return nil
	}

	floor := d.cursor.LastSeenID
	admitted := make([]data.Event, 0, len(batch))
	seen := make(map[int64]struct{}, len(batch))
	for _, ev := range batch {
		if ev.ID <= floor {
			continue
		}
		if _, dup := seen[ev.ID]; dup {
			continue
		}
		seen[ev.ID] = struct{}{}
		admitted = append(admitted, ev)
	}

	for _, ev := range batch {
		d.advance(ev.ID, ev.CreatedAt)
	}
	return admitted
}

// advance moves the cursor forward; callers hold mu.
func (d *Deduplicator) advance(id int64, at time.Time) {
	if id > d.cursor.LastSeenID {
		d.cursor.LastSeenID = id
	}
	if at.After(d.cursor.LastSeenAt) {
		d.cursor.LastSeenAt = at
	}
}

func (d *Deduplicator) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor.Initialized
}

// Cursor returns a snapshot of the watermark.
func (d *Deduplicator) Cursor() Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}
