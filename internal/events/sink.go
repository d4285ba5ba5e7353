package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

const DefaultCapacity = 100

type Notification struct {
	Event      data.Event `json:"event"`
	Seen       bool       `json:"seen"`
	ReceivedAt time.Time  `json:"received_at"`
}

// Sink holds the newest-first notification list and the unseen count, and
// fans new notifications out to subscribers. It is process-lifetime only.
type Sink struct {
	capacity int
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	items  []Notification
	unseen int
	subs   map[chan Notification]struct{}
}

func NewSink(capacity int, logger *zap.Logger) *Sink {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Sink{
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
		subs:     make(map[chan Notification]struct{}),
	}
}

// Publish adds one unseen notification per event to the front of the list.
// events are oldest first, so the newest ends up at index 0. Entries beyond
// capacity are dropped from the back.
func (s *Sink) Publish(events []data.Event) {
	if len(events) == 0 {
		return
	}
	at := s.now()

	added := make([]Notification, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		added = append(added, Notification{Event: events[i], ReceivedAt: at})
	}

	s.mu.Lock()
	s.items = append(added, s.items...)
	s.unseen += len(added)
	if len(s.items) > s.capacity {
		for _, n := range s.items[s.capacity:] {
			if !n.Seen {
				s.unseen--
			}
		}
		s.items = s.items[:s.capacity:s.capacity]
	}
	unseen := s.unseen
	subs := make([]chan Notification, 0, len(s.subs))
	for ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	metrics.UnseenNotifications.Set(float64(unseen))
	s.logger.Debug("notifications published",
		zap.Int("added", len(added)),
		zap.Int("unseen", unseen),
	)

	// Subscribers receive in arrival order.
	for i := len(added) - 1; i >= 0; i-- {
		for _, ch := range subs {
			select {
			case ch <- added[i]:
			default:
				s.logger.Debug("notification subscriber full, dropping", zap.Int64("event_id", added[i].Event.ID))
			}
		}
	}
}

// MarkAllSeen zeroes the unseen count and keeps every entry.
func (s *Sink) MarkAllSeen() {
	s.mu.Lock()
	for i := range s.items {
		s.items[i].Seen = true
	}
	s.unseen = 0
	s.mu.Unlock()

	metrics.UnseenNotifications.Set(0)
}

func (s *Sink) Unseen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unseen
}

// List returns a copy of the notifications, newest first.
func (s *Sink) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Subscribe registers an observer. Publish never blocks on a subscriber; a
// full buffer drops the notification for that subscriber only.
func (s *Sink) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}
