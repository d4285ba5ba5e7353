package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/events"
	"github.com/dgnsrekt/incidentsync/internal/live"
)

const DefaultHeartbeat = 15 * time.Second

// Relay fans notifications and channel state changes out to SSE clients.
type Relay struct {
	sink     *events.Sink
	channel  *live.Channel
	logger   *zap.Logger
	interval time.Duration

	mu       sync.RWMutex
	sequence uint64
	clients  map[*sseClient]bool
}

// sseClient represents a connected SSE subscriber.
type sseClient struct {
	id      string
	dataCh  chan []byte
	doneCh  chan struct{}
	flusher http.Flusher
	writer  http.ResponseWriter
}

type relaySnapshot struct {
	Channel       live.State            `json:"channel"`
	Unseen        int                   `json:"unseen"`
	Notifications []events.Notification `json:"notifications"`
}

type heartbeat struct {
	Timestamp int64 `json:"timestamp"`
}

func NewRelay(sink *events.Sink, channel *live.Channel, interval time.Duration, logger *zap.Logger) *Relay {
	if interval <= 0 {
		interval = DefaultHeartbeat
	}
	return &Relay{
		sink:     sink,
		channel:  channel,
		logger:   logger,
		interval: interval,
		clients:  make(map[*sseClient]bool),
	}
}

// Start subscribes to the sink and channel, then broadcasts in the
// background until ctx ends.
func (rl *Relay) Start(ctx context.Context) {
	notes, unsubNotes := rl.sink.Subscribe(64)
	var (
		states      <-chan live.State
		unsubStates = func() {}
	)
	if rl.channel != nil {
		states, unsubStates = rl.channel.Subscribe()
	}

	rl.logger.Info("notification relay starting", zap.Duration("heartbeat", rl.interval))

	go func() {
		defer unsubNotes()
		defer unsubStates()

		ticker := time.NewTicker(rl.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				rl.logger.Info("notification relay stopping")
				return
			case n := <-notes:
				rl.broadcast("notification", n)
			case s := <-states:
				rl.broadcast("state", s)
			case <-ticker.C:
				rl.broadcast("heartbeat", heartbeat{Timestamp: time.Now().UnixMilli()})
			}
		}
	}()
}

// HandleSSE streams a snapshot followed by live notifications.
func (rl *Relay) HandleSSE(w http.ResponseWriter, r *http.Request) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &sseClient{
		id:      uuid.New().String(),
		dataCh:  make(chan []byte, 16),
		doneCh:  make(chan struct{}),
		flusher: flusher,
		writer:  w,
	}

	rl.addClient(client)
	defer rl.removeClient(client)

	rl.logger.Info("relay client connected",
		zap.String("client", client.id),
		zap.String("remote_addr", r.RemoteAddr),
	)

	if err := rl.sendEvent(client, "snapshot", rl.snapshot()); err != nil {
		rl.logger.Error("failed to send snapshot", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			rl.logger.Info("relay client disconnected", zap.String("client", client.id))
			return
		case <-client.doneCh:
			return
		case frame := <-client.dataCh:
			if _, err := client.writer.Write(frame); err != nil {
				rl.logger.Debug("failed to write to client", zap.Error(err))
				return
			}
			client.flusher.Flush()
		}
	}
}

func (rl *Relay) ClientCount() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

func (rl *Relay) addClient(client *sseClient) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clients[client] = true
}

func (rl *Relay) removeClient(client *sseClient) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, client)
	close(client.doneCh)
}

func (rl *Relay) snapshot() relaySnapshot {
	snap := relaySnapshot{
		Unseen:        rl.sink.Unseen(),
		Notifications: rl.sink.List(),
	}
	if rl.channel != nil {
		snap.Channel = rl.channel.State()
	}
	return snap
}

func (rl *Relay) broadcast(eventType string, payload any) {
	frame, err := rl.formatEvent(eventType, payload)
	if err != nil {
		rl.logger.Warn("failed to encode relay event", zap.String("event", eventType), zap.Error(err))
		return
	}

	rl.mu.RLock()
	clients := make([]*sseClient, 0, len(rl.clients))
	for client := range rl.clients {
		clients = append(clients, client)
	}
	rl.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.dataCh <- frame:
		default:
			// Channel full, client is slow
			rl.logger.Debug("client channel full, dropping event",
				zap.String("client", client.id),
				zap.String("event", eventType),
			)
		}
	}
}

func (rl *Relay) sendEvent(client *sseClient, eventType string, payload any) error {
	frame, err := rl.formatEvent(eventType, payload)
	if err != nil {
		return err
	}

	if _, err := client.writer.Write(frame); err != nil {
		return err
	}
	client.flusher.Flush()
	return nil
}

func (rl *Relay) formatEvent(eventType string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	rl.mu.Lock()
	rl.sequence++
	seq := rl.sequence
	rl.mu.Unlock()

	return []byte(fmt.Sprintf("event: %s\nid: %d\ndata: %s\n\n", eventType, seq, jsonData)), nil
}
