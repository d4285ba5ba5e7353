package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message or pong from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB
)

// Socket message kinds.
const (
	msgNewEvent    = "new_event"
	msgEventUpdate = "event_update"
	msgPing        = "ping"
	msgPong        = "pong"
)

// socketMessage is the envelope pushed by the socket endpoint.
type socketMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SocketTransport receives events over a persistent full-duplex websocket.
type SocketTransport struct {
	url    string
	creds  api.CredentialSource
	dialer *websocket.Dialer
	logger *zap.Logger

	pongWait   time.Duration
	pingPeriod time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	connID  string
	writeMu sync.Mutex
}

func NewSocketTransport(url string, creds api.CredentialSource, logger *zap.Logger) *SocketTransport {
	if creds == nil {
		creds = api.StaticToken("")
	}
	return &SocketTransport{
		url:   url,
		creds: creds,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
		logger:     logger,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

func (t *SocketTransport) Kind() Kind { return KindSocket }

func (t *SocketTransport) Open(ctx context.Context) error {
	header := http.Header{}
	token, err := t.creds.Token(ctx)
	if err != nil {
		return &TransportError{Kind: KindSocket, Op: "open", Err: err}
	}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return &TransportError{Kind: KindSocket, Op: "open", Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.connID = uuid.New().String()
	t.mu.Unlock()

	t.logger.Info("socket connected",
		zap.String("url", t.url),
		zap.String("connID", t.connID),
	)
	return nil
}

func (t *SocketTransport) Receive(ctx context.Context, out chan<- Batch) error {
	t.mu.Lock()
	conn, connID := t.conn, t.connID
	t.mu.Unlock()
	if conn == nil {
		return &TransportError{Kind: KindSocket, Op: "receive", Err: errors.New("not open")}
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(t.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(t.pongWait))
	})

	// Closing the connection is the only way to unblock ReadMessage.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	go t.pingLoop(conn, stop)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debug("socket read error",
					zap.String("connID", connID),
					zap.Error(err),
				)
			}
			return &TransportError{Kind: KindSocket, Op: "receive", Err: err}
		}
		// Any inbound traffic proves the peer is alive.
		_ = conn.SetReadDeadline(time.Now().Add(t.pongWait))

		batch, ok := t.handleMessage(conn, connID, message)
		if !ok {
			continue
		}
		if err := deliver(ctx, out, batch); err != nil {
			return err
		}
	}
}

// handleMessage decodes one socket message. Only new_event yields a batch.
func (t *SocketTransport) handleMessage(conn *websocket.Conn, connID string, message []byte) (Batch, bool) {
	var msg socketMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		metrics.RecordDroppedEvent()
		t.logger.Warn("dropping malformed socket message",
			zap.String("connID", connID),
			zap.Error(err),
		)
		return Batch{}, false
	}

	switch msg.Type {
	case msgNewEvent:
		var ev data.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			metrics.RecordDroppedEvent()
			t.logger.Warn("dropping malformed event",
				zap.String("connID", connID),
				zap.Error(err),
			)
			return Batch{}, false
		}
		return Batch{Transport: KindSocket, Events: []data.Event{ev}}, true

	case msgPing:
		if err := t.write(conn, websocket.TextMessage, []byte(`{"type":"pong"}`)); err != nil {
			t.logger.Debug("failed to acknowledge ping", zap.String("connID", connID), zap.Error(err))
		}

	case msgPong:

	case msgEventUpdate:
		t.logger.Debug("ignoring event update", zap.String("connID", connID))

	default:
		t.logger.Debug("ignoring unknown socket message",
			zap.String("connID", connID),
			zap.String("type", msg.Type),
		)
	}
	return Batch{}, false
}

func (t *SocketTransport) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(t.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := t.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (t *SocketTransport) write(conn *websocket.Conn, messageType int, payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

func (t *SocketTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}

	_ = t.write(conn, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}
