package live

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

// Server-push event names.
const (
	sseNewEvent  = "new_event"
	sseHeartbeat = "heartbeat"
)

// DefaultIdleTimeout is how long a stream may stay silent, heartbeats
// included, before it is treated as dead.
const DefaultIdleTimeout = 90 * time.Second

// StreamTransport receives events from a server-push (text/event-stream) endpoint.
type StreamTransport struct {
	url         string
	creds       api.CredentialSource
	client      *http.Client
	idleTimeout time.Duration
	logger      *zap.Logger

	mu          sync.Mutex
	body        io.ReadCloser
	connID      string
	lastEventID string
}

func NewStreamTransport(url string, creds api.CredentialSource, idleTimeout time.Duration, logger *zap.Logger) *StreamTransport {
	if creds == nil {
		creds = api.StaticToken("")
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &StreamTransport{
		url:   url,
		creds: creds,
		// No client timeout: the response body is read for the life of the stream.
		client:      &http.Client{},
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

func (t *StreamTransport) Kind() Kind { return KindStream }

// Open issues the stream request. The request is bound to ctx, so the body
// stays readable until ctx ends or Close is called.
func (t *StreamTransport) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return &TransportError{Kind: KindStream, Op: "open", Err: err}
	}
	token, err := t.creds.Token(ctx)
	if err != nil {
		return &TransportError{Kind: KindStream, Op: "open", Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	t.mu.Lock()
	if t.lastEventID != "" {
		req.Header.Set("Last-Event-ID", t.lastEventID)
	}
	t.mu.Unlock()

	resp, err := t.client.Do(req)
	if err != nil {
		return &TransportError{Kind: KindStream, Op: "open", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return &TransportError{Kind: KindStream, Op: "open", Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		_ = resp.Body.Close()
		return &TransportError{Kind: KindStream, Op: "open", Err: fmt.Errorf("unexpected content type %q", mt)}
	}

	t.mu.Lock()
	t.body = resp.Body
	t.connID = uuid.New().String()
	t.mu.Unlock()

	t.logger.Info("stream connected",
		zap.String("url", t.url),
		zap.String("connID", t.connID),
	)
	return nil
}

// sseFrame is one dispatched server-sent event.
type sseFrame struct {
	event string
	id    string
	data  string
}

func (t *StreamTransport) Receive(ctx context.Context, out chan<- Batch) error {
	t.mu.Lock()
	body, connID := t.body, t.connID
	t.mu.Unlock()
	if body == nil {
		return &TransportError{Kind: KindStream, Op: "receive", Err: errors.New("not open")}
	}

	// Watchdog: a silent stream is closed so the blocked read returns.
	var idle sync.Mutex
	timedOut := false
	watchdog := time.AfterFunc(t.idleTimeout, func() {
		idle.Lock()
		timedOut = true
		idle.Unlock()
		_ = body.Close()
	})
	defer watchdog.Stop()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = body.Close()
		case <-stop:
		}
	}()

	err := readFrames(body, func() { watchdog.Reset(t.idleTimeout) }, func(f sseFrame) error {
		batch, ok := t.handleFrame(connID, f)
		if !ok {
			return nil
		}
		return deliver(ctx, out, batch)
	})

	if ctx.Err() != nil {
		return ctx.Err()
	}
	idle.Lock()
	silent := timedOut
	idle.Unlock()
	if silent {
		err = fmt.Errorf("no data for %s", t.idleTimeout)
	}
	if err == nil {
		err = io.EOF
	}
	return &TransportError{Kind: KindStream, Op: "receive", Err: err}
}

func (t *StreamTransport) handleFrame(connID string, f sseFrame) (Batch, bool) {
	if f.id != "" {
		t.mu.Lock()
		t.lastEventID = f.id
		t.mu.Unlock()
	}

	switch f.event {
	case sseNewEvent, "":
		if f.data == "" {
			return Batch{}, false
		}
		var ev data.Event
		if err := json.Unmarshal([]byte(f.data), &ev); err != nil {
			metrics.RecordDroppedEvent()
			t.logger.Warn("dropping malformed event",
				zap.String("connID", connID),
				zap.Error(err),
			)
			return Batch{}, false
		}
		return Batch{Transport: KindStream, Events: []data.Event{ev}}, true

	case sseHeartbeat:
		t.logger.Debug("stream heartbeat", zap.String("connID", connID))

	default:
		t.logger.Debug("ignoring stream event",
			zap.String("connID", connID),
			zap.String("event", f.event),
		)
	}
	return Batch{}, false
}

// readFrames parses an event stream, calling onLine for every line read and
// dispatch for every complete frame. It returns nil on EOF.
func readFrames(r io.Reader, onLine func(), dispatch func(sseFrame) error) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	var (
		frame sseFrame
		lines []string
	)

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			onLine()
			line = strings.TrimRight(line, "\r\n")

			if line == "" {
				if len(lines) > 0 || frame.event != "" {
					frame.data = strings.Join(lines, "\n")
					if derr := dispatch(frame); derr != nil {
						return derr
					}
				}
				frame, lines = sseFrame{}, nil
			} else if !strings.HasPrefix(line, ":") {
				field, value, _ := strings.Cut(line, ":")
				value = strings.TrimPrefix(value, " ")
				switch field {
				case "event":
					frame.event = value
				case "data":
					lines = append(lines, value)
				case "id":
					frame.id = value
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (t *StreamTransport) Close() error {
	t.mu.Lock()
	body := t.body
	t.body = nil
	t.mu.Unlock()
	if body == nil {
		return nil
	}
	return body.Close()
}
