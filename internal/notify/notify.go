package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/events"
	"github.com/dgnsrekt/incidentsync/internal/live"
)

// Notifier pushes admitted events and channel failures to an external service.
type Notifier interface {
	SendEvent(ctx context.Context, ev data.Event) error
	SendChannelFailed(ctx context.Context, s live.State) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

func (c *Client) SendEvent(ctx context.Context, ev data.Event) error {
	if !c.config.Enabled {
		return nil
	}
	return c.send(ctx, FormatEventTitle(ev), FormatEventMessage(ev), c.config.Tags+",bell", c.config.Priority)
}

func (c *Client) SendChannelFailed(ctx context.Context, s live.State) error {
	if !c.config.Enabled {
		return nil
	}
	// Failures always go out at high priority.
	return c.send(ctx, "Live channel failed", FormatChannelFailure(s), c.config.Tags+",x", "high")
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", strings.TrimPrefix(tags, ","))

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is used when push is disabled.
type NoopNotifier struct{}

func (NoopNotifier) SendEvent(context.Context, data.Event) error         { return nil }
func (NoopNotifier) SendChannelFailed(context.Context, live.State) error { return nil }

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if cfg == nil || !cfg.Enabled {
		return NoopNotifier{}
	}
	return NewClient(cfg, logger)
}

// Forward relays sink notifications and channel failures to n until ctx ends.
func Forward(ctx context.Context, n Notifier, sink *events.Sink, channel *live.Channel, logger *zap.Logger) {
	notes, unsubNotes := sink.Subscribe(64)
	defer unsubNotes()
	states, unsubStates := channel.Subscribe()
	defer unsubStates()

	for {
		select {
		case <-ctx.Done():
			return
		case note := <-notes:
			if err := n.SendEvent(ctx, note.Event); err != nil {
				logger.Debug("event push failed", zap.Int64("event_id", note.Event.ID), zap.Error(err))
			}
		case s := <-states:
			if s.Phase != live.Failed {
				continue
			}
			if err := n.SendChannelFailed(ctx, s); err != nil {
				logger.Debug("failure push failed", zap.Error(err))
			}
		}
	}
}
