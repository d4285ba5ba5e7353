package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/metrics"
)

var ErrAlreadyRunning = errors.New("live channel already running")

type Options struct {
	Backoff     Backoff
	MaxAttempts int
	QueueSize   int
	// Fallback, when set, replaces the primary transport once the primary
	// exhausts its attempts, with a fresh attempt budget.
	Fallback Transport
	// OnStateChange runs synchronously on the owning goroutine for every transition.
	OnStateChange func(State)
}

func DefaultOptions() Options {
	return Options{
		Backoff:     DefaultBackoff(),
		MaxAttempts: 5,
		QueueSize:   64,
	}
}

// Channel keeps one transport connected, reconnecting with exponential
// backoff and giving up after MaxAttempts consecutive failures. State is
// written only by the run goroutine (and by Disconnect once it has exited);
// readers get snapshots.
type Channel struct {
	primary Transport
	opts    Options
	queue   chan Batch
	logger  *zap.Logger
	now     func() time.Time
	wait    func(ctx context.Context, d time.Duration) error

	stateMu sync.RWMutex
	state   State
	subs    map[chan State]struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewChannel(primary Transport, opts Options, logger *zap.Logger) *Channel {
	d := DefaultOptions()
	if opts.Backoff.Base <= 0 {
		opts.Backoff.Base = d.Backoff.Base
	}
	if opts.Backoff.Ceiling < opts.Backoff.Base {
		opts.Backoff.Ceiling = max(d.Backoff.Ceiling, opts.Backoff.Base)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = d.MaxAttempts
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = d.QueueSize
	}

	c := &Channel{
		primary: primary,
		opts:    opts,
		queue:   make(chan Batch, opts.QueueSize),
		logger:  logger,
		now:     time.Now,
		wait:    api.Sleep,
		subs:    make(map[chan State]struct{}),
	}
	c.state = State{Phase: Disconnected, Transport: primary.Kind(), Since: c.now()}
	return c
}

// Batches is the bounded queue every transport pushes into. It is never
// closed; a single consumer drains it for the life of the process.
func (c *Channel) Batches() <-chan Batch {
	return c.queue
}

// Connect starts the background connection loop. It returns
// ErrAlreadyRunning if a loop is active; a Failed or Disconnected channel
// may be connected again.
func (c *Channel) Connect(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.done != nil {
		select {
		case <-c.done:
		default:
			return ErrAlreadyRunning
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		defer cancel()
		c.run(runCtx)
	}(c.done)
	return nil
}

// Disconnect stops the loop, interrupting any in-flight backoff or receive,
// and leaves the channel Disconnected until Connect is called again.
func (c *Channel) Disconnect() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
	}
	if c.State().Phase != Disconnected {
		c.setState(State{Phase: Disconnected, Transport: c.State().Transport})
	}
}

// Wait blocks until the current loop exits, which happens on Failed or
// after Disconnect.
func (c *Channel) Wait() {
	c.runMu.Lock()
	done := c.done
	c.runMu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Channel) run(ctx context.Context) {
	active := c.primary
	attempt := 0

	for {
		c.setState(State{Phase: Connecting, Transport: active.Kind()})

		connected, err := c.session(ctx, active)
		if ctx.Err() != nil {
			c.setState(State{Phase: Disconnected, Transport: active.Kind()})
			return
		}
		if connected {
			attempt = 0
		}
		attempt++

		if attempt > c.opts.MaxAttempts {
			if fb := c.opts.Fallback; fb != nil && active != fb {
				c.logger.Warn("primary transport exhausted, switching to fallback",
					zap.String("from", string(active.Kind())),
					zap.String("to", string(fb.Kind())),
					zap.Error(err),
				)
				active, attempt = fb, 0
				continue
			}
			c.logger.Error("live channel failed",
				zap.String("transport", string(active.Kind())),
				zap.Int("attempts", attempt-1),
				zap.Error(err),
			)
			c.setState(State{Phase: Failed, Transport: active.Kind(), LastError: errString(err)})
			return
		}

		// Measured from the moment of failure.
		delay := c.opts.Backoff.Delay(attempt)
		metrics.ReconnectAttempts.WithLabelValues(string(active.Kind())).Inc()
		c.setState(State{
			Phase:     Reconnecting,
			Attempt:   attempt,
			Transport: active.Kind(),
			LastError: errString(err),
			Delay:     delay,
		})

		if err := c.wait(ctx, delay); err != nil {
			c.setState(State{Phase: Disconnected, Transport: active.Kind()})
			return
		}
	}
}

// session runs one open/receive/close cycle and reports whether the
// transport opened.
func (c *Channel) session(ctx context.Context, t Transport) (bool, error) {
	if err := t.Open(ctx); err != nil {
		c.logger.Debug("transport open failed", zap.String("transport", string(t.Kind())), zap.Error(err))
		return false, err
	}

	c.setState(State{Phase: Connected, Transport: t.Kind()})
	err := t.Receive(ctx, c.queue)
	if cerr := t.Close(); cerr != nil {
		c.logger.Debug("transport close", zap.String("transport", string(t.Kind())), zap.Error(cerr))
	}
	if err != nil && ctx.Err() == nil {
		c.logger.Warn("transport dropped", zap.String("transport", string(t.Kind())), zap.Error(err))
	}
	return true, err
}

// State returns a snapshot of the current state.
func (c *Channel) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Subscribe returns a channel of state snapshots. Slow subscribers miss
// intermediate states; State() always has the latest.
func (c *Channel) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 16)
	c.stateMu.Lock()
	c.subs[ch] = struct{}{}
	c.stateMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.stateMu.Lock()
			delete(c.subs, ch)
			c.stateMu.Unlock()
		})
	}
}

func (c *Channel) setState(s State) {
	s.Since = c.now()

	c.stateMu.Lock()
	c.state = s
	subs := make([]chan State, 0, len(c.subs))
	for ch := range c.subs {
		subs = append(subs, ch)
	}
	c.stateMu.Unlock()

	metrics.ChannelState.Set(float64(s.Phase))
	c.logger.Info("live channel state",
		zap.String("state", s.String()),
		zap.String("transport", string(s.Transport)),
		zap.Duration("delay", s.Delay),
	)

	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(s)
	}
	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
