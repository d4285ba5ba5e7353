package live

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
)

// fakeTransport fails Open according to openOK (by call index, 0-based) and
// blocks in Receive until ctx ends, or fails immediately when recvErr is set.
type fakeTransport struct {
	kind    Kind
	openOK  func(call int) bool
	recvErr error

	mu     sync.Mutex
	opens  int
	closes int
}

func (f *fakeTransport) Kind() Kind { return f.kind }

func (f *fakeTransport) Open(ctx context.Context) error {
	f.mu.Lock()
	call := f.opens
	f.opens++
	f.mu.Unlock()
	if f.openOK != nil && f.openOK(call) {
		return nil
	}
	return &TransportError{Kind: f.kind, Op: "open", Err: errors.New("connection refused")}
}

func (f *fakeTransport) Receive(ctx context.Context, out chan<- Batch) error {
	if f.recvErr != nil {
		return f.recvErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// batchTransport delivers its batches once, then idles until ctx ends.
type batchTransport struct {
	batches []Batch
}

func (b *batchTransport) Kind() Kind                     { return KindPoll }
func (b *batchTransport) Open(ctx context.Context) error { return nil }
func (b *batchTransport) Close() error                   { return nil }

func (b *batchTransport) Receive(ctx context.Context, out chan<- Batch) error {
	for _, batch := range b.batches {
		if err := deliver(ctx, out, batch); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type recordedWaits struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedWaits) wait(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordedWaits) all() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func TestBackoffDelay(t *testing.T) {
	b := DefaultBackoff()
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, b.Delay(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, time.Second, b.Delay(0))
}

func TestChannelFailsAfterMaxAttempts(t *testing.T) {
	tr := &fakeTransport{kind: KindSocket}
	waits := &recordedWaits{}

	var mu sync.Mutex
	var seen []string
	c := NewChannel(tr, Options{OnStateChange: func(s State) {
		mu.Lock()
		seen = append(seen, s.String())
		mu.Unlock()
	}}, zaptest.NewLogger(t))
	c.wait = waits.wait

	require.NoError(t, c.Connect(context.Background()))
	c.Wait()

	assert.Equal(t, Failed, c.State().Phase)
	assert.Equal(t, 6, tr.openCount())
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, waits.all())
	assert.Contains(t, c.State().LastError, "connection refused")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"connecting", "reconnecting(1)",
		"connecting", "reconnecting(2)",
		"connecting", "reconnecting(3)",
		"connecting", "reconnecting(4)",
		"connecting", "reconnecting(5)",
		"connecting", "failed",
	}, seen)
}

func TestChannelResetsAttemptsAfterConnect(t *testing.T) {
	// Fails twice, connects once and drops, then fails for good.
	tr := &fakeTransport{
		kind:    KindStream,
		openOK:  func(call int) bool { return call == 2 },
		recvErr: errors.New("stream reset"),
	}
	waits := &recordedWaits{}
	c := NewChannel(tr, Options{}, zaptest.NewLogger(t))
	c.wait = waits.wait

	require.NoError(t, c.Connect(context.Background()))
	c.Wait()

	assert.Equal(t, Failed, c.State().Phase)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second,
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, waits.all())
	assert.Equal(t, 1, tr.closes)
}

func TestChannelDisconnectInterruptsBackoff(t *testing.T) {
	tr := &fakeTransport{kind: KindSocket}
	c := NewChannel(tr, Options{}, zaptest.NewLogger(t))

	waiting := make(chan struct{})
	var once sync.Once
	c.wait = func(ctx context.Context, d time.Duration) error {
		once.Do(func() { close(waiting) })
		<-ctx.Done()
		return ctx.Err()
	}

	require.NoError(t, c.Connect(context.Background()))
	select {
	case <-waiting:
	case <-time.After(2 * time.Second):
		t.Fatal("channel never entered backoff")
	}
	assert.Equal(t, Reconnecting, c.State().Phase)

	assert.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyRunning)

	done := make(chan struct{})
	go func() {
		c.Disconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect did not interrupt backoff")
	}

	assert.Equal(t, Disconnected, c.State().Phase)
	assert.Equal(t, 1, tr.openCount())
}

func TestChannelReconnectAfterFailed(t *testing.T) {
	tr := &fakeTransport{kind: KindSocket}
	c := NewChannel(tr, Options{MaxAttempts: 1}, zaptest.NewLogger(t))
	c.wait = (&recordedWaits{}).wait

	require.NoError(t, c.Connect(context.Background()))
	c.Wait()
	require.Equal(t, Failed, c.State().Phase)

	require.NoError(t, c.Connect(context.Background()))
	c.Wait()
	assert.Equal(t, Failed, c.State().Phase)
	assert.Equal(t, 4, tr.openCount())
}

func TestChannelFallsBackToSecondTransport(t *testing.T) {
	primary := &fakeTransport{kind: KindSocket}
	fallback := &fakeTransport{kind: KindPoll, openOK: func(int) bool { return true }}
	c := NewChannel(primary, Options{MaxAttempts: 2, Fallback: fallback}, zaptest.NewLogger(t))
	c.wait = (&recordedWaits{}).wait

	states, unsubscribe := c.Subscribe()
	defer unsubscribe()

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s.Phase == Connected {
				assert.Equal(t, KindPoll, s.Transport)
				assert.Equal(t, 3, primary.openCount())
				assert.Equal(t, 1, fallback.openCount())
				return
			}
		case <-deadline:
			t.Fatal("fallback transport never connected")
		}
	}
}

func TestChannelDeliversBatches(t *testing.T) {
	tr := &batchTransport{batches: []Batch{
		{Transport: KindPoll, Events: nil},
		{Transport: KindPoll, Events: []data.Event{{ID: 1}, {ID: 2}}},
	}}
	c := NewChannel(tr, Options{QueueSize: 4}, zaptest.NewLogger(t))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	select {
	case b := <-c.Batches():
		require.Len(t, b.Events, 2)
		assert.Equal(t, int64(1), b.Events[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}
}
