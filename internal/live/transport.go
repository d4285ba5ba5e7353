package live

import (
	"context"
	"fmt"

	"github.com/dgnsrekt/incidentsync/internal/data"
)

// Kind names a transport implementation.
type Kind string

const (
	KindSocket Kind = "socket"
	KindStream Kind = "stream"
	KindPoll   Kind = "poll"
)

// Batch is the set of events carried by one inbound message or one poll
// cycle, oldest first.
type Batch struct {
	Transport Kind
	Events    []data.Event
}

// Transport is one mechanism for receiving live events. A Transport is used
// by a single goroutine at a time: Open, then Receive until it returns, then Close.
type Transport interface {
	Kind() Kind
	// Open establishes the connection. Failures are *TransportError.
	Open(ctx context.Context) error
	// Receive pushes inbound batches to out until the transport closes,
	// fails or ctx ends. Heartbeats are handled internally and never sent.
	Receive(ctx context.Context, out chan<- Batch) error
	Close() error
}

// TransportError wraps a failure of one transport operation.
type TransportError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport %s: %v", e.Kind, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// deliver blocks until out accepts the batch or ctx ends; the queue is
// bounded so a slow consumer pushes back on the transport.
func deliver(ctx context.Context, out chan<- Batch, b Batch) error {
	if len(b.Events) == 0 {
		return nil
	}
	select {
	case out <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
