// Package notify delivers new-order notifications to third-party relays. Delivery
// is asynchronous and best effort: failures are logged and never reach the caller.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"clothsy/internal/domain"
	applog "clothsy/internal/log"
)

// Sink is one notification channel (sheet webhook, email service).
type Sink interface {
	Name() string
	Send(ctx context.Context, o domain.Order) error
}

// Dispatcher queues orders and fans each one out to every sink from a single
// worker goroutine.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	queue   chan domain.Order
	done    chan struct{}
	once    sync.Once
}

// NewDispatcher starts the worker. size bounds the queue; Dispatch drops orders
// when it is full.
func NewDispatcher(size int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	d := &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		queue:   make(chan domain.Order, size),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch never blocks.
func (d *Dispatcher) Dispatch(o domain.Order) {
	if len(d.sinks) == 0 {
		return
	}
	defer func() {
		// send on a closed queue after Close
		if recover() != nil {
			applog.Warn(nil, "notify.closed", nil, map[string]any{"order_id": o.ID})
		}
	}()
	select {
	case d.queue <- o:
	default:
		applog.Warn(nil, "notify.queue.full", nil, map[string]any{"order_id": o.ID})
	}
}

// Close stops accepting orders and waits for queued ones to be delivered or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.once.Do(func() { close(d.queue) })
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for o := range d.queue {
		d.deliver(o)
	}
}

func (d *Dispatcher) deliver(o domain.Order) {
	var wg conc.WaitGroup
	for _, s := range d.sinks {
		wg.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := s.Send(ctx, o); err != nil {
				applog.Error(nil, "notify."+s.Name()+".fail", err, map[string]any{"order_id": o.ID})
				return
			}
			applog.Info(nil, "notify."+s.Name()+".sent", map[string]any{"order_id": o.ID})
		})
	}
	// a panicking sink is re-raised by Wait; keep the worker alive
	defer func() {
		if r := recover(); r != nil {
			applog.Error(nil, "notify.sink.panic", nil, map[string]any{"order_id": o.ID, "panic": r})
		}
	}()
	wg.Wait()
}
