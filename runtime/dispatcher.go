package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"market-chat/contract"
	"market-chat/domain"
	errs "market-chat/errors"
)

// Dispatcher fans session notifications out to subscribed sinks.
//
// It provides best-effort delivery with no ordering or retry guarantees;
// it is not a message broker. One failing or panicking sink must never
// prevent delivery to the others. The subscriber set is bounded so a
// misbehaving caller cannot grow it without limit.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sinks       []contract.EventSink
	maxSinks    int
	sinkTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, maxSinks int, sinkTimeout time.Duration) *Dispatcher {
	return &Dispatcher{log: log, maxSinks: maxSinks, sinkTimeout: sinkTimeout}
}

// Subscribe registers a sink. Subscribing the same sink twice is a no-op.
func (d *Dispatcher) Subscribe(sink contract.EventSink) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.sinks {
		if s == sink {
			return nil
		}
	}
	if d.maxSinks > 0 && len(d.sinks) >= d.maxSinks {
		return fmt.Errorf("%w: %d sinks", errs.ErrTooManySinks, d.maxSinks)
	}
	d.sinks = append(d.sinks, sink)
	return nil
}

func (d *Dispatcher) Unsubscribe(sink contract.EventSink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.sinks {
		if s == sink {
			d.sinks = append(d.sinks[:i:i], d.sinks[i+1:]...)
			return
		}
	}
}

// Dispatch delivers the notification to every sink synchronously, in
// subscription order. Sink errors and panics are logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.Notification) {
	d.mu.RLock()
	sinks := make([]contract.EventSink, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	for _, sink := range sinks {
		d.deliver(ctx, sink, n)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink contract.EventSink, n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("Sink panicked during notification delivery", "type", n.Type, "panic", r)
		}
	}()

	sinkCtx := ctx
	if d.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, d.sinkTimeout)
		defer cancel()
	}
	if err := sink.Consume(sinkCtx, n); err != nil {
		d.log.Warn("Sink rejected notification", "type", n.Type, "error", err)
	}
}

func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sinks)
}

func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = nil
}
