// Package workers contains the supervised background goroutines of the
// chat session: realtime update routing and typing indicator expiry.
package workers

import (
	"context"
	"log/slog"

	"market-chat/contract"
)

// InboundHandler folds one realtime event into the session state.
// Implemented by the session façade, which owns the room and cache maps.
type InboundHandler interface {
	HandleInbound(ctx context.Context, ev contract.InboundEvent)
}

// UpdateRouter is the sole consumer of the transport's inbound event
// stream. It runs for the lifetime of the session and hands every event
// to the handler; routing decisions (which room, unread accounting,
// notification sink) live in the handler, not here.
type UpdateRouter struct {
	log     *slog.Logger
	events  <-chan contract.InboundEvent
	handler InboundHandler
}

func NewUpdateRouter(log *slog.Logger, events <-chan contract.InboundEvent, handler InboundHandler) *UpdateRouter {
	return &UpdateRouter{log: log, events: events, handler: handler}
}

func (w *UpdateRouter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping update router")
			return nil
		case ev, ok := <-w.events:
			if !ok {
				w.log.Debug("Inbound event stream closed")
				return nil
			}
			if ev.Type != contract.EventChatMessage {
				w.log.Debug("Dropping unknown inbound event", "type", ev.Type)
				continue
			}
			w.handler.HandleInbound(ctx, ev)
		}
	}
}
