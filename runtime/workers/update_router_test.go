package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"market-chat/contract"
	"market-chat/domain"
)

type capturingHandler struct {
	events chan contract.InboundEvent
}

func (h *capturingHandler) HandleInbound(_ context.Context, ev contract.InboundEvent) {
	h.events <- ev
}

func TestUpdateRouter_Delivers_Chat_Message_Events(t *testing.T) {
	req := require.New(t)
	events := make(chan contract.InboundEvent, 1)
	handler := &capturingHandler{events: make(chan contract.InboundEvent, 1)}
	router := NewUpdateRouter(slog.Default(), events, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()

	// When a chat_message event arrives on the stream
	sent := contract.InboundEvent{
		Type:    contract.EventChatMessage,
		Message: domain.ChatMessage{ID: "m1", Sender: "S1", Recipient: "B1", Content: "hello"},
	}
	events <- sent

	// Then the handler receives it untouched
	select {
	case got := <-handler.events:
		req.Equal(sent, got)
	case <-time.After(time.Second):
		t.Fatal("handler never received the event")
	}

	cancel()
	req.NoError(<-done)
}

func TestUpdateRouter_Drops_Unknown_Event_Types(t *testing.T) {
	req := require.New(t)
	events := make(chan contract.InboundEvent, 2)
	handler := &capturingHandler{events: make(chan contract.InboundEvent, 2)}
	router := NewUpdateRouter(slog.Default(), events, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()

	events <- contract.InboundEvent{Type: "presence"}
	events <- contract.InboundEvent{Type: contract.EventChatMessage, Message: domain.ChatMessage{ID: "m2"}}

	// Only the chat_message event comes through
	select {
	case got := <-handler.events:
		req.Equal("m2", got.Message.ID)
	case <-time.After(time.Second):
		t.Fatal("handler never received the event")
	}
	req.Empty(handler.events)
}

func TestUpdateRouter_Stops_When_The_Stream_Closes(t *testing.T) {
	req := require.New(t)
	events := make(chan contract.InboundEvent)
	router := NewUpdateRouter(slog.Default(), events, &capturingHandler{events: make(chan contract.InboundEvent, 1)})

	done := make(chan error, 1)
	go func() { done <- router.Run(context.Background()) }()

	close(events)

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("router never stopped")
	}
}
