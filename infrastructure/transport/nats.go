// Package transport adapts NATS JetStream to the messaging delegate
// contract. One subject per conversation carries both directions; the
// realtime consumer watches the whole network hierarchy and surfaces
// every message involving the local user as an inbound event.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"market-chat/contract"
	"market-chat/domain"
)

const streamMaxAge = 30 * 24 * time.Hour

type wireMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	ListingID string    `json:"listingId,omitempty"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type NatsTransport struct {
	log         *slog.Logger
	url         string
	networkID   string
	localUserID string

	nc         *nats.Conn
	js         jetstream.JetStream
	consumeCtx jetstream.ConsumeContext
	events     chan contract.InboundEvent
	closeOnce  sync.Once
}

func NewNatsTransport(log *slog.Logger, url, networkID, localUserID string, bufferSize int) *NatsTransport {
	return &NatsTransport{
		log:         log,
		url:         url,
		networkID:   networkID,
		localUserID: localUserID,
		events:      make(chan contract.InboundEvent, bufferSize),
	}
}

func (t *NatsTransport) streamName() string {
	return "CHAT_" + strings.ToUpper(t.networkID)
}

func (t *NatsTransport) roomSubject(channelID string) string {
	return fmt.Sprintf("chat.%s.room.%s", t.networkID, channelID)
}

// Connect establishes the NATS connection, ensures the network's stream
// exists, and starts the realtime consumer feeding Events().
func (t *NatsTransport) Connect(ctx context.Context) error {
	nc, err := nats.Connect(t.url, t.dialOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create jetstream context: %w", err)
	}

	stream, err := js.Stream(ctx, t.streamName())
	if err != nil {
		t.log.Info("Stream not found, creating", "stream", t.streamName())
		stream, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        t.streamName(),
			Description: "Marketplace conversation messages",
			Subjects:    []string{fmt.Sprintf("chat.%s.room.>", t.networkID)},
			MaxAge:      streamMaxAge,
			Storage:     jetstream.FileStorage,
		})
		if err != nil {
			nc.Close()
			return fmt.Errorf("failed to create stream %q: %w", t.streamName(), err)
		}
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: fmt.Sprintf("chat.%s.room.>", t.networkID),
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckNonePolicy,
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create realtime consumer: %w", err)
	}

	consumeCtx, err := cons.Consume(t.onInbound)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	t.nc = nc
	t.js = js
	t.consumeCtx = consumeCtx
	t.log.Info("Connected to NATS", "url", t.url, "stream", t.streamName())
	return nil
}

// dialOptions derives the dial timeout from the caller's deadline, since
// nats.Connect does not take a context.
func (t *NatsTransport) dialOptions(ctx context.Context) []nats.Option {
	opts := []nats.Option{nats.Name("market-chat/" + t.localUserID)}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}
	return opts
}

func (t *NatsTransport) onInbound(jsMsg jetstream.Msg) {
	var wire wireMessage
	if err := json.Unmarshal(jsMsg.Data(), &wire); err != nil {
		t.log.Warn("Discarding malformed message", "subject", jsMsg.Subject(), "error", err)
		return
	}
	if wire.Sender != t.localUserID && wire.Recipient != t.localUserID {
		return
	}
	select {
	case t.events <- contract.InboundEvent{Type: contract.EventChatMessage, Message: toDomain(wire)}:
	default:
		t.log.Warn("Inbound event buffer full, dropping event", "id", wire.ID)
	}
}

// Send publishes the message on its conversation subject and waits for
// the stream acknowledgement.
func (t *NatsTransport) Send(ctx context.Context, recipient, content, listingID string, msgType domain.MessageType) (domain.ChatMessage, error) {
	wire := wireMessage{
		ID:        uuid.NewString(),
		Sender:    t.localUserID,
		Recipient: recipient,
		ListingID: listingID,
		Type:      string(msgType),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	subject := t.roomSubject(domain.DeriveRoomID(listingID, t.localUserID, recipient))
	if _, err = t.js.Publish(ctx, subject, data); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to publish to %q: %w", subject, err)
	}
	return toDomain(wire), nil
}

// Fetch reads one page of a conversation's history from the stream.
func (t *NatsTransport) Fetch(ctx context.Context, channelID string, limit, offset int) ([]domain.ChatMessage, error) {
	cons, err := t.js.CreateOrUpdateConsumer(ctx, t.streamName(), jetstream.ConsumerConfig{
		FilterSubject: t.roomSubject(channelID),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckNonePolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create history consumer: %w", err)
	}

	batch, err := cons.FetchNoWait(limit + offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %q: %w", channelID, err)
	}

	var res []domain.ChatMessage
	seen := 0
	for jsMsg := range batch.Messages() {
		var wire wireMessage
		if err := json.Unmarshal(jsMsg.Data(), &wire); err != nil {
			t.log.Warn("Discarding malformed history message", "error", err)
			continue
		}
		seen++
		if seen <= offset {
			continue
		}
		res = append(res, toDomain(wire))
		if len(res) == limit {
			break
		}
	}
	if err := batch.Error(); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *NatsTransport) Events() <-chan contract.InboundEvent {
	return t.events
}

func (t *NatsTransport) Close() error {
	t.closeOnce.Do(func() {
		if t.consumeCtx != nil {
			t.consumeCtx.Stop()
		}
		if t.nc != nil {
			t.nc.Close()
		}
		close(t.events)
	})
	return nil
}

func toDomain(wire wireMessage) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        wire.ID,
		Content:   wire.Content,
		Sender:    wire.Sender,
		Recipient: wire.Recipient,
		ListingID: wire.ListingID,
		Type:      domain.MessageType(wire.Type),
		CreatedAt: wire.CreatedAt,
	}
	if msg.Type != domain.MessageTypeText {
		msg.Attachment = domain.ParseAttachment(wire.Content)
	}
	return msg
}
