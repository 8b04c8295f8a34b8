//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"market-chat/domain"
)

type EventType string

const EventChatMessage EventType = "chat_message"

// InboundEvent is one element of the realtime stream produced by the
// transport. Only chat_message events are defined today.
type InboundEvent struct {
	Type    EventType
	Message domain.ChatMessage
}

// Transport is the external messaging service the session delegates to.
// It owns message delivery, history, and the realtime event stream; the
// session layer never implements delivery itself.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, recipient, content, listingID string, msgType domain.MessageType) (domain.ChatMessage, error)
	Fetch(ctx context.Context, channelID string, limit, offset int) ([]domain.ChatMessage, error)
	Events() <-chan InboundEvent
	Close() error
}

// Storage is the external content-addressed store used for attachments.
// Store returns the content hash of the uploaded bytes.
type Storage interface {
	Connect(ctx context.Context) error
	Store(ctx context.Context, data []byte, filename, contentType, ownerID string) (string, error)
	Close() error
}

// Notifier receives short human-readable summaries of inbound messages.
// Implementations belong to the UI layer; a nil Notifier disables them.
type Notifier interface {
	Notify(text string)
}

// EventSink consumes session notifications. Sinks must be comparable so
// they can be unsubscribed by identity.
type EventSink interface {
	Consume(ctx context.Context, n domain.Notification) error
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}
