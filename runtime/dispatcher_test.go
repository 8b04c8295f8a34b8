package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"market-chat/domain"
	errs "market-chat/errors"
)

type recordingSink struct {
	received []domain.Notification
	fail     error
	panics   bool
}

func (s *recordingSink) Consume(_ context.Context, n domain.Notification) error {
	if s.panics {
		panic("sink exploded")
	}
	if s.fail != nil {
		return s.fail
	}
	s.received = append(s.received, n)
	return nil
}

func testNotification(t domain.NotificationType) domain.Notification {
	return domain.NewNotification(t, "room", "user", "hello", time.Now().UTC())
}

func TestDispatcher_Dispatch_Reaches_Every_Sink(t *testing.T) {
	req := require.New(t)
	dispatcher := NewDispatcher(slog.Default(), 0, 0)
	first := &recordingSink{}
	second := &recordingSink{}

	req.NoError(dispatcher.Subscribe(first))
	req.NoError(dispatcher.Subscribe(second))

	dispatcher.Dispatch(context.Background(), testNotification(domain.NotificationMessage))

	req.Len(first.received, 1)
	req.Len(second.received, 1)
	req.Equal(domain.NotificationMessage, first.received[0].Type)
}

func TestDispatcher_Subscribe_Twice_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	dispatcher := NewDispatcher(slog.Default(), 0, 0)
	sink := &recordingSink{}

	req.NoError(dispatcher.Subscribe(sink))
	req.NoError(dispatcher.Subscribe(sink))

	dispatcher.Dispatch(context.Background(), testNotification(domain.NotificationMessage))

	req.Equal(1, dispatcher.Len())
	req.Len(sink.received, 1)
}

func TestDispatcher_One_Failing_Sink_Does_Not_Block_The_Others(t *testing.T) {
	req := require.New(t)
	dispatcher := NewDispatcher(slog.Default(), 0, 0)
	failing := &recordingSink{fail: fmt.Errorf("sink refused")}
	healthy := &recordingSink{}

	req.NoError(dispatcher.Subscribe(failing))
	req.NoError(dispatcher.Subscribe(healthy))

	dispatcher.Dispatch(context.Background(), testNotification(domain.NotificationMessage))

	req.Len(healthy.received, 1)
}

func TestDispatcher_One_Panicking_Sink_Does_Not_Block_The_Others(t *testing.T) {
	req := require.New(t)
	dispatcher := NewDispatcher(slog.Default(), 0, 0)
	panicking := &recordingSink{panics: true}
	healthy := &recordingSink{}

	req.NoError(dispatcher.Subscribe(panicking))
	req.NoError(dispatcher.Subscribe(healthy))

	req.NotPanics(func() {
		dispatcher.Dispatch(context.Background(), testNotification(domain.NotificationRoomCreated))
	})
	req.Len(healthy.received, 1)
}

func TestDispatcher_Unsubscribe_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	dispatcher := NewDispatcher(slog.Default(), 0, 0)
	sink := &recordingSink{}

	req.NoError(dispatcher.Subscribe(sink))
	dispatcher.Unsubscribe(sink)

	dispatcher.Dispatch(context.Background(), testNotification(domain.NotificationMessage))

	req.Empty(sink.received)
	req.Zero(dispatcher.Len())
}

func TestDispatcher_Subscriber_Set_Is_Bounded(t *testing.T) {
	req := require.New(t)
	dispatcher := NewDispatcher(slog.Default(), 2, 0)

	req.NoError(dispatcher.Subscribe(&recordingSink{}))
	req.NoError(dispatcher.Subscribe(&recordingSink{}))

	err := dispatcher.Subscribe(&recordingSink{})
	req.ErrorIs(err, errs.ErrTooManySinks)
	req.Equal(2, dispatcher.Len())
}
