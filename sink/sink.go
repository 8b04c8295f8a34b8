// Package sink provides default notification consumers for the UI layer.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"market-chat/domain"
)

// ChannelSink redirects notifications into a buffered channel so a UI
// goroutine can consume them at its own pace. When the buffer is full
// the notification is dropped rather than blocking the dispatcher.
type ChannelSink struct {
	Notifications chan domain.Notification
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{Notifications: make(chan domain.Notification, bufferSize)}
}

func (s *ChannelSink) Consume(ctx context.Context, n domain.Notification) error {
	select {
	case s.Notifications <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("notification buffer full, dropped %s", n.Type)
	}
}

// LogNotifier writes inbound message summaries to the log. It stands in
// for a real UI notification surface.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(text string) {
	n.Log.Info(text)
}
