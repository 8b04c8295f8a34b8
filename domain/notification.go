package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationMessage     NotificationType = "message"
	NotificationRoomCreated NotificationType = "room_created"
	NotificationUserJoined  NotificationType = "user_joined"
	NotificationUserLeft    NotificationType = "user_left"
)

// Notification is a transient session event fanned out to subscribers.
// It is delivered synchronously and never stored.
type Notification struct {
	ID     string
	Type   NotificationType
	RoomID string
	UserID string
	Text   string
	At     time.Time
}

func NewNotification(t NotificationType, roomID, userID, text string, at time.Time) Notification {
	return Notification{
		ID:     uuid.NewString(),
		Type:   t,
		RoomID: roomID,
		UserID: userID,
		Text:   text,
		At:     at,
	}
}
