package domain

import "time"

// TypingIndicator is an ephemeral per-user-per-room "is composing" flag.
// Indicators are never persisted; ExpiresAt bounds their lifetime so a
// client that disappears mid-composition does not leave a stale flag.
type TypingIndicator struct {
	UserID    string
	RoomID    string
	IsTyping  bool
	At        time.Time
	ExpiresAt time.Time
}

func (t TypingIndicator) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
