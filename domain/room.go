package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ChatRoom is a two-party conversation scoped to a marketplace listing.
// Participants are kept in canonical (sorted) order so that the derived id
// does not depend on which side initiated the conversation.
type ChatRoom struct {
	ID           string
	Participants [2]string
	ListingID    string
	Title        string
	LastMessage  *ChatMessage
	UnreadCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeriveRoomID computes the room identifier as a pure function of the
// listing and the two participants. Participant order is canonicalized
// before hashing, so swapping seller and buyer yields the same id.
func DeriveRoomID(listingID, userA, userB string) string {
	lo, hi := userA, userB
	if hi < lo {
		lo, hi = hi, lo
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", listingID, lo, hi)))
	return hex.EncodeToString(sum[:16])
}

// NewChatRoom builds a fresh room with zero unread messages.
func NewChatRoom(listingID, sellerID, buyerID, title string, now time.Time) *ChatRoom {
	lo, hi := sellerID, buyerID
	if hi < lo {
		lo, hi = hi, lo
	}
	return &ChatRoom{
		ID:           DeriveRoomID(listingID, sellerID, buyerID),
		Participants: [2]string{lo, hi},
		ListingID:    listingID,
		Title:        title,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Other resolves the counterpart of userID in this room.
// The second return value is false when userID is not a participant.
func (r *ChatRoom) Other(userID string) (string, bool) {
	switch userID {
	case r.Participants[0]:
		return r.Participants[1], true
	case r.Participants[1]:
		return r.Participants[0], true
	}
	return "", false
}

// Contains reports whether userA and userB are exactly the two
// participants of this room, in either order.
func (r *ChatRoom) Contains(userA, userB string) bool {
	return (userA == r.Participants[0] && userB == r.Participants[1]) ||
		(userA == r.Participants[1] && userB == r.Participants[0])
}
