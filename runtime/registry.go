// Package runtime holds the volatile session state: the room registry,
// the per-room message cache, typing indicators, and notification fanout.
// Nothing in this package survives a disconnect; durability belongs to
// the transport and storage delegates.
package runtime

import (
	"sort"
	"time"

	"market-chat/domain"
)

// RoomRegistry owns the set of active conversation rooms, keyed by their
// deterministically derived id.
//
// RoomRegistry is NOT safe for concurrent use on its own. The session
// façade guards the registry, the message cache, and the unread counters
// with a single mutex so that a send and an inbound event cannot
// interleave between them.
type RoomRegistry struct {
	rooms map[string]*domain.ChatRoom
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*domain.ChatRoom)}
}

// CreateOrGet returns the existing room for (listingID, sellerID, buyerID)
// or stores a fresh one. The second return value reports whether a room
// was actually created; duplicate creation is a no-op.
func (r *RoomRegistry) CreateOrGet(listingID, sellerID, buyerID, title string, now time.Time) (*domain.ChatRoom, bool) {
	id := domain.DeriveRoomID(listingID, sellerID, buyerID)
	if room, ok := r.rooms[id]; ok {
		return room, false
	}
	room := domain.NewChatRoom(listingID, sellerID, buyerID, title, now)
	r.rooms[id] = room
	return room, true
}

func (r *RoomRegistry) Get(roomID string) (*domain.ChatRoom, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// FindByParticipants locates the room whose participant pair is exactly
// {userA, userB}. Inbound events carry no room id, only the two sides and
// an optional listing; when the same pair talks about several listings the
// listing id disambiguates, otherwise the first participant match wins.
func (r *RoomRegistry) FindByParticipants(userA, userB, listingID string) (*domain.ChatRoom, bool) {
	var fallback *domain.ChatRoom
	for _, room := range r.rooms {
		if !room.Contains(userA, userB) {
			continue
		}
		if room.ListingID == listingID {
			return room, true
		}
		if fallback == nil {
			fallback = room
		}
	}
	return fallback, fallback != nil
}

// List returns all rooms sorted by UpdatedAt descending, most recently
// active first. UI layers depend on this ordering.
func (r *RoomRegistry) List() []*domain.ChatRoom {
	res := make([]*domain.ChatRoom, 0, len(r.rooms))
	for _, room := range r.rooms {
		res = append(res, room)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res
}

func (r *RoomRegistry) Len() int { return len(r.rooms) }

func (r *RoomRegistry) Clear() {
	r.rooms = make(map[string]*domain.ChatRoom)
}
