package runtime

import "market-chat/domain"

// MessageCache keeps one ordered message sequence per room. It is
// append-only and never re-sorts: messages of a single room are assumed
// to arrive in non-decreasing timestamp order.
//
// Only the head page is ever cache-authoritative. Deeper pages are read
// through the transport and the result replaces the cached head page
// (see ReplaceHead). Like RoomRegistry, the cache relies on the session
// façade's mutex for concurrent access.
type MessageCache struct {
	messages map[string][]domain.ChatMessage
	limit    int
}

// NewMessageCache bounds every room at limit cached messages; appending
// beyond the bound drops the oldest entry. A limit <= 0 means unbounded.
func NewMessageCache(limit int) *MessageCache {
	return &MessageCache{
		messages: make(map[string][]domain.ChatMessage),
		limit:    limit,
	}
}

func (c *MessageCache) Append(roomID string, msg domain.ChatMessage) {
	seq := append(c.messages[roomID], msg)
	if c.limit > 0 && len(seq) > c.limit {
		seq = seq[len(seq)-c.limit:]
	}
	c.messages[roomID] = seq
}

// Head returns the first limit messages of the cached sequence.
func (c *MessageCache) Head(roomID string, limit int) []domain.ChatMessage {
	seq := c.messages[roomID]
	if limit > len(seq) {
		limit = len(seq)
	}
	res := make([]domain.ChatMessage, limit)
	copy(res, seq[:limit])
	return res
}

// ReplaceHead swaps the cached sequence of a room for a page fetched from
// the transport. Called after every nonzero-offset read.
func (c *MessageCache) ReplaceHead(roomID string, msgs []domain.ChatMessage) {
	seq := make([]domain.ChatMessage, len(msgs))
	copy(seq, msgs)
	c.messages[roomID] = seq
}

// Delete removes a single message from the local cache. This does not
// reach the transport; the source of truth keeps the message.
func (c *MessageCache) Delete(roomID, messageID string) bool {
	seq := c.messages[roomID]
	for i, msg := range seq {
		if msg.ID == messageID {
			c.messages[roomID] = append(seq[:i:i], seq[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether a message id is already cached for the room.
func (c *MessageCache) Contains(roomID, messageID string) bool {
	for _, msg := range c.messages[roomID] {
		if msg.ID == messageID {
			return true
		}
	}
	return false
}

func (c *MessageCache) Len(roomID string) int { return len(c.messages[roomID]) }

func (c *MessageCache) Clear() {
	c.messages = make(map[string][]domain.ChatMessage)
}
