package runtime

import (
	"sync"
	"time"

	"market-chat/domain"
)

// TypingTracker holds ephemeral "is composing" flags keyed by
// (roomID, userID). Indicators carry a TTL so a client that vanishes
// mid-composition does not stay "typing" forever; the sweeper worker
// prunes expired entries in the background.
//
// TypingTracker is safe for concurrent use.
type TypingTracker struct {
	mu         sync.RWMutex
	indicators map[string]map[string]domain.TypingIndicator
	ttl        time.Duration
}

func NewTypingTracker(ttl time.Duration) *TypingTracker {
	return &TypingTracker{
		indicators: make(map[string]map[string]domain.TypingIndicator),
		ttl:        ttl,
	}
}

func (t *TypingTracker) Start(roomID, userID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.indicators[roomID]; !ok {
		t.indicators[roomID] = make(map[string]domain.TypingIndicator)
	}
	t.indicators[roomID][userID] = domain.TypingIndicator{
		UserID:    userID,
		RoomID:    roomID,
		IsTyping:  true,
		At:        now,
		ExpiresAt: now.Add(t.ttl),
	}
}

func (t *TypingTracker) Stop(roomID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if users, ok := t.indicators[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.indicators, roomID)
		}
	}
}

// Active returns the live indicators of a room, excluding excludeUserID.
// A caller must never see their own typing state reflected back.
func (t *TypingTracker) Active(roomID, excludeUserID string, now time.Time) []domain.TypingIndicator {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var res []domain.TypingIndicator
	for userID, ind := range t.indicators[roomID] {
		if userID == excludeUserID || ind.Expired(now) {
			continue
		}
		res = append(res, ind)
	}
	return res
}

// Sweep drops every expired indicator and returns how many were removed.
func (t *TypingTracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for roomID, users := range t.indicators {
		for userID, ind := range users {
			if ind.Expired(now) {
				delete(users, userID)
				removed++
			}
		}
		if len(users) == 0 {
			delete(t.indicators, roomID)
		}
	}
	return removed
}

func (t *TypingTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indicators = make(map[string]map[string]domain.TypingIndicator)
}
