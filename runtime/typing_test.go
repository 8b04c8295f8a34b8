package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypingTracker_Active_Excludes_The_Local_User(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(10 * time.Second)
	now := time.Now().UTC()

	// Given both sides are composing
	tracker.Start("room", "local", now)
	tracker.Start("room", "remote", now)

	active := tracker.Active("room", "local", now)

	// Then the caller never sees their own typing state reflected back
	req.Len(active, 1)
	req.Equal("remote", active[0].UserID)
	req.True(active[0].IsTyping)
}

func TestTypingTracker_Stop_Clears_The_Indicator(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(10 * time.Second)
	now := time.Now().UTC()

	tracker.Start("room", "remote", now)
	tracker.Stop("room", "remote")

	req.Empty(tracker.Active("room", "local", now))
}

func TestTypingTracker_Expired_Indicators_Are_Not_Returned(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(5 * time.Second)
	now := time.Now().UTC()

	tracker.Start("room", "remote", now)

	req.Len(tracker.Active("room", "local", now.Add(4*time.Second)), 1)
	req.Empty(tracker.Active("room", "local", now.Add(6*time.Second)))
}

func TestTypingTracker_Sweep_Prunes_Expired_Entries(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(5 * time.Second)
	now := time.Now().UTC()

	tracker.Start("room", "one", now)
	tracker.Start("room", "two", now.Add(3*time.Second))

	removed := tracker.Sweep(now.Add(6 * time.Second))

	req.Equal(1, removed)
	req.Len(tracker.Active("room", "local", now.Add(6*time.Second)), 1)
}

func TestTypingTracker_Clear_Removes_Everything(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(10 * time.Second)
	now := time.Now().UTC()

	tracker.Start("a", "one", now)
	tracker.Start("b", "two", now)

	tracker.Clear()

	req.Empty(tracker.Active("a", "local", now))
	req.Empty(tracker.Active("b", "local", now))
}
