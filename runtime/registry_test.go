package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoomRegistry_CreateOrGet_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry()
	now := time.Now().UTC()

	// When creating the same logical room twice
	first, created := registry.CreateOrGet("L1", "S1", "B1", "Vintage bike", now)
	second, createdAgain := registry.CreateOrGet("L1", "S1", "B1", "Vintage bike", now.Add(time.Minute))

	// Then the second call returns the existing room unchanged
	req.True(created)
	req.False(createdAgain)
	req.Equal(first.ID, second.ID)
	req.Same(first, second)
	req.Len(registry.List(), 1)
}

func TestRoomRegistry_CreateOrGet_Swapped_Roles_Reuse_The_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry()
	now := time.Now().UTC()

	_, created := registry.CreateOrGet("L1", "S1", "B1", "Vintage bike", now)
	_, createdAgain := registry.CreateOrGet("L1", "B1", "S1", "Vintage bike", now)

	req.True(created)
	req.False(createdAgain)
	req.Equal(1, registry.Len())
}

func TestRoomRegistry_List_Sorts_By_Most_Recently_Active(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry()
	now := time.Now().UTC()

	// Given three rooms with distinct activity times
	older, _ := registry.CreateOrGet("L1", "S1", "B1", "first", now.Add(-2*time.Hour))
	newest, _ := registry.CreateOrGet("L2", "S1", "B2", "second", now)
	middle, _ := registry.CreateOrGet("L3", "S1", "B3", "third", now.Add(-1*time.Hour))

	rooms := registry.List()

	// Then the most recently updated room comes first
	req.Len(rooms, 3)
	req.Equal(newest.ID, rooms[0].ID)
	req.Equal(middle.ID, rooms[1].ID)
	req.Equal(older.ID, rooms[2].ID)
}

func TestRoomRegistry_FindByParticipants_Prefers_The_Listing_Match(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry()
	now := time.Now().UTC()

	// Given the same pair talking about two listings
	bike, _ := registry.CreateOrGet("L1", "S1", "B1", "bike", now)
	lamp, _ := registry.CreateOrGet("L2", "S1", "B1", "lamp", now)

	found, ok := registry.FindByParticipants("B1", "S1", "L2")
	req.True(ok)
	req.Equal(lamp.ID, found.ID)

	found, ok = registry.FindByParticipants("S1", "B1", "L1")
	req.True(ok)
	req.Equal(bike.ID, found.ID)
}

func TestRoomRegistry_FindByParticipants_Unknown_Pair(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry()

	_, ok := registry.FindByParticipants("S1", "B1", "L1")

	req.False(ok)
}

func TestRoomRegistry_Clear_Removes_Everything(t *testing.T) {
	req := require.New(t)
	registry := NewRoomRegistry()
	registry.CreateOrGet("L1", "S1", "B1", "bike", time.Now().UTC())

	registry.Clear()

	req.Zero(registry.Len())
	req.Empty(registry.List())
}
