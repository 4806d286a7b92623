package chatclient

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverMessage(id, userID int, content string) Message {
	return Message{
		ID: id, RoomID: 7, UserID: userID, Type: "text",
		Content: content, CreatedAt: time.Now(),
	}
}

func TestFeedDuplicateDeliveryRendersOnce(t *testing.T) {
	f := NewFeed(3)

	m := serverMessage(1, 9, "hello")
	assert.True(t, f.Apply(m))
	assert.False(t, f.Apply(m), "second delivery of the same id must be dropped")
	assert.Equal(t, 1, f.Len())

	entries := f.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Content)
	assert.False(t, entries[0].Self)
	assert.False(t, entries[0].Pending)
}

func TestFeedOptimisticEchoReconciles(t *testing.T) {
	f := NewFeed(3)

	clientID := f.AppendLocal(7, "text", "my message")
	require.NotEmpty(t, clientID)
	require.Equal(t, 1, f.Len())

	local := f.Entries()[0]
	assert.True(t, local.Self)
	assert.True(t, local.Pending)
	assert.Zero(t, local.ID)

	echo := serverMessage(42, 3, "my message")
	echo.ClientID = clientID
	assert.True(t, f.Apply(echo), "echo must reconcile, not be dropped")

	// The local entry is upgraded in place rather than appended.
	require.Equal(t, 1, f.Len())
	got := f.Entries()[0]
	assert.Equal(t, 42, got.ID)
	assert.True(t, got.Self)
	assert.False(t, got.Pending)
	assert.False(t, got.CreatedAt.IsZero())

	// A redelivery of the echo is now a known server id.
	assert.False(t, f.Apply(echo))
	assert.Equal(t, 1, f.Len())
}

func TestFeedEchoWithoutPendingEntry(t *testing.T) {
	// An echo whose correlation id we never issued (other tab, restart)
	// is just a normal message.
	f := NewFeed(3)

	echo := serverMessage(42, 3, "from another tab")
	echo.ClientID = "someone-elses-id"
	assert.True(t, f.Apply(echo))
	require.Equal(t, 1, f.Len())
	assert.True(t, f.Entries()[0].Self, "own user id still marks the entry as self")
	assert.False(t, f.Entries()[0].Pending)
}

func TestFeedHydrateReversesNewestFirstPage(t *testing.T) {
	f := NewFeed(3)
	f.AppendLocal(7, "text", "stale local state")

	page := make([]Message, 0, 50)
	for i := 50; i >= 1; i-- {
		page = append(page, serverMessage(i, 9, fmt.Sprintf("msg %d", i)))
	}
	f.Hydrate(page)

	entries := f.Entries()
	require.Len(t, entries, 50, "hydrate replaces any previous state")
	assert.Equal(t, 1, entries[0].ID)
	assert.Equal(t, 50, entries[49].ID)

	// Hydrated ids are seen: live redelivery of one is dropped.
	assert.False(t, f.Apply(serverMessage(25, 9, "msg 25")))
	assert.Equal(t, 50, f.Len())
}

func TestFeedSelfTagging(t *testing.T) {
	f := NewFeed(3)

	assert.True(t, f.Apply(serverMessage(1, 3, "mine")))
	assert.True(t, f.Apply(serverMessage(2, 9, "theirs")))

	entries := f.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Self)
	assert.False(t, entries[1].Self)
}

func TestFeedSystemNotices(t *testing.T) {
	f := NewFeed(3)
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	assert.True(t, f.AddSystem(9, "joined the room", at))
	assert.False(t, f.AddSystem(9, "joined the room", at),
		"same user and second must collapse to one notice")
	assert.True(t, f.AddSystem(9, "joined the room", at.Add(time.Second)))
	assert.True(t, f.AddSystem(5, "joined the room", at))

	entries := f.Entries()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.True(t, e.System)
		assert.False(t, e.Pending)
	}
}

func TestFeedEntriesReturnsSnapshot(t *testing.T) {
	f := NewFeed(3)
	require.True(t, f.Apply(serverMessage(1, 9, "hello")))

	snapshot := f.Entries()
	snapshot[0].Content = "mutated"
	assert.Equal(t, "hello", f.Entries()[0].Content)
}
