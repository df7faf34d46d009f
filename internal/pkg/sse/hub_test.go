package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTheEmployee(t *testing.T) {
	hub := NewHub()
	alice, closeAlice := hub.Subscribe("alice")
	defer closeAlice()
	bob, closeBob := hub.Subscribe("bob")
	defer closeBob()

	hub.Publish("alice", Event{EmployeeID: "alice", Event: "notification", Data: "hi"})

	require.Len(t, alice, 1)
	ev := <-alice
	assert.Equal(t, "notification", ev.Event)
	assert.Len(t, bob, 0)
}

func TestHub_BroadcastReachesEveryone(t *testing.T) {
	hub := NewHub()
	a, closeA := hub.Subscribe("a")
	defer closeA()
	b1, closeB1 := hub.Subscribe("b")
	defer closeB1()
	b2, closeB2 := hub.Subscribe("b")
	defer closeB2()

	assert.Equal(t, 3, hub.TotalSubscribers())
	assert.Equal(t, 2, hub.SubscriberCount("b"))

	hub.Broadcast(Event{Event: "status_changed"})

	for _, ch := range []chan Event{a, b1, b2} {
		require.Len(t, ch, 1)
		assert.Equal(t, "status_changed", (<-ch).Event)
	}
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("a")
	cleanup()
	cleanup()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.TotalSubscribers())

	// Publishing after cleanup must not panic on the closed channel.
	hub.Publish("a", Event{Event: "x"})
}

func TestHub_FullChannelDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("a")
	defer cleanup()

	for i := 0; i < cap(ch)+5; i++ {
		hub.Publish("a", Event{Event: "x"})
	}
	assert.Equal(t, cap(ch), len(ch))
}

func TestHub_CloseEndsStreams(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("alice")

	hub.Close()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, hub.TotalSubscribers())

	// cleanup after Close must not double close
	assert.NotPanics(t, cleanup)

	late, lateCleanup := hub.Subscribe("bob")
	defer lateCleanup()
	_, ok = <-late
	assert.False(t, ok)
	require.NotPanics(t, hub.Close)
}
