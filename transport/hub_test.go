package transport

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHub_PushToUser(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 8)

	client := hub.Register("alice", "conn-1")
	hub.PushToUser("alice", map[string]string{"type": "test"})

	data := <-client.Send
	var payload map[string]string
	req.NoError(json.Unmarshal(data, &payload))
	req.Equal("test", payload["type"])

	// Pushing to an absent user is silent loss, never a panic.
	hub.PushToUser("ghost", map[string]string{"type": "test"})
}

func TestHub_RegisterDisplacesPrevious(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 8)

	first := hub.Register("alice", "conn-1")
	second := hub.Register("alice", "conn-2")

	// The displaced writer is told to stop.
	select {
	case <-first.Done:
	default:
		req.Fail("displaced client should be closed")
	}

	// Pushes land on the new session only.
	hub.PushToUser("alice", map[string]string{"type": "test"})
	req.Len(second.Send, 1)
	req.Empty(first.Send)
}

func TestHub_UnregisterGuardsAgainstStaleClient(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 8)

	first := hub.Register("alice", "conn-1")
	second := hub.Register("alice", "conn-2")

	// The stale session's teardown must not remove the current one.
	hub.Unregister(first)
	hub.PushToUser("alice", map[string]string{"type": "test"})
	req.Len(second.Send, 1)

	hub.Unregister(second)
	hub.PushToUser("alice", map[string]string{"type": "test"})
	req.Len(second.Send, 1)
}

func TestHub_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 1)

	client := hub.Register("alice", "conn-1")
	hub.PushToUser("alice", "one")
	hub.PushToUser("alice", "two") // dropped, queue is full
	req.Len(client.Send, 1)
}

func TestHub_Broadcast(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default(), 8)

	alice := hub.Register("alice", "conn-1")
	bob := hub.Register("bob", "conn-2")

	hub.Broadcast(map[string]string{"type": "presence"})
	req.Len(alice.Send, 1)
	req.Len(bob.Send, 1)
}
