package registry

import (
	"context"
	"sync"
	"testing"
)

type fakeClient struct {
	id     string
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (c *fakeClient) UserID() string { return c.id }

func (c *fakeClient) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func TestRegistry_RegisterUnregister(t *testing.T) {
	hub := NewRegistry()
	c := &fakeClient{id: "u1"}

	hub.Register(c)
	if hub.Count() != 1 {
		t.Errorf("Count() after register = %d, want 1", hub.Count())
	}

	hub.Unregister(c)
	if hub.Count() != 0 {
		t.Errorf("Count() after unregister = %d, want 0", hub.Count())
	}
}

func TestRegistry_ReconnectReplaces(t *testing.T) {
	hub := NewRegistry()
	old := &fakeClient{id: "u1"}
	hub.Register(old)

	replacement := &fakeClient{id: "u1"}
	hub.Register(replacement)

	if hub.Count() != 1 {
		t.Errorf("Count() after reconnect = %d, want 1", hub.Count())
	}
	if !old.closed {
		t.Error("stale connection was not closed on reconnect")
	}

	// Unregistering the stale client must not evict the replacement.
	hub.Unregister(old)
	if hub.Count() != 1 {
		t.Errorf("Count() after stale unregister = %d, want 1", hub.Count())
	}
}

func TestRegistry_Broadcast(t *testing.T) {
	hub := NewRegistry()
	clients := []*fakeClient{{id: "u1"}, {id: "u2"}, {id: "u3"}}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.Broadcast(context.Background(), []byte(`{"type":"call_state"}`))

	for _, c := range clients {
		c.mu.Lock()
		n := len(c.sent)
		c.mu.Unlock()
		if n != 1 {
			t.Errorf("client %s received %d frames, want 1", c.id, n)
		}
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	hub := NewRegistry()
	clients := []*fakeClient{{id: "u1"}, {id: "u2"}}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.CloseAll()
	if hub.Count() != 0 {
		t.Errorf("Count() after CloseAll = %d, want 0", hub.Count())
	}
	for _, c := range clients {
		if !c.closed {
			t.Errorf("client %s not closed", c.id)
		}
	}
}
