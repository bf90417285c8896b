package registry

import (
	"context"
	"sync"

	"ghostsignal/internal/core/contracts"
	"ghostsignal/internal/platform/metrics"
)

// Registry tracks the live connections on this node. There is a single
// room, so broadcast fans out to everyone; per-subscriber snapshot delivery
// happens in the store layer, the registry only carries signaling frames.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]contracts.Client // user_id -> client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]contracts.Client),
	}
}

func (h *Registry) Register(c contracts.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[c.UserID()]; ok {
		old.Close()
	}
	h.clients[c.UserID()] = c
	metrics.WsConnections.Set(float64(len(h.clients)))
}

func (h *Registry) Unregister(c contracts.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// A reconnect may have replaced the entry already.
	if cur, ok := h.clients[c.UserID()]; ok && cur == c {
		delete(h.clients, c.UserID())
	}
	metrics.WsConnections.Set(float64(len(h.clients)))
}

func (h *Registry) Broadcast(ctx context.Context, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		_ = c.Send(ctx, data)
	}
}

func (h *Registry) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Registry) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
	metrics.WsConnections.Set(0)
}
