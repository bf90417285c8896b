package memory

import (
	"context"
	"sync"
)

// Blocklist is the simulated moderation block-list.
type Blocklist struct {
	mu    sync.Mutex
	addrs map[string]struct{}
}

func NewBlocklist() *Blocklist {
	return &Blocklist{addrs: make(map[string]struct{})}
}

func (b *Blocklist) BlockAddr(ctx context.Context, addr string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrs[addr] = struct{}{}
	return nil
}

func (b *Blocklist) CountBlocked(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.addrs), nil
}
