package memory

import (
	"context"
	"sync"

	"ghostsignal/internal/core/domain"
)

// Store is the simulated backend: a bounded in-process message log with
// snapshot fan-out. It mirrors the remote backend's observable behavior
// exactly, minus durability and latency.
type Store struct {
	// notifyMu serializes deliveries so every subscriber observes
	// snapshots in the store's total order. Lock order: notifyMu, then mu.
	notifyMu sync.Mutex
	mu       sync.Mutex
	capacity int
	msgs     []domain.Message
	subs     map[int]*subscriber
	nextSub  int
	evictFns []func(id string)
}

type subscriber struct {
	fn     func([]domain.Message)
	closed bool
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 50
	}
	return &Store{
		capacity: capacity,
		subs:     make(map[int]*subscriber),
	}
}

func (s *Store) Send(ctx context.Context, msg domain.Message) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	var evictedID string
	if len(s.msgs) == s.capacity {
		// Evict before appending so the bound holds at every instant.
		evictedID = s.msgs[0].ID
		s.msgs = append(s.msgs[:0], s.msgs[1:]...)
	}
	s.insert(msg)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if evictedID != "" {
		for _, fn := range s.evictFns {
			fn(evictedID)
		}
	}
	s.deliver(snap)
	return nil
}

// insert keeps the log totally ordered by timestamp, ties broken by
// insertion order. Callers hold mu.
func (s *Store) insert(msg domain.Message) {
	i := len(s.msgs)
	for i > 0 && s.msgs[i-1].Timestamp > msg.Timestamp {
		i--
	}
	s.msgs = append(s.msgs, domain.Message{})
	copy(s.msgs[i+1:], s.msgs[i:])
	s.msgs[i] = msg
}

func (s *Store) Snapshot(ctx context.Context) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *Store) snapshotLocked() []domain.Message {
	return append([]domain.Message(nil), s.msgs...)
}

func (s *Store) Mutate(ctx context.Context, id string, patch domain.MessagePatch) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	found := false
	for i := len(s.msgs) - 1; i >= 0; i-- {
		if s.msgs[i].ID == id {
			patch.Apply(&s.msgs[i])
			found = true
			break
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if !found {
		// The entry scrolled out of the window; defined as a no-op.
		return nil
	}
	s.deliver(snap)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, fn func([]domain.Message)) (domain.Unsubscribe, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	sub := &subscriber{fn: fn}
	s.subs[id] = sub
	snap := s.snapshotLocked()
	s.mu.Unlock()

	// Initial complete snapshot, delivered before Subscribe returns.
	fn(snap)

	unsub := func() {
		s.mu.Lock()
		sub.closed = true
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return unsub, nil
}

func (s *Store) OnEvict(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictFns = append(s.evictFns, fn)
}

// deliver fans the snapshot out to every live subscriber. The closed flag is
// re-checked per subscriber at delivery time, so an unsubscribe in the same
// turn as a send suppresses the callback. Callers hold notifyMu.
func (s *Store) deliver(snap []domain.Message) {
	s.mu.Lock()
	targets := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	for _, sub := range targets {
		s.mu.Lock()
		closed := sub.closed
		s.mu.Unlock()
		if closed {
			continue
		}
		// Independent copy per subscriber.
		sub.fn(append([]domain.Message(nil), snap...))
	}
}
