package domain

import "context"

// Unsubscribe cancels a store subscription. Safe to call more than once;
// after the first call no further snapshots are delivered, including ones
// triggered in the same turn as the cancellation.
type Unsubscribe func()

// MessageStore is the backend contract behind the room log. The remote
// (postgres+redis) and simulated (in-memory) implementations are selected
// once at construction and are behaviorally identical apart from latency
// and durability.
type MessageStore interface {
	// Send appends a message. It returns only after the append is durable
	// (remote) or applied (simulated). The window bound is enforced here:
	// when full, the single oldest entry is evicted before the append.
	Send(ctx context.Context, msg Message) error
	// Snapshot returns the current retained window, oldest first.
	Snapshot(ctx context.Context) ([]Message, error)
	// Mutate patches the most recent message with the given id. A missing
	// id is a silent no-op: the entry may have scrolled out of the window.
	Mutate(ctx context.Context, id string, patch MessagePatch) error
	// Subscribe delivers the current snapshot immediately, then a fresh
	// complete snapshot after every append or mutation. Snapshots, not
	// deltas: re-transmitting the window keeps consumers trivial.
	Subscribe(ctx context.Context, fn func([]Message)) (Unsubscribe, error)
	// OnEvict registers a hook invoked with the id of every entry pushed
	// out of the window. The ephemeral controller uses it to cancel timers.
	OnEvict(fn func(id string))
}

// IdentityBackend persists the codename->identity mapping. Secret hashes go
// in, never out through any public surface.
type IdentityBackend interface {
	// CreateUser binds a new codename. ErrDuplicateIdentity if taken.
	CreateUser(ctx context.Context, user User, secretHash string) error
	// LookupNickname returns the user and stored secret hash.
	// ErrIdentityNotFound if the codename is unbound.
	LookupNickname(ctx context.Context, nickname string) (*User, string, error)
	// RemoveUser drops a user from the roster. Historical messages keep
	// their senderId; the reference is weak.
	RemoveUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}
