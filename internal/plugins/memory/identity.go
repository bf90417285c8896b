package memory

import (
	"context"
	"sync"

	"ghostsignal/internal/core/domain"
)

// Identity is the simulated identity backend. Codename bindings live only
// as long as the process.
type Identity struct {
	mu       sync.Mutex
	users    map[string]domain.User // id -> user
	nickToID map[string]string
	hashes   map[string]string // nickname -> secret hash
}

func NewIdentity() *Identity {
	return &Identity{
		users:    make(map[string]domain.User),
		nickToID: make(map[string]string),
		hashes:   make(map[string]string),
	}
}

func (r *Identity) CreateUser(ctx context.Context, user domain.User, secretHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nickToID[user.Nickname]; ok {
		return domain.ErrDuplicateIdentity
	}
	r.users[user.ID] = user
	r.nickToID[user.Nickname] = user.ID
	r.hashes[user.Nickname] = secretHash
	return nil
}

func (r *Identity) LookupNickname(ctx context.Context, nickname string) (*domain.User, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.nickToID[nickname]
	if !ok {
		return nil, "", domain.ErrIdentityNotFound
	}
	user := r.users[id]
	return &user, r.hashes[nickname], nil
}

func (r *Identity) RemoveUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	delete(r.users, id)
	delete(r.nickToID, user.Nickname)
	delete(r.hashes, user.Nickname)
	return nil
}

func (r *Identity) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *Identity) CountUsers(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}
