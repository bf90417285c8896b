package services

import (
	"context"
	"strings"
	"testing"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/plugins/memory"
)

func newAdminFixture(t *testing.T) (*AdminService, *IdentityService, *memory.Identity, *memory.Blocklist, domain.MessageStore) {
	t.Helper()
	backend := memory.NewIdentity()
	blocklist := memory.NewBlocklist()
	store := memory.NewStore(50)
	msgs := NewMessageService(testLogger(), store)
	identity := NewIdentityService(testLogger(), backend)
	admin := NewAdminService(testLogger(), backend, blocklist, msgs)
	return admin, identity, backend, blocklist, store
}

func TestAdminService_GetStats(t *testing.T) {
	admin, identity, _, blocklist, _ := newAdminFixture(t)
	ctx := context.Background()

	if res, _ := identity.Register(ctx, "Ghost", "secret1"); !res.Success {
		t.Fatalf("Register() failed: %s", res.Message)
	}
	_ = blocklist.BlockAddr(ctx, "10.0.0.1")

	stats, err := admin.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.ActiveUsers != 1 {
		t.Errorf("ActiveUsers = %d, want 1", stats.ActiveUsers)
	}
	if stats.ActiveRooms != 1 {
		t.Errorf("ActiveRooms = %d, want 1", stats.ActiveRooms)
	}
	if stats.BlockedIPs != 1 {
		t.Errorf("BlockedIPs = %d, want 1", stats.BlockedIPs)
	}
	if !strings.HasSuffix(stats.BandwidthUsage, " MB") {
		t.Errorf("BandwidthUsage = %q, want a MB-formatted string", stats.BandwidthUsage)
	}
	if stats.MessagesSent < 0 {
		t.Errorf("MessagesSent = %d, want non-negative", stats.MessagesSent)
	}
}

func TestAdminService_BlockUser(t *testing.T) {
	admin, identity, backend, blocklist, store := newAdminFixture(t)
	ctx := context.Background()

	res, _ := identity.Register(ctx, "Ghost", "secret1")
	if !res.Success {
		t.Fatalf("Register() failed: %s", res.Message)
	}

	if err := admin.BlockUser(ctx, res.User.ID, "10.0.0.9"); err != nil {
		t.Fatalf("BlockUser() error = %v", err)
	}

	if _, _, err := backend.LookupNickname(ctx, "Ghost"); err == nil {
		t.Error("blocked user still resolvable by codename")
	}
	if n, _ := blocklist.CountBlocked(ctx); n != 1 {
		t.Errorf("CountBlocked() = %d, want 1", n)
	}

	snap, _ := store.Snapshot(ctx)
	if len(snap) != 1 || snap[0].Type != domain.TypeSystem {
		t.Fatalf("log = %+v, want single SYSTEM notice", snap)
	}
	if !strings.Contains(snap[0].Content, "Ghost") {
		t.Errorf("notice %q does not name the removed codename", snap[0].Content)
	}
}

func TestAdminService_BlockUserRetrySafe(t *testing.T) {
	admin, identity, _, blocklist, _ := newAdminFixture(t)
	ctx := context.Background()

	res, _ := identity.Register(ctx, "Ghost", "secret1")
	if err := admin.BlockUser(ctx, res.User.ID, "10.0.0.9"); err != nil {
		t.Fatalf("BlockUser() error = %v", err)
	}
	// Replaying the block against an already-removed user still succeeds.
	if err := admin.BlockUser(ctx, res.User.ID, "10.0.0.9"); err != nil {
		t.Errorf("repeat BlockUser() error = %v", err)
	}
	if n, _ := blocklist.CountBlocked(ctx); n != 1 {
		t.Errorf("CountBlocked() = %d, want 1 (addr set is idempotent)", n)
	}
}

func TestAdminService_GetUsers(t *testing.T) {
	admin, identity, _, _, _ := newAdminFixture(t)
	ctx := context.Background()

	_, _ = identity.Register(ctx, "Ghost", "s1")
	_, _ = identity.Register(ctx, "Wraith", "s2")

	users, err := admin.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("GetUsers() len = %d, want 2", len(users))
	}
}
