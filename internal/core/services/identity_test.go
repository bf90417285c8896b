package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/plugins/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdentityService_Register(t *testing.T) {
	tests := []struct {
		name        string
		nickname    string
		secret      string
		wantSuccess bool
		wantMessage string
	}{
		{"valid", "Ghost", "secret123", true, ""},
		{"empty nickname", "", "secret123", false, "Codename and access key are required."},
		{"empty secret", "Ghost", "", false, "Codename and access key are required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewIdentityService(testLogger(), memory.NewIdentity())
			res, err := svc.Register(context.Background(), tt.nickname, tt.secret)
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if res.Success != tt.wantSuccess {
				t.Errorf("Register() success = %v, want %v", res.Success, tt.wantSuccess)
			}
			if !tt.wantSuccess && res.Message != tt.wantMessage {
				t.Errorf("Register() message = %q, want %q", res.Message, tt.wantMessage)
			}
			if tt.wantSuccess && (res.User == nil || res.User.ID == "") {
				t.Error("Register() success carries no user")
			}
		})
	}
}

func TestIdentityService_RegisterDuplicate(t *testing.T) {
	svc := NewIdentityService(testLogger(), memory.NewIdentity())
	ctx := context.Background()

	first, _ := svc.Register(ctx, "Ghost", "secret1")
	if !first.Success {
		t.Fatalf("first Register() failed: %s", first.Message)
	}

	dup, err := svc.Register(ctx, "Ghost", "secret2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if dup.Success {
		t.Fatal("duplicate Register() succeeded, want rejection")
	}
	if dup.Message != "Codename already taken." {
		t.Errorf("Register() message = %q, want %q", dup.Message, "Codename already taken.")
	}

	// Original credential still works after the rejected attempt.
	login, _ := svc.Login(ctx, "Ghost", "secret1")
	if !login.Success {
		t.Error("Login() with original secret failed after duplicate attempt")
	}
}

func TestIdentityService_LoginFailureCollapsed(t *testing.T) {
	svc := NewIdentityService(testLogger(), memory.NewIdentity())
	ctx := context.Background()
	if res, _ := svc.Register(ctx, "Ghost", "secret1"); !res.Success {
		t.Fatalf("Register() failed: %s", res.Message)
	}

	unknown, err := svc.Login(ctx, "Nobody", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	wrongSecret, err := svc.Login(ctx, "Ghost", "wrong")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if unknown.Success || wrongSecret.Success {
		t.Fatal("failed login reported success")
	}
	// Unbound codename and wrong key must be indistinguishable to clients.
	if unknown.Message != wrongSecret.Message {
		t.Errorf("failure messages differ: %q vs %q", unknown.Message, wrongSecret.Message)
	}
	if unknown.User != nil || wrongSecret.User != nil {
		t.Error("failed login leaked user data")
	}
}

func TestIdentityService_LoginSuccess(t *testing.T) {
	svc := NewIdentityService(testLogger(), memory.NewIdentity())
	ctx := context.Background()
	reg, _ := svc.Register(ctx, "Ghost", "secret1")

	res, err := svc.Login(ctx, "Ghost", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Login() failed: %s", res.Message)
	}
	if res.User.ID != reg.User.ID {
		t.Errorf("Login() user = %s, want %s", res.User.ID, reg.User.ID)
	}
}

func TestIdentityService_SeedRole(t *testing.T) {
	backend := memory.NewIdentity()
	svc := NewIdentityService(testLogger(), backend)
	ctx := context.Background()

	if err := svc.Seed(ctx, "Admin", "admin123", domain.RoleAdmin); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	user, _, err := backend.LookupNickname(ctx, "Admin")
	if err != nil {
		t.Fatalf("LookupNickname() error = %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Errorf("seeded role = %s, want %s", user.Role, domain.RoleAdmin)
	}

	// Re-seeding the same codename fails loudly instead of overwriting.
	if err := svc.Seed(ctx, "Admin", "other", domain.RoleAdmin); err == nil {
		t.Error("Seed() on taken codename succeeded, want error")
	}
}
