package services

import (
	"context"
	"fmt"
	"testing"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/plugins/memory"
)

// Full session walk: register, login, flood the room past the window bound,
// and check what a live subscriber ends up holding.
func TestSessionFlow(t *testing.T) {
	store := memory.NewStore(50)
	identity := NewIdentityService(testLogger(), memory.NewIdentity())
	messages := NewMessageService(testLogger(), store)
	ctx := context.Background()

	reg, err := identity.Register(ctx, "Phantom_X", "secret1")
	if err != nil || !reg.Success {
		t.Fatalf("Register() = %+v, %v", reg, err)
	}
	login, err := identity.Login(ctx, "Phantom_X", "secret1")
	if err != nil || !login.Success {
		t.Fatalf("Login() = %+v, %v", login, err)
	}

	var latest []domain.Message
	unsub, err := messages.Subscribe(ctx, func(snap []domain.Message) {
		latest = snap
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub()

	for i := 0; i < 51; i++ {
		msg := domain.Message{
			SenderID:  login.User.ID,
			Type:      domain.TypeText,
			Content:   fmt.Sprintf("message %d", i),
			Timestamp: int64(1000 + i),
		}
		if err := messages.Publish(ctx, msg); err != nil {
			t.Fatalf("Publish(%d) error = %v", i, err)
		}
	}

	if len(latest) != 50 {
		t.Fatalf("final snapshot len = %d, want 50", len(latest))
	}
	if latest[0].Content != "message 1" {
		t.Errorf("oldest retained = %q, want %q (message 0 evicted)", latest[0].Content, "message 1")
	}
	if latest[49].Content != "message 50" {
		t.Errorf("newest retained = %q, want %q", latest[49].Content, "message 50")
	}
	for _, m := range latest {
		if m.Content == "message 0" {
			t.Error("evicted message still present in final snapshot")
		}
	}
}
