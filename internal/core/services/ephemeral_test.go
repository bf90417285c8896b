package services

import (
	"context"
	"testing"
	"time"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/plugins/memory"
)

func ephemeralMsg(id string, ts int64) domain.Message {
	blur := 20
	return domain.Message{
		ID:        id,
		SenderID:  "u1",
		Type:      domain.TypeImage,
		Content:   "Sent an image",
		Timestamp: ts,
		Ephemeral: true,
		MediaURL:  "data:image/png;base64,xxxx",
		BlurLevel: &blur,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func findMsg(t *testing.T, store domain.MessageStore, id string) domain.Message {
	t.Helper()
	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	for i := len(snap) - 1; i >= 0; i-- {
		if snap[i].ID == id {
			return snap[i]
		}
	}
	t.Fatalf("message %s not in window", id)
	return domain.Message{}
}

func TestEphemeralService_RevealMarksViewed(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewEphemeralService(testLogger(), store, time.Hour)
	defer svc.Close()
	ctx := context.Background()

	_ = store.Send(ctx, ephemeralMsg("m1", 1000))
	if err := svc.Reveal(ctx, "m1"); err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}

	got := findMsg(t, store, "m1")
	if !got.Viewed {
		t.Error("Reveal() did not set viewed")
	}
	if got.BlurLevel == nil || *got.BlurLevel != 0 {
		t.Errorf("Reveal() blur = %v, want 0", got.BlurLevel)
	}
	if got.MediaURL == "" {
		t.Error("Reveal() dropped media before expiry")
	}
}

func TestEphemeralService_ExpiryDestroys(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewEphemeralService(testLogger(), store, 30*time.Millisecond)
	defer svc.Close()
	ctx := context.Background()

	_ = store.Send(ctx, ephemeralMsg("m1", 1000))
	if err := svc.Reveal(ctx, "m1"); err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return findMsg(t, store, "m1").Type == domain.TypeDestroy
	})

	got := findMsg(t, store, "m1")
	if got.Content != "Media expired" {
		t.Errorf("destroyed content = %q, want %q", got.Content, "Media expired")
	}
	if got.MediaURL != "" {
		t.Error("destroyed message still carries media")
	}
	if got.BlurLevel != nil {
		t.Error("destroyed message still carries blur level")
	}
	if !got.Viewed {
		t.Error("destruction cleared the viewed flag")
	}
}

func TestEphemeralService_RevealIdempotent(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewEphemeralService(testLogger(), store, time.Hour)
	defer svc.Close()
	ctx := context.Background()

	_ = store.Send(ctx, ephemeralMsg("m1", 1000))
	_ = svc.Reveal(ctx, "m1")

	deliveries := 0
	unsub, _ := store.Subscribe(ctx, func([]domain.Message) { deliveries++ })
	defer unsub()

	// Second reveal must not mutate or re-arm anything.
	if err := svc.Reveal(ctx, "m1"); err != nil {
		t.Fatalf("second Reveal() error = %v", err)
	}
	if deliveries != 1 {
		t.Errorf("deliveries = %d, want 1 (repeat reveal must not notify)", deliveries)
	}
}

func TestEphemeralService_RevealNonEphemeral(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewEphemeralService(testLogger(), store, 20*time.Millisecond)
	defer svc.Close()
	ctx := context.Background()

	_ = store.Send(ctx, domain.Message{ID: "m1", Type: domain.TypeText, Content: "plain", Timestamp: 1000})
	if err := svc.Reveal(ctx, "m1"); err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if got := findMsg(t, store, "m1"); got.Type != domain.TypeText || got.Viewed {
		t.Errorf("plain message changed by reveal: %+v", got)
	}
}

func TestEphemeralService_RevealMissingIsNoop(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewEphemeralService(testLogger(), store, time.Hour)
	defer svc.Close()

	if err := svc.Reveal(context.Background(), "missing"); err != nil {
		t.Fatalf("Reveal() on missing id error = %v, want nil", err)
	}
}

func TestEphemeralService_EvictionCancelsTimer(t *testing.T) {
	store := memory.NewStore(1)
	svc := NewEphemeralService(testLogger(), store, 30*time.Millisecond)
	defer svc.Close()
	ctx := context.Background()

	_ = store.Send(ctx, ephemeralMsg("m1", 1000))
	_ = svc.Reveal(ctx, "m1")

	// Push m1 out of the window before its timer fires.
	_ = store.Send(ctx, domain.Message{ID: "m2", Type: domain.TypeText, Timestamp: 2000})

	svc.mu.Lock()
	_, pending := svc.timers["m1"]
	svc.mu.Unlock()
	if pending {
		t.Error("timer survived eviction of its message")
	}

	// The fired-anyway path is a no-op; m2 must be untouched.
	time.Sleep(60 * time.Millisecond)
	if got := findMsg(t, store, "m2"); got.Type != domain.TypeText {
		t.Errorf("unrelated message mutated: %+v", got)
	}
}

func TestEphemeralService_Reschedule(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewEphemeralService(testLogger(), store, 30*time.Millisecond)
	defer svc.Close()
	ctx := context.Background()

	// A revealed entry with no timer models state recovered after restart.
	msg := ephemeralMsg("m1", 1000)
	msg.Viewed = true
	zero := 0
	msg.BlurLevel = &zero
	_ = store.Send(ctx, msg)

	svc.Reschedule(ctx, "m1")

	waitFor(t, time.Second, func() bool {
		return findMsg(t, store, "m1").Type == domain.TypeDestroy
	})
}
