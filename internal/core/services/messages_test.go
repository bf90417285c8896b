package services

import (
	"context"
	"testing"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/plugins/memory"
)

func TestMessageService_PublishFillsIdentity(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewMessageService(testLogger(), store)
	ctx := context.Background()

	if err := svc.Publish(ctx, domain.Message{SenderID: "u1", Type: domain.TypeText, Content: "hi"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	if len(snap) != 1 {
		t.Fatalf("log len = %d, want 1", len(snap))
	}
	if snap[0].ID == "" {
		t.Error("Publish() left message id empty")
	}
	if snap[0].Timestamp == 0 {
		t.Error("Publish() left timestamp empty")
	}
}

func TestMessageService_PublishKeepsCallerFields(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewMessageService(testLogger(), store)
	ctx := context.Background()

	msg := domain.Message{ID: "fixed", SenderID: "u1", Type: domain.TypeText, Content: "hi", Timestamp: 12345}
	_ = svc.Publish(ctx, msg)

	snap, _ := store.Snapshot(ctx)
	if snap[0].ID != "fixed" || snap[0].Timestamp != 12345 {
		t.Errorf("Publish() overwrote caller-set fields: %+v", snap[0])
	}
}

func TestMessageService_System(t *testing.T) {
	store := memory.NewStore(50)
	svc := NewMessageService(testLogger(), store)
	ctx := context.Background()

	if err := svc.System(ctx, "Secure connection established."); err != nil {
		t.Fatalf("System() error = %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	if snap[0].Type != domain.TypeSystem || snap[0].SenderID != "system" {
		t.Errorf("system notice = %+v", snap[0])
	}
}
