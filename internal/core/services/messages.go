package services

import (
	"context"
	"log/slog"
	"time"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/platform/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("core-services")

// MessageService fronts the configured message store. Backend choice is
// made once at construction; nothing here branches on it.
type MessageService struct {
	log   *slog.Logger
	store domain.MessageStore
}

func NewMessageService(log *slog.Logger, store domain.MessageStore) *MessageService {
	return &MessageService{log: log, store: store}
}

// Publish appends a message, assigning id and timestamp when the caller
// left them empty. Returns once the append is durable.
func (s *MessageService) Publish(ctx context.Context, msg domain.Message) error {
	ctx, span := tracer.Start(ctx, "MessageService.Publish", trace.WithAttributes(
		attribute.String("message.type", string(msg.Type)),
		attribute.Bool("message.ephemeral", msg.Ephemeral),
	))
	defer span.End()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	if err := s.store.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store append failed")
		s.log.ErrorContext(ctx, "messages - publish - store append failed", "message_id", msg.ID, "err", err)
		return err
	}
	metrics.MessagesSentTotal.Inc()
	metrics.BandwidthBytesTotal.Add(float64(len(msg.Content) + len(msg.MediaURL)))
	s.log.InfoContext(ctx, "messages - publish - success", "message_id", msg.ID, "type", string(msg.Type))
	return nil
}

// System emits a SYSTEM-type notice into the room.
func (s *MessageService) System(ctx context.Context, content string) error {
	return s.Publish(ctx, domain.Message{
		SenderID: "system",
		Type:     domain.TypeSystem,
		Content:  content,
	})
}

func (s *MessageService) Snapshot(ctx context.Context) ([]domain.Message, error) {
	return s.store.Snapshot(ctx)
}

// Subscribe registers a snapshot consumer; the callback fires immediately
// with the current window and again after every change.
func (s *MessageService) Subscribe(ctx context.Context, fn func([]domain.Message)) (domain.Unsubscribe, error) {
	unsub, err := s.store.Subscribe(ctx, fn)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - subscribe - failed", "err", err)
		return nil, err
	}
	return unsub, nil
}

// Patch applies a partial update to the most recent message with the given
// id. A missing id is a silent no-op.
func (s *MessageService) Patch(ctx context.Context, id string, patch domain.MessagePatch) error {
	return s.store.Mutate(ctx, id, patch)
}
