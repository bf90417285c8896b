package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/platform/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const destroyedContent = "Media expired"

// EphemeralService drives the reveal/destroy lifecycle of self-destructing
// attachments: HIDDEN (blurred) -> REVEALED (viewed, blur cleared) ->
// DESTROYED (type flipped, media gone). Expiry timers are keyed by message
// id and canceled when the entry is evicted from the window; a timer that
// fires anyway lands on the store's no-op mutate.
type EphemeralService struct {
	log    *slog.Logger
	store  domain.MessageStore
	window time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewEphemeralService(log *slog.Logger, store domain.MessageStore, window time.Duration) *EphemeralService {
	if window <= 0 {
		window = 10 * time.Second
	}
	s := &EphemeralService{
		log:    log,
		store:  store,
		window: window,
		timers: make(map[string]*time.Timer),
	}
	// Hidden entries that scroll out just disappear; no destroy is
	// synthesized for them.
	store.OnEvict(s.Cancel)
	return s
}

// Reveal marks an ephemeral attachment as viewed, clears its blur, and arms
// the one-shot destruction timer. Revealing an already-viewed message is a
// no-op; the running timer is never restarted or duplicated.
func (s *EphemeralService) Reveal(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "EphemeralService.Reveal", trace.WithAttributes(
		attribute.String("message.id", id),
	))
	defer span.End()
	msg, ok, err := s.find(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !ok || !msg.Ephemeral {
		return nil
	}
	if msg.Viewed {
		s.log.DebugContext(ctx, "ephemeral - reveal - already revealed", "message_id", id)
		return nil
	}
	viewed := true
	zero := 0
	if err := s.store.Mutate(ctx, id, domain.MessagePatch{Viewed: &viewed, BlurLevel: &zero}); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "ephemeral - reveal - mutate failed", "message_id", id, "err", err)
		return err
	}
	s.schedule(id)
	s.log.InfoContext(ctx, "ephemeral - reveal - success", "message_id", id, "window", s.window)
	return nil
}

// Reschedule re-arms the destruction timer for a message that is revealed
// but not yet destroyed and has no pending timer. The expiry sweeper uses
// it to recover timers lost to a restart.
func (s *EphemeralService) Reschedule(ctx context.Context, id string) {
	msg, ok, err := s.find(ctx, id)
	if err != nil || !ok {
		return
	}
	if !msg.Ephemeral || !msg.Viewed || msg.Type == domain.TypeDestroy {
		return
	}
	if s.schedule(id) {
		s.log.InfoContext(ctx, "ephemeral - reschedule - timer re-armed", "message_id", id)
	}
}

// Cancel stops and discards the timer for id, if any. Idempotent.
func (s *EphemeralService) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Close cancels every pending timer.
func (s *EphemeralService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// schedule arms the one-shot timer for id unless one is already pending.
// Reports whether a new timer was armed.
func (s *EphemeralService) schedule(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[id]; ok {
		return false
	}
	s.timers[id] = time.AfterFunc(s.window, func() { s.expire(id) })
	return true
}

// expire performs the irreversible REVEALED -> DESTROYED transition. The
// triggering call is long gone by now; if the message was evicted in the
// meantime the mutate is a defined no-op.
func (s *EphemeralService) expire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	ctx := context.Background()
	destroy := domain.TypeDestroy
	content := destroyedContent
	err := s.store.Mutate(ctx, id, domain.MessagePatch{
		Type:       &destroy,
		Content:    &content,
		ClearBlur:  true,
		ClearMedia: true,
	})
	if err != nil {
		s.log.Error("ephemeral - expire - mutate failed", "message_id", id, "err", err)
		return
	}
	metrics.MediaDestroyedTotal.Inc()
	s.log.Info("ephemeral - expire - media destroyed", "message_id", id)
}

// find returns the most recent message with the given id, if it is still in
// the window.
func (s *EphemeralService) find(ctx context.Context, id string) (domain.Message, bool, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return domain.Message{}, false, err
	}
	for i := len(snap) - 1; i >= 0; i-- {
		if snap[i].ID == id {
			return snap[i], true, nil
		}
	}
	return domain.Message{}, false, nil
}
