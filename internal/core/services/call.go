package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ghostsignal/internal/core/contracts"
	"ghostsignal/internal/core/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CallService is the per-client state machine for the single concurrent
// call: CALLING -> CONNECTED -> ENDED on the outbound path, RINGING ->
// CONNECTED -> ENDED inbound. Initiation is refused outright in anonymized
// mode so the transport never learns the caller's address. The service
// decides when capture begins and ends; the transport decides how.
type CallService struct {
	log      *slog.Logger
	gate     *NetworkGate
	messages *MessageService
	capture  contracts.MediaCapture
	selfID   string
	// connectDelay simulates connection establishment; a real transport
	// calls Connect from its signaling-complete event instead.
	connectDelay time.Duration

	// notify is set once, before the first transition, and fires after
	// every state change with a copy of the session (nil after hangup).
	notify func(*domain.CallSession)

	mu           sync.Mutex
	session      *domain.CallSession
	connectTimer *time.Timer
}

func NewCallService(
	log *slog.Logger,
	gate *NetworkGate,
	messages *MessageService,
	capture contracts.MediaCapture,
	selfID string,
	connectDelay time.Duration,
) *CallService {
	if capture == nil {
		capture = NopCapture{}
	}
	return &CallService{
		log:          log,
		gate:         gate,
		messages:     messages,
		capture:      capture,
		selfID:       selfID,
		connectDelay: connectDelay,
	}
}

// SetNotify installs the transition observer. Must be called before any
// transition; the field is read without locking afterwards.
func (s *CallService) SetNotify(fn func(*domain.CallSession)) {
	s.notify = fn
}

func (s *CallService) notifyState(sess *domain.CallSession) {
	if s.notify != nil {
		s.notify(sess)
	}
}

// Initiate starts an outbound call. In anonymized mode no session is
// created at all and the caller receives an explicit denial.
func (s *CallService) Initiate(ctx context.Context, kind domain.CallType, peerID string) (*domain.CallSession, error) {
	ctx, span := tracer.Start(ctx, "CallService.Initiate", trace.WithAttributes(
		attribute.String("call.type", string(kind)),
	))
	defer span.End()
	if s.gate.Anonymized() {
		s.log.WarnContext(ctx, "call - initiate - refused in anonymized mode", "user_id", s.selfID)
		return nil, domain.ErrCallNotAllowed
	}

	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return nil, domain.ErrCallInProgress
	}
	if err := s.capture.Acquire(ctx, kind); err != nil {
		s.mu.Unlock()
		span.RecordError(err)
		s.log.ErrorContext(ctx, "call - initiate - capture acquire failed", "err", err)
		return nil, err
	}
	s.session = &domain.CallSession{
		IsActive: true,
		Type:     kind,
		Status:   domain.CallCalling,
		PeerID:   peerID,
	}
	s.connectTimer = time.AfterFunc(s.connectDelay, func() { s.Connect() })
	out := *s.session
	s.mu.Unlock()

	if err := s.messages.Publish(ctx, domain.Message{
		SenderID: s.selfID,
		Type:     domain.TypeCallOffer,
		Content:  string(kind),
	}); err != nil {
		s.log.ErrorContext(ctx, "call - initiate - offer publish failed", "err", err)
	}
	s.log.InfoContext(ctx, "call - initiate - calling", "user_id", s.selfID, "call_type", string(kind))
	s.notifyState(&out)
	return &out, nil
}

// HandleOffer registers an inbound call and puts the session in RINGING.
func (s *CallService) HandleOffer(ctx context.Context, kind domain.CallType, peerID string) (*domain.CallSession, error) {
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return nil, domain.ErrCallInProgress
	}
	s.session = &domain.CallSession{
		IsActive: true,
		Type:     kind,
		Status:   domain.CallRinging,
		PeerID:   peerID,
	}
	out := *s.session
	s.mu.Unlock()
	s.log.InfoContext(ctx, "call - handle offer - ringing", "user_id", s.selfID, "peer_id", peerID)
	s.notifyState(&out)
	return &out, nil
}

// Answer accepts a ringing inbound call.
func (s *CallService) Answer(ctx context.Context) (*domain.CallSession, error) {
	s.mu.Lock()
	if s.session == nil || s.session.Status != domain.CallRinging {
		s.mu.Unlock()
		return nil, domain.ErrNoSuchCallState
	}
	if err := s.capture.Acquire(ctx, s.session.Type); err != nil {
		s.mu.Unlock()
		s.log.ErrorContext(ctx, "call - answer - capture acquire failed", "err", err)
		return nil, err
	}
	now := time.Now()
	s.session.Status = domain.CallConnected
	s.session.StartTime = &now
	out := *s.session
	s.mu.Unlock()

	if err := s.messages.Publish(ctx, domain.Message{
		SenderID: s.selfID,
		Type:     domain.TypeCallAnswer,
		Content:  string(out.Type),
	}); err != nil {
		s.log.ErrorContext(ctx, "call - answer - answer publish failed", "err", err)
	}
	s.log.InfoContext(ctx, "call - answer - connected", "user_id", s.selfID)
	s.notifyState(&out)
	return &out, nil
}

// Connect moves a CALLING or RINGING session to CONNECTED. The simulated
// establishment timer drives it; a real transport calls it directly.
func (s *CallService) Connect() (*domain.CallSession, error) {
	s.mu.Lock()
	if s.session == nil || (s.session.Status != domain.CallCalling && s.session.Status != domain.CallRinging) {
		s.mu.Unlock()
		return nil, domain.ErrNoSuchCallState
	}
	now := time.Now()
	s.session.Status = domain.CallConnected
	s.session.StartTime = &now
	out := *s.session
	s.mu.Unlock()
	s.log.Info("call - connect - connected", "user_id", s.selfID, "peer_id", out.PeerID)
	s.notifyState(&out)
	return &out, nil
}

// Hangup ends the call from any state and discards the session. Capture is
// released deterministically no matter which state the session was in.
// Hanging up with no active call is a no-op.
func (s *CallService) Hangup(ctx context.Context) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	s.capture.Release()
	s.session = nil
	s.mu.Unlock()
	s.log.InfoContext(ctx, "call - hangup - ended", "user_id", s.selfID)
	s.notifyState(nil)
}

// Session returns a copy of the current session, or nil when no call is
// active.
func (s *CallService) Session() *domain.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	out := *s.session
	return &out
}

// NopCapture satisfies the capture contract for deployments where the
// transport layer owns device access entirely.
type NopCapture struct{}

func (NopCapture) Acquire(ctx context.Context, kind domain.CallType) error { return nil }
func (NopCapture) Release()                                                {}
