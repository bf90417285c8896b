package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ghostsignal/internal/app/registry"
	"ghostsignal/internal/app/server/ws"
	"ghostsignal/internal/config"
	"ghostsignal/internal/core/contracts"
	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/core/services"
	"ghostsignal/pkg/middleware"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// connectDelay simulates call establishment on the outbound leg. The peer
// answering connects the call sooner.
const connectDelay = 2 * time.Second

type WSHandler struct {
	hub       *registry.Registry
	messages  *services.MessageService
	ephemeral *services.EphemeralService
	backend   domain.IdentityBackend
	gate      *services.NetworkGate
	chatCfg   *config.ChatConfig
}

func NewWSHandler(
	hub *registry.Registry,
	messages *services.MessageService,
	ephemeral *services.EphemeralService,
	backend domain.IdentityBackend,
	gate *services.NetworkGate,
	chatCfg *config.ChatConfig,
) *WSHandler {
	return &WSHandler{
		hub:       hub,
		messages:  messages,
		ephemeral: ephemeral,
		backend:   backend,
		gate:      gate,
		chatCfg:   chatCfg,
	}
}

func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := middleware.Logger(r.Context())
	span := trace.SpanFromContext(r.Context())
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorised missing user_id")
		http.Error(w, "Unauthorized: User ID missing", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	var upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade - ws upgrade failed", "err", err)
		cancel()
		return
	}
	defer conn.Close()
	conn.SetCloseHandler(func(code int, text string) error {
		log.Info("ws handler - ws closed", "user_id", userID)
		cancel()
		return nil
	})
	// Frames carrying a full data-URL attachment must fit under the limit
	// plus envelope slack.
	socket := ws.NewWebSocket(ctx, conn, s.chatCfg.MaxAttachmentBytes+64*1024)

	nickname := s.nickname(ctx, userID)
	_ = conn.WriteJSON(domain.HandshakeResponse{
		Type:       domain.FrameHandshake,
		UserID:     userID,
		Nickname:   nickname,
		Anonymized: s.gate.Anonymized(),
	})
	log.InfoContext(r.Context(), "ws handler - ws connection established", "user_id", userID)

	client := ws.NewClient(ctx, socket, userID)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	if nickname != "" {
		if err := s.messages.System(ctx, nickname+" has entered the session."); err != nil {
			log.WarnContext(r.Context(), "ws handler - join notice failed", "user_id", userID, "err", err)
		}
	}

	calls := services.NewCallService(log, s.gate, s.messages, nil, userID, connectDelay)
	calls.SetNotify(func(sess *domain.CallSession) {
		data, err := json.Marshal(domain.CallStateEvent{Type: domain.FrameCallState, Session: sess})
		if err != nil {
			return
		}
		_ = client.Send(ctx, data)
	})
	defer calls.Hangup(ctx)

	connectedAt := time.Now().UnixMilli()
	unsub, err := s.messages.Subscribe(ctx, func(snap []domain.Message) {
		data, err := json.Marshal(domain.SnapshotEvent{Type: domain.FrameSnapshot, Messages: snap})
		if err != nil {
			return
		}
		_ = client.Send(ctx, data)
		s.signalFromSnapshot(ctx, calls, userID, connectedAt, snap)
	})
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - subscribe failed", "user_id", userID, "err", err)
		return
	}
	defer unsub()

	socket.ReadLoop(func(data []byte) {
		s.handleFrame(ctx, log, client, calls, userID, data)
	})
}

// signalFromSnapshot drives inbound call signaling off the shared log: a
// peer's CALL_OFFER rings this session, a peer's CALL_ANSWER connects an
// outbound call. Only frames newer than the connection count.
func (s *WSHandler) signalFromSnapshot(ctx context.Context, calls *services.CallService, userID string, connectedAt int64, snap []domain.Message) {
	if len(snap) == 0 {
		return
	}
	last := snap[len(snap)-1]
	if last.SenderID == userID || last.Timestamp < connectedAt {
		return
	}
	switch last.Type {
	case domain.TypeCallOffer:
		_, _ = calls.HandleOffer(ctx, domain.CallType(last.Content), last.SenderID)
	case domain.TypeCallAnswer:
		_, _ = calls.Connect()
	}
}

func (s *WSHandler) handleFrame(ctx context.Context, log *slog.Logger, client contracts.Client, calls *services.CallService, userID string, data []byte) {
	var frame domain.ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.sendError(ctx, client, "BAD_FRAME", "malformed frame")
		return
	}
	switch frame.Type {
	case domain.FrameSend:
		if frame.Message == nil {
			s.sendError(ctx, client, "BAD_FRAME", "send frame carries no message")
			return
		}
		msg := *frame.Message
		if int64(len(msg.MediaURL)) > s.chatCfg.MaxAttachmentBytes {
			log.WarnContext(ctx, "ws handler - send - attachment too large", "user_id", userID, "size", len(msg.MediaURL))
			s.sendError(ctx, client, "ATTACHMENT_TOO_LARGE", "attachment exceeds the size limit")
			return
		}
		msg.SenderID = userID
		if err := s.messages.Publish(ctx, msg); err != nil {
			s.sendError(ctx, client, "SEND_FAILED", "message could not be stored")
		}
	case domain.FrameReveal:
		if frame.MessageID == "" {
			s.sendError(ctx, client, "BAD_FRAME", "reveal frame carries no message id")
			return
		}
		if err := s.ephemeral.Reveal(ctx, frame.MessageID); err != nil {
			s.sendError(ctx, client, "REVEAL_FAILED", "reveal could not be applied")
		}
	case domain.FrameCallStart:
		if _, err := calls.Initiate(ctx, frame.CallType, frame.PeerID); err != nil {
			switch {
			case errors.Is(err, domain.ErrCallNotAllowed):
				s.sendError(ctx, client, "CALL_NOT_ALLOWED", "calls are unavailable in anonymized mode")
			case errors.Is(err, domain.ErrCallInProgress):
				s.sendError(ctx, client, "CALL_IN_PROGRESS", "a call is already active")
			default:
				s.sendError(ctx, client, "CALL_FAILED", "call could not be started")
			}
		}
	case domain.FrameCallAnswer:
		if _, err := calls.Answer(ctx); err != nil {
			s.sendError(ctx, client, "CALL_FAILED", "no ringing call to answer")
		}
	case domain.FrameCallHangup:
		calls.Hangup(ctx)
	default:
		s.sendError(ctx, client, "UNKNOWN_FRAME", "unsupported frame type")
	}
}

func (s *WSHandler) sendError(ctx context.Context, client contracts.Client, code, msg string) {
	data, err := json.Marshal(domain.ErrorMessage{Type: domain.FrameError, Code: code, Message: msg})
	if err != nil {
		return
	}
	_ = client.Send(ctx, data)
}

// nickname resolves the display codename for the handshake. Best effort;
// a blocked-mid-session user just shows up blank.
func (s *WSHandler) nickname(ctx context.Context, userID string) string {
	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		return ""
	}
	for _, u := range users {
		if u.ID == userID {
			return u.Nickname
		}
	}
	return ""
}
