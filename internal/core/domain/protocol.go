package domain

const (
	FrameHandshake  = "handshake"
	FrameSnapshot   = "snapshot"
	FrameSend       = "send"
	FrameReveal     = "reveal"
	FrameCallStart  = "call_start"
	FrameCallAnswer = "call_answer"
	FrameCallHangup = "call_hangup"
	FrameCallState  = "call_state"
	FrameError      = "error"
)

// AuthResult is the public shape of register/login. Message carries the
// human-readable failure reason; the secret is never echoed back.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

// HandshakeResponse is sent once on ws connect
type HandshakeResponse struct {
	Type       string `json:"type"` // "handshake"
	UserID     string `json:"user_id"`
	Nickname   string `json:"nickname"`
	Anonymized bool   `json:"anonymized"`
}

// SnapshotEvent pushes the full ordered window to a subscriber.
type SnapshotEvent struct {
	Type     string    `json:"type"` // "snapshot"
	Messages []Message `json:"messages"`
}

// ClientFrame is what a connected client may send over the socket.
type ClientFrame struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	CallType  CallType `json:"call_type,omitempty"`
	PeerID    string   `json:"peer_id,omitempty"`
}

// CallStateEvent reports the session after a transition, or null after
// hangup.
type CallStateEvent struct {
	Type    string       `json:"type"` // "call_state"
	Session *CallSession `json:"session"`
}

// ErrorMessage is WS-safe error
type ErrorMessage struct {
	Type    string `json:"type"` // always "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}
