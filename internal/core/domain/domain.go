package domain

import "time"

type MessageType string

const (
	TypeText         MessageType = "TEXT"
	TypeImage        MessageType = "IMAGE"
	TypeSystem       MessageType = "SYSTEM"
	TypeCallOffer    MessageType = "CALL_OFFER"
	TypeCallAnswer   MessageType = "CALL_ANSWER"
	TypeICECandidate MessageType = "ICE_CANDIDATE"
	TypeDestroy      MessageType = "DESTROY"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a codename-bound identity. Immutable after registration except for
// moderation removal; the identity backend is its sole writer.
type User struct {
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	IsAnonymous bool      `json:"isAnonymous"`
	Role        string    `json:"-"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Message is one entry in the room's bounded log. Timestamp is epoch
// milliseconds. BlurLevel is present only while the attachment is ephemeral
// and unviewed; Duration is the sender-chosen reveal window in milliseconds.
type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"senderId"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp"`
	Ephemeral bool        `json:"ephemeral"`
	Viewed    bool        `json:"viewed"`
	MediaURL  string      `json:"mediaUrl,omitempty"`
	BlurLevel *int        `json:"blurLevel,omitempty"`
	Duration  *int64      `json:"duration,omitempty"`
}

// MessagePatch updates only the fields it carries. Nil pointers leave the
// field untouched; the Clear flags null a field out, which is how a revealed
// attachment loses its media URL and blur level on destruction.
type MessagePatch struct {
	Type       *MessageType
	Content    *string
	Viewed     *bool
	BlurLevel  *int
	ClearBlur  bool
	ClearMedia bool
}

// Apply copies the patch onto m.
func (p MessagePatch) Apply(m *Message) {
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Viewed != nil {
		m.Viewed = *p.Viewed
	}
	if p.BlurLevel != nil {
		m.BlurLevel = p.BlurLevel
	}
	if p.ClearBlur {
		m.BlurLevel = nil
	}
	if p.ClearMedia {
		m.MediaURL = ""
	}
}

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

type CallStatus string

const (
	CallCalling   CallStatus = "calling"
	CallRinging   CallStatus = "ringing"
	CallConnected CallStatus = "connected"
	CallEnded     CallStatus = "ended"
)

// CallSession is the state of the single concurrent call. PeerID names the
// remote participant and is not validated against the user set here.
type CallSession struct {
	IsActive  bool       `json:"isActive"`
	Type      CallType   `json:"type"`
	Status    CallStatus `json:"status"`
	PeerID    string     `json:"peerId"`
	StartTime *time.Time `json:"startTime,omitempty"`
}

// AdminStats is a derived moderation snapshot, recomputed on demand and
// never persisted.
type AdminStats struct {
	ActiveUsers    int    `json:"activeUsers"`
	ActiveRooms    int    `json:"activeRooms"`
	MessagesSent   int64  `json:"messagesSent"`
	BandwidthUsage string `json:"bandwidthUsage"`
	BlockedIPs     int    `json:"blockedIPs"`
}
