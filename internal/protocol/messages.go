// Package protocol defines the wire messages exchanged over the signaling
// websocket. Every message is a JSON object tagged by its "type" field;
// relay payloads are carried opaque and never inspected.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/artemav/huddle/internal/domain"
)

// Client -> server message kinds.
const (
	KindJoinRoom          = "join-room"
	KindLeaveRoom         = "leave-room"
	KindOffer             = "offer"
	KindAnswer            = "answer"
	KindICECandidate      = "ice-candidate"
	KindRenegotiation     = "renegotiation-needed"
	KindConnectionQuality = "connection-quality"
	KindToggleVideo       = "toggle-video"
	KindToggleAudio       = "toggle-audio"
	KindToggleScreenShare = "toggle-screen-share"
	KindGetRoomStats      = "get-room-stats"
	KindPing              = "ping"
)

// Server -> client message kinds.
const (
	KindConnectionEstablished = "connection-established"
	KindRoomJoined            = "room-joined"
	KindUserJoined            = "user-joined"
	KindUserLeft              = "user-left"
	KindVideoToggled          = "user-video-toggled"
	KindAudioToggled          = "user-audio-toggled"
	KindScreenShareToggled    = "user-screen-share-toggled"
	KindPeerQuality           = "peer-connection-quality"
	KindRoomStats             = "room-stats"
	KindPong                  = "pong"
	KindSignalingError        = "signaling-error"
	KindAuthError             = "auth-error"
)

// Head is the minimal envelope used to dispatch an inbound message.
type Head struct {
	Type string `json:"type"`
}

type JoinRoomRequest struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// RelayRequest covers offer, answer, ice-candidate, renegotiation-needed
// and connection-quality. Payload stays opaque; connection-quality clients
// put their metrics under "quality" instead.
type RelayRequest struct {
	Type               string          `json:"type"`
	TargetConnectionID string          `json:"targetConnectionId"`
	Payload            json.RawMessage `json:"payload,omitempty"`
	Quality            json.RawMessage `json:"quality,omitempty"`
}

// RoomStatsRequest defaults to the caller's current room when roomId is
// omitted.
type RoomStatsRequest struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
}

type ToggleRequest struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// RelayEnvelope is what the relay target receives. Type repeats the relay
// kind (connection-quality arrives as peer-connection-quality).
type RelayEnvelope struct {
	Type             string          `json:"type"`
	FromUserID       domain.UserID   `json:"fromUserId"`
	FromConnectionID string          `json:"fromConnectionId"`
	FromUserName     string          `json:"fromUserName"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	ServerTimestamp  time.Time       `json:"serverTimestamp"`
}

type ConnectionEstablished struct {
	Type         string        `json:"type"`
	ConnectionID string        `json:"connectionId"`
	UserID       domain.UserID `json:"userId"`
	DisplayName  string        `json:"displayName"`
	ServerTime   time.Time     `json:"serverTime"`
}

type RoomJoined struct {
	Type         string               `json:"type"`
	RoomID       domain.RoomID        `json:"roomId"`
	Participant  domain.Participant   `json:"participant"`
	Participants []domain.Participant `json:"participants"`
}

type UserJoined struct {
	Type         string        `json:"type"`
	UserID       domain.UserID `json:"userId"`
	UserName     string        `json:"userName"`
	ConnectionID string        `json:"connectionId"`
}

type UserLeft struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	UserName string        `json:"userName"`
	LeftAt   time.Time     `json:"leftAt"`
	Reason   string        `json:"reason"`
}

// MediaToggled is shared by the three user-*-toggled broadcasts.
type MediaToggled struct {
	Type         string        `json:"type"`
	UserID       domain.UserID `json:"userId"`
	UserName     string        `json:"userName"`
	ConnectionID string        `json:"connectionId"`
	Enabled      bool          `json:"enabled"`
}

type RoomStats struct {
	Type             string               `json:"type"`
	RoomID           domain.RoomID        `json:"roomId"`
	ParticipantCount int                  `json:"participantCount"`
	CreatedAt        time.Time            `json:"createdAt"`
	Participants     []domain.Participant `json:"participants"`
}

type Pong struct {
	Type       string    `json:"type"`
	ServerTime time.Time `json:"serverTime"`
}

// SignalingError is reported to the sender only; it never crashes the
// handling of other connections' messages.
type SignalingError struct {
	Type      string `json:"type"`
	RelayType string `json:"relayType,omitempty"`
	Message   string `json:"message"`
}

type AuthError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
