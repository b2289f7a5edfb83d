package domain

import "time"

// ConnectionState describes a participant's peer-connection health as
// reported by the client. The server relays it, it never derives it.
type ConnectionState string

const (
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateDisconnected ConnectionState = "disconnected"
)

// Participant is a user's membership record inside exactly one room.
type Participant struct {
	UserID             UserID          `json:"userId"`
	DisplayName        string          `json:"displayName"`
	ConnectionID       string          `json:"connectionId"`
	JoinedAt           time.Time       `json:"joinedAt"`
	VideoEnabled       bool            `json:"videoEnabled"`
	AudioEnabled       bool            `json:"audioEnabled"`
	ScreenShareEnabled bool            `json:"screenShareEnabled"`
	State              ConnectionState `json:"connectionState"`
}

// MediaStatePatch is a partial update of a participant's media flags.
// Nil fields are left untouched.
type MediaStatePatch struct {
	Video       *bool
	Audio       *bool
	ScreenShare *bool
}
