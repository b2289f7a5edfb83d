package domain

// RoomID is a caller-supplied opaque room identifier.
type RoomID string

const MaxRoomIDLen = 64
