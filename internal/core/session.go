package core

import (
	"time"

	"github.com/artemav/huddle/internal/domain"
)

// ConnectionID identifies one live transport link. Server-assigned,
// unique per link.
type ConnectionID string

// PeerSession binds an authenticated identity to its transport endpoint.
// This is what registries store and the relay resolves targets against.
type PeerSession interface {
	ID() ConnectionID
	User() *domain.User
	Signal() SignalConnection
	ConnectedAt() time.Time
}
