package core

import (
	"time"

	"github.com/artemav/huddle/internal/domain"
)

// peerSession implements PeerSession by pairing identity + transport.
type peerSession struct {
	id          ConnectionID
	user        *domain.User
	conn        SignalConnection
	connectedAt time.Time
}

func NewPeerSession(id ConnectionID, user *domain.User, conn SignalConnection) PeerSession {
	return &peerSession{
		id:          id,
		user:        user,
		conn:        conn,
		connectedAt: time.Now(),
	}
}

func (s *peerSession) ID() ConnectionID         { return s.id }
func (s *peerSession) User() *domain.User       { return s.user }
func (s *peerSession) Signal() SignalConnection { return s.conn }
func (s *peerSession) ConnectedAt() time.Time   { return s.connectedAt }
