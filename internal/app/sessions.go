package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/domain"
)

// SessionRegistry binds one authenticated identity to one live connection.
// The user mapping is single-slot: a reconnect for the same user displaces
// the previous connection (last write wins).
type SessionRegistry struct {
	mu     sync.RWMutex
	byConn map[core.ConnectionID]core.PeerSession
	byUser map[domain.UserID]core.ConnectionID
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byConn: make(map[core.ConnectionID]core.PeerSession),
		byUser: make(map[domain.UserID]core.ConnectionID),
	}
}

// Register records the session under both its connection id and its user id.
// If an older connection was registered for the same user it is returned so
// the caller can tear it down; this call never closes it.
func (r *SessionRegistry) Register(sess core.PeerSession) (core.PeerSession, bool) {
	uid := sess.User().ID
	r.mu.Lock()
	defer r.mu.Unlock()

	var displaced core.PeerSession
	if oldID, ok := r.byUser[uid]; ok && oldID != sess.ID() {
		displaced = r.byConn[oldID]
	}
	r.byConn[sess.ID()] = sess
	r.byUser[uid] = sess.ID()
	log.Info().Str("module", "app.sessions").
		Str("conn", string(sess.ID())).
		Str("user", string(uid)).
		Bool("displaced", displaced != nil).
		Msg("registered session")
	return displaced, displaced != nil
}

// Unregister removes the connection entry. The user mapping is removed only
// if it still points at connID, so a stale unregister never clobbers a newer
// registration made by a reconnect.
func (r *SessionRegistry) Unregister(connID core.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	uid := sess.User().ID
	if cur, ok := r.byUser[uid]; ok && cur == connID {
		delete(r.byUser, uid)
	}
	log.Info().Str("module", "app.sessions").Str("conn", string(connID)).Msg("unregistered session")
}

func (r *SessionRegistry) Get(connID core.ConnectionID) (core.PeerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byConn[connID]
	return sess, ok
}

func (r *SessionRegistry) ByUser(uid domain.UserID) (core.PeerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byUser[uid]
	if !ok {
		return nil, false
	}
	sess, ok := r.byConn[connID]
	return sess, ok
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
