package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artemav/huddle/internal/domain"
	"github.com/artemav/huddle/internal/protocol"
)

func TestBroadcaster_SkipsSenderAndCountsDrops(t *testing.T) {
	sessions := NewSessionRegistry()
	b := NewBroadcaster(sessions)

	a, sigA := newTestSession(t, "cA", "uA", "alice")
	bb, sigB := newTestSession(t, "cB", "uB", "bob")
	c, sigC := newTestSession(t, "cC", "uC", "carol")
	sigC.full = true
	sessions.Register(a)
	sessions.Register(bb)
	sessions.Register(c)

	parts := []domain.Participant{
		{UserID: "uA", ConnectionID: "cA"},
		{UserID: "uB", ConnectionID: "cB"},
		{UserID: "uC", ConnectionID: "cC"},
		{UserID: "uD", ConnectionID: "cGone"},
	}
	res := b.ToParticipants(parts, "cA", protocol.UserJoined{
		Type:   protocol.KindUserJoined,
		UserID: "uA",
	})

	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, 2, res.Dropped, "full channel and dead connection both count as drops")
	assert.Zero(t, sigA.count(), "sender never receives its own event")
	assert.Equal(t, 1, sigB.count())
}
