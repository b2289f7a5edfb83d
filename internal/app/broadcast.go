package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/domain"
)

// Broadcaster fans presence events out to a room's other participants.
// Fire and forget: it never waits for acknowledgment and never retries;
// a participant that misses an event recovers via the full snapshot on
// its next join or room-stats call.
type Broadcaster struct {
	sessions *SessionRegistry
}

func NewBroadcaster(sessions *SessionRegistry) *Broadcaster {
	return &Broadcaster{sessions: sessions}
}

// PublishResult reports delivery counts for logging only.
type PublishResult struct {
	SentTo  int
	Dropped int
}

// ToParticipants marshals event once and pushes it to every listed
// participant's connection, skipping except.
func (b *Broadcaster) ToParticipants(parts []domain.Participant, except core.ConnectionID, event any) PublishResult {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("marshal broadcast event")
		return PublishResult{}
	}

	var res PublishResult
	for _, p := range parts {
		connID := core.ConnectionID(p.ConnectionID)
		if connID == except {
			continue
		}
		sess, ok := b.sessions.Get(connID)
		if !ok {
			res.Dropped++
			continue
		}
		if err := sess.Signal().TrySend(frame); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	if res.Dropped > 0 {
		log.Debug().Str("module", "app.broadcast").
			Int("sent_to", res.SentTo).
			Int("dropped", res.Dropped).
			Msg("broadcast result")
	}
	return res
}
