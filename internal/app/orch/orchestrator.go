// Package orch wires the registries, relay and broadcaster together.
// Every method runs to completion within the calling handler; room and
// session mutations for one connection are serialized by its read pump.
package orch

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/app"
	"github.com/artemav/huddle/internal/core"
)

// Leave reasons carried in user-left broadcasts.
const (
	ReasonLeft         = "left"
	ReasonDisconnected = "disconnected"
	ReasonReconnected  = "reconnected"
	ReasonMoved        = "moved"
)

type Orchestrator struct {
	Sessions  *app.SessionRegistry
	Rooms     *app.RoomRegistry
	Stats     *app.StatsRegistry
	Relay     *app.Relay
	Broadcast *app.Broadcaster
}

func New(sessions *app.SessionRegistry, rooms *app.RoomRegistry, stats *app.StatsRegistry) *Orchestrator {
	return &Orchestrator{
		Sessions:  sessions,
		Rooms:     rooms,
		Stats:     stats,
		Relay:     app.NewRelay(sessions),
		Broadcast: app.NewBroadcaster(sessions),
	}
}

// Attach registers a freshly authenticated session. A previous connection
// for the same user is displaced: removed from its room with a user-left
// broadcast and closed, so room membership always resolves to a live
// connection.
func (o *Orchestrator) Attach(sess core.PeerSession) {
	if displaced, ok := o.Sessions.Register(sess); ok {
		o.removeFromRoom(displaced.ID(), ReasonReconnected)
		displaced.Signal().Close()
		log.Info().Str("module", "orch").
			Str("old_conn", string(displaced.ID())).
			Str("new_conn", string(sess.ID())).
			Str("user", string(sess.User().ID)).
			Msg("displaced stale connection on reconnect")
	}
	o.Stats.Touch(sess.ID())
}

// Detach tears down all state for a closing connection, synchronously.
func (o *Orchestrator) Detach(connID core.ConnectionID) {
	o.removeFromRoom(connID, ReasonDisconnected)
	o.Sessions.Unregister(connID)
	o.Stats.Remove(connID)
}

// Forward relays an addressed signaling payload through the relay.
func (o *Orchestrator) Forward(from core.PeerSession, target core.ConnectionID, kind string, payload json.RawMessage) error {
	o.Stats.Touch(from.ID())
	return o.Relay.Forward(from, target, kind, payload)
}
