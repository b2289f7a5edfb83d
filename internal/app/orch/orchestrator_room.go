package orch

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/app"
	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/domain"
	"github.com/artemav/huddle/internal/protocol"
)

// Join moves the session into roomID. When the connection is already in a
// different room it is removed from there first, with the usual user-left
// side effects, before the new membership is created.
func (o *Orchestrator) Join(sess core.PeerSession, roomID domain.RoomID) app.JoinResult {
	if cur, ok := o.Rooms.RoomOf(sess.ID()); ok && cur != roomID {
		o.removeFromRoom(sess.ID(), ReasonMoved)
	}

	res := o.Rooms.Join(sess, roomID)
	o.Stats.Touch(sess.ID())

	o.Broadcast.ToParticipants(res.Others, sess.ID(), protocol.UserJoined{
		Type:         protocol.KindUserJoined,
		UserID:       res.Participant.UserID,
		UserName:     res.Participant.DisplayName,
		ConnectionID: res.Participant.ConnectionID,
	})
	return res
}

// Leave handles an explicit leave-room. Not being in a room is a benign
// race, reported as ok=false and otherwise ignored.
func (o *Orchestrator) Leave(connID core.ConnectionID) (app.LeaveInfo, bool) {
	o.Stats.Touch(connID)
	return o.removeFromRoom(connID, ReasonLeft)
}

// SetMediaState applies a partial media update and broadcasts the changed
// flag to the room's other participants.
func (o *Orchestrator) SetMediaState(connID core.ConnectionID, kind string, enabled bool) bool {
	patch := domain.MediaStatePatch{}
	var eventKind string
	switch kind {
	case protocol.KindToggleVideo:
		patch.Video = &enabled
		eventKind = protocol.KindVideoToggled
	case protocol.KindToggleAudio:
		patch.Audio = &enabled
		eventKind = protocol.KindAudioToggled
	case protocol.KindToggleScreenShare:
		patch.ScreenShare = &enabled
		eventKind = protocol.KindScreenShareToggled
	default:
		log.Warn().Str("module", "orch").Str("kind", kind).Msg("unknown toggle kind")
		return false
	}

	o.Stats.Touch(connID)
	p, others, ok := o.Rooms.SetMediaState(connID, patch)
	if !ok {
		// Stale toggle after a leave; silent no-op.
		return false
	}

	o.Broadcast.ToParticipants(others, connID, protocol.MediaToggled{
		Type:         eventKind,
		UserID:       p.UserID,
		UserName:     p.DisplayName,
		ConnectionID: p.ConnectionID,
		Enabled:      enabled,
	})
	return true
}

// RoomStats snapshots roomID, or the caller's current room when roomID is
// empty.
func (o *Orchestrator) RoomStats(connID core.ConnectionID, roomID domain.RoomID) (app.RoomStatsView, bool) {
	o.Stats.Touch(connID)
	if roomID == "" {
		cur, ok := o.Rooms.RoomOf(connID)
		if !ok {
			return app.RoomStatsView{}, false
		}
		roomID = cur
	}
	return o.Rooms.Stats(roomID)
}

func (o *Orchestrator) removeFromRoom(connID core.ConnectionID, reason string) (app.LeaveInfo, bool) {
	info, ok := o.Rooms.Leave(connID)
	if !ok {
		return app.LeaveInfo{}, false
	}
	o.Broadcast.ToParticipants(info.Remaining, connID, protocol.UserLeft{
		Type:     protocol.KindUserLeft,
		UserID:   info.Participant.UserID,
		UserName: info.Participant.DisplayName,
		LeftAt:   time.Now(),
		Reason:   reason,
	})
	return info, true
}
