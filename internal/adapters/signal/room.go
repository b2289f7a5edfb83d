package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/domain"
	"github.com/artemav/huddle/internal/protocol"
)

func (ctl *Controller) handleJoinRoom(sess core.PeerSession, c *wsConn, data []byte) {
	var req protocol.JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "", "malformed message")
		return
	}
	if req.RoomID == "" || len(req.RoomID) > domain.MaxRoomIDLen {
		ctl.sendError(c, "", "missing or invalid roomId")
		return
	}

	log.Info().Str("module", "signal").
		Str("conn", string(sess.ID())).
		Str("room", req.RoomID).
		Msg("join room")

	res := ctl.Orch.Join(sess, domain.RoomID(req.RoomID))
	ctl.sendJSON(c, protocol.RoomJoined{
		Type:         protocol.KindRoomJoined,
		RoomID:       res.RoomID,
		Participant:  res.Participant,
		Participants: res.Others,
	})
}

// handleLeaveRoom leaves the current room; the connection stays open.
func (ctl *Controller) handleLeaveRoom(sess core.PeerSession, c *wsConn) {
	if _, ok := ctl.Orch.Leave(sess.ID()); !ok {
		// Not in a room; benign race, nothing to report.
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(sess.ID())).Msg("left room")
}

func (ctl *Controller) handleToggle(sess core.PeerSession, c *wsConn, kind string, data []byte) {
	var req protocol.ToggleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad toggle payload")
		ctl.sendError(c, "", "malformed message")
		return
	}
	// A toggle for a connection with no room is a stale message; drop it.
	ctl.Orch.SetMediaState(sess.ID(), kind, req.Enabled)
}

func (ctl *Controller) handleRoomStats(sess core.PeerSession, c *wsConn, data []byte) {
	var req protocol.RoomStatsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		ctl.sendError(c, "", "malformed message")
		return
	}
	stats, ok := ctl.Orch.RoomStats(sess.ID(), domain.RoomID(req.RoomID))
	if !ok {
		ctl.sendError(c, "", "room not found")
		return
	}
	ctl.sendJSON(c, protocol.RoomStats{
		Type:             protocol.KindRoomStats,
		RoomID:           stats.RoomID,
		ParticipantCount: stats.ParticipantCount,
		CreatedAt:        stats.CreatedAt,
		Participants:     stats.Participants,
	})
}
