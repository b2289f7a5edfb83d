package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/app"
	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/protocol"
)

// handleRelay covers offer, answer, ice-candidate, renegotiation-needed and
// connection-quality. One generic path: the payload is never parsed here.
func (ctl *Controller) handleRelay(sess core.PeerSession, c *wsConn, kind string, data []byte) {
	var req protocol.RelayRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad relay payload")
		ctl.sendError(c, kind, "malformed message")
		return
	}

	payload := req.Payload
	if kind == protocol.KindConnectionQuality && len(payload) == 0 {
		payload = req.Quality
	}

	err := ctl.Orch.Forward(sess, core.ConnectionID(req.TargetConnectionID), kind, payload)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrTargetNotFound):
		ctl.sendError(c, kind, "target not found")
	case errors.Is(err, app.ErrMissingParameters):
		ctl.sendError(c, kind, "missing parameters")
	default:
		log.Error().Err(err).Str("module", "signal").Str("kind", kind).Msg("relay failed")
		ctl.sendError(c, kind, "internal error")
	}
}
