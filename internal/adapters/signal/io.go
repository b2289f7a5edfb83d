package signal

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/protocol"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(sess core.PeerSession, c *wsConn) {
	connID := sess.ID()
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("readPump closing")
		ctl.Orch.Detach(connID)
		ctl.limiter.Forget(connID)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	readWait := ctl.Cfg.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("readPump read error")
			}
			return
		}
		ctl.handleMessage(sess, c, data)
	}
}

// handleMessage dispatches one inbound message. A panic in a handler is
// confined to the sender: logged and reported as a generic signaling-error.
func (ctl *Controller) handleMessage(sess core.PeerSession, c *wsConn, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("module", "signal").
				Str("conn", string(sess.ID())).
				Any("panic", rec).
				Msg("handler panic recovered")
			ctl.sendError(c, "", "internal error")
		}
	}()

	if !ctl.limiter.Allow(sess.ID()) {
		ctl.sendError(c, "", "rate limit exceeded")
		return
	}

	var head protocol.Head
	if err := json.Unmarshal(data, &head); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(sess.ID())).Msg("bad json")
		ctl.sendError(c, "", "malformed message")
		return
	}

	switch head.Type {
	case protocol.KindJoinRoom:
		ctl.handleJoinRoom(sess, c, data)
	case protocol.KindLeaveRoom:
		ctl.handleLeaveRoom(sess, c)
	case protocol.KindOffer, protocol.KindAnswer, protocol.KindICECandidate,
		protocol.KindRenegotiation, protocol.KindConnectionQuality:
		ctl.handleRelay(sess, c, head.Type, data)
	case protocol.KindToggleVideo, protocol.KindToggleAudio, protocol.KindToggleScreenShare:
		ctl.handleToggle(sess, c, head.Type, data)
	case protocol.KindGetRoomStats:
		ctl.handleRoomStats(sess, c, data)
	case protocol.KindPing:
		ctl.handlePing(sess, c)
	default:
		log.Warn().Str("module", "signal").Str("type", head.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, relayType, message string) {
	ctl.sendJSON(c, protocol.SignalingError{
		Type:      protocol.KindSignalingError,
		RelayType: relayType,
		Message:   message,
	})
}
