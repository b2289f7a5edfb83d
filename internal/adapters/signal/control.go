package signal

import (
	"time"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/protocol"
)

func (ctl *Controller) handlePing(sess core.PeerSession, c *wsConn) {
	ctl.Orch.Stats.Touch(sess.ID())
	ctl.sendJSON(c, protocol.Pong{
		Type:       protocol.KindPong,
		ServerTime: time.Now(),
	})
}
