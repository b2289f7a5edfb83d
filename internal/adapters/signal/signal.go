// Package signal is the websocket adapter for the signaling protocol.
// It owns the transport: upgrade, pumps, encode/decode and per-message
// dispatch. All room and session semantics live in app/orch.
package signal

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/artemav/huddle/internal/app/orch"
	"github.com/artemav/huddle/internal/auth"
	"github.com/artemav/huddle/internal/config"
	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/domain"
	"github.com/artemav/huddle/internal/protocol"
	"github.com/google/uuid"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch     *orch.Orchestrator
	Identity auth.IdentityProvider
	Cfg      *config.Config

	limiter *MessageRateLimiter
}

func NewController(o *orch.Orchestrator, identity auth.IdentityProvider, cfg *config.Config) *Controller {
	return &Controller{
		Orch:     o,
		Identity: identity,
		Cfg:      cfg,
		limiter:  NewMessageRateLimiter(cfg.MessageRateLimit, cfg.MessageRateWindow),
	}
}

// wsConn adapts one gorilla connection to core.SignalConnection.
// TrySend never blocks: a full send channel is a dropped delivery.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal authenticates the request, upgrades it and starts the pumps.
// Authentication happens before any signaling state is created; a failed
// connection gets an auth-error response and nothing else.
func (ctl *Controller) HandleSignal(c *gin.Context) {
	creds := auth.Credentials{
		GuestToken:  c.GetString("guest_token"),
		BearerToken: bearerToken(c),
	}
	identity, err := ctl.Identity.Authenticate(c.Request.Context(), creds)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("authentication failed")
		c.JSON(http.StatusUnauthorized, protocol.AuthError{
			Type:    protocol.KindAuthError,
			Message: "authentication failed",
		})
		return
	}

	user, err := domain.NewUser(identity.UserID, identity.DisplayName)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("rejected identity")
		c.JSON(http.StatusUnauthorized, protocol.AuthError{
			Type:    protocol.KindAuthError,
			Message: "invalid identity",
		})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	connID := core.ConnectionID(uuid.NewString())
	sess := core.NewPeerSession(connID, user, conn)

	log.Info().Str("module", "signal").
		Str("conn", string(connID)).
		Str("user", string(user.ID)).
		Msg("new signaling connection")

	ctl.Orch.Attach(sess)
	ctl.sendJSON(conn, protocol.ConnectionEstablished{
		Type:         protocol.KindConnectionEstablished,
		ConnectionID: string(connID),
		UserID:       user.ID,
		DisplayName:  user.DisplayName,
		ServerTime:   time.Now(),
	})

	go ctl.writePump(conn)
	go ctl.readPump(sess, conn)
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	h := c.GetHeader("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	// Browsers cannot set headers on websocket dials.
	return c.Query("token")
}
