package signal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemav/huddle/internal/app"
	"github.com/artemav/huddle/internal/app/orch"
	"github.com/artemav/huddle/internal/auth"
	"github.com/artemav/huddle/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:              "debug",
		ReadLimit:         32768,
		PingPeriod:        54 * time.Second,
		SendBuffer:        32,
		Secret:            "test-secret",
		AllowGuests:       true,
		MessageRateLimit:  1000,
		MessageRateWindow: time.Second,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	o := orch.New(app.NewSessionRegistry(), app.NewRoomRegistry(), app.NewStatsRegistry())
	ctrl := NewController(o, auth.NewJWTProvider(cfg.Secret, cfg.AllowGuests), cfg)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		// Stand-in for the router's guest token middleware.
		c.Set("guest_token", uuid.NewString())
		ctrl.HandleSignal(c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, ctrl
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func TestHandleSignal_ConnectionEstablishedFirst(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	conn := dial(t, srv)

	ack := readMsg(t, conn)
	assert.Equal(t, "connection-established", ack["type"])
	assert.NotEmpty(t, ack["connectionId"])
	assert.NotEmpty(t, ack["userId"])
	assert.NotEmpty(t, ack["serverTime"])
}

func TestHandleSignal_PingPong(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	conn := dial(t, srv)
	readMsg(t, conn)

	send(t, conn, map[string]any{"type": "ping"})
	pong := readMsg(t, conn)
	assert.Equal(t, "pong", pong["type"])
	assert.NotEmpty(t, pong["serverTime"])
}

func TestHandleSignal_JoinRelayFlow(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	connA := dial(t, srv)
	ackA := readMsg(t, connA)
	send(t, connA, map[string]any{"type": "join-room", "roomId": "r1"})
	joinedA := readMsg(t, connA)
	require.Equal(t, "room-joined", joinedA["type"])
	assert.Empty(t, joinedA["participants"])

	connB := dial(t, srv)
	readMsg(t, connB)
	send(t, connB, map[string]any{"type": "join-room", "roomId": "r1"})
	joinedB := readMsg(t, connB)
	require.Equal(t, "room-joined", joinedB["type"])
	parts, ok := joinedB["participants"].([]any)
	require.True(t, ok)
	require.Len(t, parts, 1)

	// A observes B's arrival, learning B's connection id.
	userJoined := readMsg(t, connA)
	require.Equal(t, "user-joined", userJoined["type"])
	targetID, _ := userJoined["connectionId"].(string)
	require.NotEmpty(t, targetID)

	send(t, connA, map[string]any{
		"type":               "offer",
		"targetConnectionId": targetID,
		"payload":            map[string]any{"type": "offer", "sdp": "x"},
	})
	env := readMsg(t, connB)
	assert.Equal(t, "offer", env["type"])
	assert.Equal(t, ackA["userId"], env["fromUserId"])
	assert.Equal(t, ackA["connectionId"], env["fromConnectionId"])
	assert.Equal(t, map[string]any{"type": "offer", "sdp": "x"}, env["payload"])
}

func TestHandleSignal_RelayToUnknownTarget(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	conn := dial(t, srv)
	readMsg(t, conn)

	send(t, conn, map[string]any{
		"type":               "ice-candidate",
		"targetConnectionId": "gone",
		"payload":            map[string]any{"candidate": "c"},
	})
	errMsg := readMsg(t, conn)
	assert.Equal(t, "signaling-error", errMsg["type"])
	assert.Equal(t, "ice-candidate", errMsg["relayType"])
	assert.Equal(t, "target not found", errMsg["message"])
}

func TestHandleSignal_MalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	conn := dial(t, srv)
	readMsg(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	errMsg := readMsg(t, conn)
	assert.Equal(t, "signaling-error", errMsg["type"])
}

func TestHandleSignal_DisconnectCleansRoom(t *testing.T) {
	srv, ctrl := newTestServer(t, testConfig())

	conn := dial(t, srv)
	readMsg(t, conn)
	send(t, conn, map[string]any{"type": "join-room", "roomId": "r2"})
	readMsg(t, conn)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		_, ok := ctrl.Orch.Rooms.Stats("r2")
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "room must be torn down when its last connection drops")
}

func TestHandleSignal_RoomStats(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	conn := dial(t, srv)
	readMsg(t, conn)

	send(t, conn, map[string]any{"type": "get-room-stats"})
	errMsg := readMsg(t, conn)
	assert.Equal(t, "signaling-error", errMsg["type"])

	send(t, conn, map[string]any{"type": "join-room", "roomId": "r3"})
	readMsg(t, conn)

	send(t, conn, map[string]any{"type": "get-room-stats"})
	stats := readMsg(t, conn)
	assert.Equal(t, "room-stats", stats["type"])
	assert.Equal(t, "r3", stats["roomId"])
	assert.EqualValues(t, 1, stats["participantCount"])
}

func TestHandleSignal_GuestsDisabledRejected(t *testing.T) {
	cfg := testConfig()
	cfg.AllowGuests = false
	srv, _ := newTestServer(t, cfg)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
