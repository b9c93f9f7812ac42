package controller

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/realtime"
)

func newSocketServer(t *testing.T) (*httptest.Server, *realtime.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := realtime.NewRegistry()
	router := realtime.NewRouter(registry)
	supervisor := realtime.NewSupervisor(registry, time.Minute, time.Minute)
	ctl := NewChatSocketController(registry, router, supervisor)
	ctl.handshakeTimeout = time.Second

	engine := gin.New()
	engine.GET("/chat/ws", ctl.Handle())
	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		srv.Close()
		registry.Close()
	})
	return srv, registry
}

func dialSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func announce(t *testing.T, ws *websocket.Conn, sender, recipient, origin string) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]string{
		"type":      "announce",
		"sender":    sender,
		"recipient": recipient,
		"origin":    origin,
	}))
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestSocketAnnounceRegistersAndAcks(t *testing.T) {
	srv, registry := newSocketServer(t)

	ws := dialSocket(t, srv)
	announce(t, ws, "alice", "bob", "laptop")

	frame := readFrame(t, ws)
	assert.Equal(t, "connected", frame["type"])

	assert.Eventually(t, func() bool { return registry.Len() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestSocketRelaysFrameToCounterparty(t *testing.T) {
	srv, _ := newSocketServer(t)

	bob := dialSocket(t, srv)
	announce(t, bob, "bob", "alice", "phone")
	require.Equal(t, "connected", readFrame(t, bob)["type"])

	alice := dialSocket(t, srv)
	announce(t, alice, "alice", "bob", "laptop")
	require.Equal(t, "connected", readFrame(t, alice)["type"])

	require.NoError(t, alice.WriteJSON(map[string]string{
		"sender":    "alice",
		"recipient": "bob",
		"text":      "is the room still available?",
	}))

	frame := readFrame(t, bob)
	assert.Equal(t, "alice", frame["sender"])
	assert.Equal(t, "is the room still available?", frame["text"])
}

func TestSocketRejectsMissingAnnouncement(t *testing.T) {
	srv, registry := newSocketServer(t)

	ws := dialSocket(t, srv)
	require.NoError(t, ws.WriteJSON(map[string]string{
		"sender": "alice", "recipient": "bob", "text": "no announce first",
	}))

	frame := readFrame(t, ws)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "bad_handshake", frame["code"])

	// The socket is closed and nothing was registered.
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, registry.Len())
}

func TestSocketRejectsAnnouncementWithoutIdentity(t *testing.T) {
	srv, registry := newSocketServer(t)

	ws := dialSocket(t, srv)
	require.NoError(t, ws.WriteJSON(map[string]string{
		"type": "announce", "sender": "alice",
	}))

	frame := readFrame(t, ws)
	assert.Equal(t, "error", frame["type"])
	assert.Zero(t, registry.Len())
}

func TestSocketRepliesErrorOnMalformedRelay(t *testing.T) {
	srv, _ := newSocketServer(t)

	ws := dialSocket(t, srv)
	announce(t, ws, "alice", "bob", "laptop")
	require.Equal(t, "connected", readFrame(t, ws)["type"])

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))

	frame := readFrame(t, ws)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "bad_request", frame["code"])
}
