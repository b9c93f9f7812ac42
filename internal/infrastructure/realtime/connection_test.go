package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebsocketConn(t *testing.T) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drain frames so client-side writes never back up.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestSendAfterTerminateFailsWithoutPanic(t *testing.T) {
	conn := NewConnection(RoutingKey{SenderID: "alice", PeerID: "bob", Origin: "chat-page"}, newWebsocketConn(t))
	conn.Start()

	conn.Terminate()

	for i := 0; i < 512; i++ {
		assert.Error(t, conn.Send([]byte("late payload")))
	}
}

func TestConcurrentSendAndTerminate(t *testing.T) {
	conn := NewConnection(RoutingKey{SenderID: "alice", PeerID: "bob", Origin: "chat-page"}, newWebsocketConn(t))
	conn.Start()

	// The supervisor terminates reaped connections while router fan-out may
	// still be sending to them. Neither side may panic.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = conn.Send([]byte("fan-out payload"))
			}
		}()
	}
	conn.Terminate()
	wg.Wait()

	assert.Error(t, conn.Send([]byte("after close")))
}

func TestCloseWithStopsWriteLoop(t *testing.T) {
	conn := NewConnection(RoutingKey{SenderID: "alice", PeerID: "bob", Origin: "chat-page"}, newWebsocketConn(t))
	conn.Start()

	require.NoError(t, conn.Send([]byte("before close")))
	conn.CloseWith(websocket.CloseNormalClosure, "done")

	assert.Error(t, conn.Send([]byte("after close")))
	assert.Error(t, conn.Ping())
}
