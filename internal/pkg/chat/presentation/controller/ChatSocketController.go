package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/realtime"
)

// ChatSocketController owns the websocket endpoint. A connecting client must
// announce its routing identity in a typed first frame before anything is
// registered; a socket that never announces correctly is accepted at the
// transport level but functionally a no-op.
type ChatSocketController struct {
	registry   *realtime.Registry
	router     *realtime.Router
	supervisor *realtime.Supervisor

	handshakeTimeout time.Duration
	readTimeout      time.Duration
}

func NewChatSocketController(registry *realtime.Registry, router *realtime.Router, supervisor *realtime.Supervisor) *ChatSocketController {
	return &ChatSocketController{
		registry:         registry,
		router:           router,
		supervisor:       supervisor,
		handshakeTimeout: 10 * time.Second,
		readTimeout:      60 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

// announceFrame is the first frame on every connection: it replaces the
// cookie side-channel the browser client used to set before dialing.
type announceFrame struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Origin    string `json:"origin"`
}

// relayFrame is any subsequent frame carrying a persisted message for the
// counterparty; the raw bytes are forwarded verbatim.
type relayFrame struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

type ackFrame struct {
	Type string `json:"type"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Handle upgrades the HTTP connection and services it until the client
// disconnects or the liveness supervisor reaps it.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		key, ok := ctl.awaitAnnouncement(ws)
		if !ok {
			_ = ws.Close()
			return
		}

		conn := realtime.NewConnection(key, ws)
		conn.Start()
		if err := ctl.registry.Register(conn); err != nil {
			log.Debug().Err(err).Msg("registration rejected")
			conn.CloseWith(websocket.ClosePolicyViolation, "unidentified connection")
			return
		}
		defer func() {
			ctl.registry.Unregister(conn)
			conn.CloseWith(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(ctl.readTimeout))
		ws.SetPongHandler(func(string) error {
			ctl.supervisor.Ack(conn)
			return ws.SetReadDeadline(time.Now().Add(ctl.readTimeout))
		})

		if payload, err := json.Marshal(ackFrame{Type: "connected"}); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}

			var frame relayFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}
			if frame.Sender == "" || frame.Recipient == "" {
				ctl.replyError(conn, "bad_request", "sender and recipient are required")
				continue
			}

			// Relay the confirmed payload byte-identical to the counterparty's
			// live windows. The client only sends frames after persistence
			// succeeded on the reliable path.
			ctl.router.Push(frame.Sender, frame.Recipient, data)
		}
	}
}

// awaitAnnouncement reads and validates the identity frame within the
// handshake deadline.
func (ctl *ChatSocketController) awaitAnnouncement(ws *websocket.Conn) (realtime.RoutingKey, bool) {
	_ = ws.SetReadDeadline(time.Now().Add(ctl.handshakeTimeout))

	_, data, err := ws.ReadMessage()
	if err != nil {
		return realtime.RoutingKey{}, false
	}

	var frame announceFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "announce" {
		ctl.writeErrorFrame(ws, "bad_handshake", "first frame must be an announcement")
		return realtime.RoutingKey{}, false
	}
	if frame.Sender == "" || frame.Recipient == "" {
		ctl.writeErrorFrame(ws, "bad_handshake", "announcement is missing identity")
		return realtime.RoutingKey{}, false
	}

	return realtime.RoutingKey{
		SenderID: frame.Sender,
		PeerID:   frame.Recipient,
		Origin:   frame.Origin,
	}, true
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code, message string) {
	if payload, err := json.Marshal(errorFrame{Type: "error", Code: code, Error: message}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) writeErrorFrame(ws *websocket.Conn, code, message string) {
	if payload, err := json.Marshal(errorFrame{Type: "error", Code: code, Error: message}); err == nil {
		_ = ws.SetWriteDeadline(time.Now().Add(time.Second))
		_ = ws.WriteMessage(websocket.TextMessage, payload)
	}
}
