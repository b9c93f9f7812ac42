package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// RoutingKey identifies which logical chat window a transport instance
// represents: the registering user, the counterparty of the open window, and
// an origin label distinguishing browser contexts ("overview", "chat-page").
type RoutingKey struct {
	SenderID string
	PeerID   string
	Origin   string
}

// Conn is the registry's view of a live transport. *Connection is the
// websocket-backed implementation; tests substitute stubs.
type Conn interface {
	Key() RoutingKey
	Send(payload []byte) error
	Ping() error
	Terminate()
}

// Connection wraps a websocket and coordinates outbound writes via a buffered
// channel. Safe for concurrent use.
type Connection struct {
	ID string

	key   RoutingKey
	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewConnection constructs a Connection for the given routing key.
func NewConnection(key RoutingKey, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:    uuid.NewString(),
		key:   key,
		ws:    ws,
		send:  make(chan []byte, 128),
		close: make(chan struct{}),
	}
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

func (c *Connection) Key() RoutingKey { return c.key }

// Send enqueues payload for delivery. If the client is slow and the buffer is
// full, the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.close:
		return errors.New("connection closed")
	default:
		c.CloseWith(websocket.CloseGoingAway, "send buffer full")
		return errors.New("connection buffer exceeded")
	}
}

// Ping writes a zero-payload ping control frame. Control frames may be
// written concurrently with the write loop.
func (c *Connection) Ping() error {
	select {
	case <-c.close:
		return errors.New("connection closed")
	default:
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Terminate forcibly drops the connection without a close handshake. Used by
// the liveness supervisor when a probe goes unacknowledged.
func (c *Connection) Terminate() {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.Close()
	})
}

// CloseWith terminates the connection with a close frame and stops the write
// loop.
func (c *Connection) CloseWith(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

// writeLoop is the only goroutine writing data frames. It exits on c.close;
// c.send is never closed, so a Send racing a close at worst parks a payload
// in a buffer nobody drains.
func (c *Connection) writeLoop() {
	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}
