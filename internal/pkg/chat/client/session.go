package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrContactInfo is returned by Send when the text looks like it carries
// contact details. The check runs before any network call so a rejected
// message is never persisted.
var ErrContactInfo = errors.New("client: message may not contain contact information")

// ErrClosed is returned by operations on a session after Close.
var ErrClosed = errors.New("client: session closed")

// Message is a payload pushed to this session by the counterparty.
type Message struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text,omitempty"`
	File      string `json:"file,omitempty"`
}

// Options configures a Session.
type Options struct {
	// ServerURL is the websocket endpoint, e.g. ws://host/api/v1/chat/ws.
	ServerURL string
	// APIURL is the REST base, e.g. http://host/api/v1.
	APIURL string

	SenderID    string
	RecipientID string
	// Origin distinguishes windows of the same conversation; optional.
	Origin string

	// OnMessage receives deduplicated counterparty payloads. Called from the
	// read loop; keep it fast or hand off.
	OnMessage func(Message)

	// Reconnect policy. Base defaults to 5s, Cap to 80s. MaxAttempts of zero
	// retries forever.
	ReconnectBase time.Duration
	ReconnectCap  time.Duration
	MaxAttempts   int

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

// Session keeps one websocket open per (sender, recipient, origin) identity
// and redials it when it drops. Sends go over the REST endpoint first; the
// socket only ever carries payloads the server has already stored.
type Session struct {
	opts   Options
	dialer *websocket.Dialer
	httpc  *http.Client

	mu          sync.Mutex
	ws          *websocket.Conn
	lastPayload []byte
	retryTimer  *time.Timer
	attempts    int
	closed      bool
}

func NewSession(opts Options) (*Session, error) {
	if opts.ServerURL == "" || opts.APIURL == "" {
		return nil, errors.New("client: server and api urls are required")
	}
	if opts.SenderID == "" || opts.RecipientID == "" {
		return nil, errors.New("client: sender and recipient ids are required")
	}
	if opts.ReconnectBase <= 0 {
		opts.ReconnectBase = 5 * time.Second
	}
	if opts.ReconnectCap <= 0 {
		opts.ReconnectCap = 80 * time.Second
	}

	s := &Session{opts: opts}
	s.dialer = opts.Dialer
	if s.dialer == nil {
		s.dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	s.httpc = opts.HTTPClient
	if s.httpc == nil {
		s.httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return s, nil
}

type announceFrame struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Origin    string `json:"origin"`
}

// Dial opens the socket, announces the session identity and starts the read
// loop. On failure or later disconnect the session redials on its own with
// capped, jittered backoff.
func (s *Session) Dial(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	ws, _, err := s.dialer.DialContext(ctx, s.opts.ServerURL, nil)
	if err != nil {
		s.scheduleRedial()
		return fmt.Errorf("client: dial %s: %w", s.opts.ServerURL, err)
	}

	announce, err := json.Marshal(announceFrame{
		Type:      "announce",
		Sender:    s.opts.SenderID,
		Recipient: s.opts.RecipientID,
		Origin:    s.opts.Origin,
	})
	if err != nil {
		_ = ws.Close()
		return fmt.Errorf("client: encode announcement: %w", err)
	}
	_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := ws.WriteMessage(websocket.TextMessage, announce); err != nil {
		_ = ws.Close()
		s.scheduleRedial()
		return fmt.Errorf("client: announce: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ws.Close()
		return ErrClosed
	}
	s.ws = ws
	s.attempts = 0
	s.mu.Unlock()

	ws.SetPingHandler(func(appData string) error {
		_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	go s.readLoop(ws)
	return nil
}

func (s *Session) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		s.handleIncoming(raw)
	}
	_ = ws.Close()

	s.mu.Lock()
	if s.ws == ws {
		s.ws = nil
	}
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.scheduleRedial()
	}
}

// handleIncoming filters and deduplicates one raw frame. The server relays
// every stored payload both directly and via the sender's socket, so the same
// bytes routinely arrive twice in a row; only the first copy is surfaced.
func (s *Session) handleIncoming(raw []byte) {
	s.mu.Lock()
	if bytes.Equal(raw, s.lastPayload) {
		s.mu.Unlock()
		return
	}
	s.lastPayload = append(s.lastPayload[:0], raw...)
	s.mu.Unlock()

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	// Control frames ("connected", errors) carry no sender; drop them along
	// with anything not from the counterparty.
	if msg.Sender != s.opts.RecipientID || msg.Recipient != s.opts.SenderID {
		return
	}
	if s.opts.OnMessage != nil {
		s.opts.OnMessage(msg)
	}
}

func (s *Session) scheduleRedial() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.retryTimer != nil {
		return
	}
	if s.opts.MaxAttempts > 0 && s.attempts >= s.opts.MaxAttempts {
		log.Warn().Int("attempts", s.attempts).Msg("giving up on reconnect")
		return
	}
	delay := backoffDelay(s.attempts, s.opts.ReconnectBase, s.opts.ReconnectCap)
	s.attempts++
	log.Debug().Dur("delay", delay).Int("attempt", s.attempts).Msg("scheduling redial")
	s.retryTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.retryTimer = nil
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		if err := s.Dial(context.Background()); err != nil && !errors.Is(err, ErrClosed) {
			log.Debug().Err(err).Msg("redial failed")
		}
	})
}

// backoffDelay returns the wait before attempt n: exponential from base,
// capped, with jitter in the upper half so synchronized clients spread out.
func backoffDelay(attempt int, base, limit time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= limit {
			d = limit
			break
		}
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

type sendRequest struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text,omitempty"`
	File        string `json:"file,omitempty"`
}

type unreadRequest struct {
	RecipientID string `json:"recipient_id"`
	SenderID    string `json:"sender_id"`
}

// Send persists a message over the REST endpoint and, once the server has
// confirmed it, relays the payload over the socket for the counterparty's
// open windows. The unread flag is raised regardless so the recipient sees
// the conversation highlighted next time they look.
func (s *Session) Send(ctx context.Context, text, file string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	if strings.Contains(text, "@") {
		return ErrContactInfo
	}

	body, err := json.Marshal(sendRequest{
		SenderID:    s.opts.SenderID,
		RecipientID: s.opts.RecipientID,
		Text:        text,
		File:        file,
	})
	if err != nil {
		return fmt.Errorf("client: encode message: %w", err)
	}
	if err := s.postJSON(ctx, s.opts.APIURL+"/chat/messages", body); err != nil {
		return err
	}

	// Persistence confirmed; the live relay is best effort.
	payload, err := json.Marshal(Message{
		Sender:    s.opts.SenderID,
		Recipient: s.opts.RecipientID,
		Text:      strings.TrimSpace(text),
		File:      file,
	})
	if err == nil {
		s.mu.Lock()
		ws := s.ws
		s.mu.Unlock()
		if ws != nil {
			_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Msg("live relay failed")
			}
		}
	}

	unread, err := json.Marshal(unreadRequest{
		RecipientID: s.opts.RecipientID,
		SenderID:    s.opts.SenderID,
	})
	if err == nil {
		if err := s.postJSON(ctx, s.opts.APIURL+"/users/unread", unread); err != nil {
			log.Debug().Err(err).Msg("raising unread flag failed")
		}
	}
	return nil
}

func (s *Session) postJSON(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("client: %s returned %d: %s", url, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

// Close tears the session down: the pending redial timer is stopped and the
// socket, if open, is closed. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	ws := s.ws
	s.ws = nil
	s.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		return ws.Close()
	}
	return nil
}
