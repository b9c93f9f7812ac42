package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.ServerURL == "" {
		opts.ServerURL = "ws://unused.invalid/chat/ws"
	}
	if opts.APIURL == "" {
		opts.APIURL = "http://unused.invalid/api/v1"
	}
	if opts.SenderID == "" {
		opts.SenderID = "alice"
	}
	if opts.RecipientID == "" {
		opts.RecipientID = "bob"
	}
	s, err := NewSession(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionRequiresIdentity(t *testing.T) {
	_, err := NewSession(Options{ServerURL: "ws://x", APIURL: "http://x", SenderID: "alice"})
	assert.Error(t, err)
}

func TestConsecutiveDuplicatePayloadsCollapse(t *testing.T) {
	var got []Message
	s := newTestSession(t, Options{OnMessage: func(m Message) { got = append(got, m) }})

	raw, err := json.Marshal(Message{Sender: "bob", Recipient: "alice", Text: "hi"})
	require.NoError(t, err)

	s.handleIncoming(raw)
	s.handleIncoming(raw)
	s.handleIncoming(raw)

	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Text)
}

func TestNonConsecutiveRepeatsAreKept(t *testing.T) {
	var got []Message
	s := newTestSession(t, Options{OnMessage: func(m Message) { got = append(got, m) }})

	first, _ := json.Marshal(Message{Sender: "bob", Recipient: "alice", Text: "hi"})
	second, _ := json.Marshal(Message{Sender: "bob", Recipient: "alice", Text: "there"})

	s.handleIncoming(first)
	s.handleIncoming(second)
	s.handleIncoming(first)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"hi", "there", "hi"}, []string{got[0].Text, got[1].Text, got[2].Text})
}

func TestFramesFromOthersAreDropped(t *testing.T) {
	var got []Message
	s := newTestSession(t, Options{OnMessage: func(m Message) { got = append(got, m) }})

	stranger, _ := json.Marshal(Message{Sender: "mallory", Recipient: "alice", Text: "psst"})
	ownEcho, _ := json.Marshal(Message{Sender: "alice", Recipient: "bob", Text: "mine"})
	control, _ := json.Marshal(map[string]string{"type": "connected"})

	s.handleIncoming(stranger)
	s.handleIncoming(ownEcho)
	s.handleIncoming(control)

	assert.Empty(t, got)
}

func TestSendRejectsContactInfoLocally(t *testing.T) {
	hits := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer api.Close()

	s := newTestSession(t, Options{APIURL: api.URL})
	err := s.Send(context.Background(), "reach me at alice@example.com", "")

	assert.ErrorIs(t, err, ErrContactInfo)
	assert.Zero(t, hits, "rejected message must not touch the network")
}

func TestSendPersistsThenRaisesUnread(t *testing.T) {
	var order []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	s := newTestSession(t, Options{APIURL: api.URL})
	require.NoError(t, s.Send(context.Background(), "see the place tomorrow?", ""))

	assert.Equal(t, []string{"/chat/messages", "/users/unread"}, order)
}

func TestSendStopsWhenPersistenceFails(t *testing.T) {
	var order []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer api.Close()

	s := newTestSession(t, Options{APIURL: api.URL})
	err := s.Send(context.Background(), "hello", "")

	require.Error(t, err)
	assert.Equal(t, []string{"/chat/messages"}, order, "unread flag must not be raised for an unstored message")
}

func TestDialAnnouncesIdentityFirst(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	announced := make(chan announceFrame, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		var frame announceFrame
		if err := ws.ReadJSON(&frame); err == nil {
			announced <- frame
		}
	}))
	defer srv.Close()

	s := newTestSession(t, Options{
		ServerURL: "ws" + strings.TrimPrefix(srv.URL, "http"),
		Origin:    "laptop",
	})
	require.NoError(t, s.Dial(context.Background()))

	select {
	case frame := <-announced:
		assert.Equal(t, "announce", frame.Type)
		assert.Equal(t, "alice", frame.Sender)
		assert.Equal(t, "bob", frame.Recipient)
		assert.Equal(t, "laptop", frame.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("no announcement received")
	}
}

func TestBackoffDelaysAreBoundedAndJittered(t *testing.T) {
	base := 5 * time.Second
	limit := 80 * time.Second

	for attempt := 0; attempt < 12; attempt++ {
		for i := 0; i < 50; i++ {
			d := backoffDelay(attempt, base, limit)
			assert.GreaterOrEqual(t, d, base/2, "attempt %d", attempt)
			assert.LessOrEqual(t, d, limit, "attempt %d", attempt)
		}
	}

	// Early attempts stay well under the cap.
	d := backoffDelay(0, base, limit)
	assert.LessOrEqual(t, d, base)
}

func TestCloseStopsPendingRedial(t *testing.T) {
	s := newTestSession(t, Options{ReconnectBase: time.Hour, ReconnectCap: time.Hour})

	// Dialing an unroutable endpoint fails and arms the redial timer.
	err := s.Dial(context.Background())
	require.Error(t, err)

	s.mu.Lock()
	armed := s.retryTimer != nil
	s.mu.Unlock()
	require.True(t, armed)

	require.NoError(t, s.Close())

	s.mu.Lock()
	assert.Nil(t, s.retryTimer)
	assert.True(t, s.closed)
	s.mu.Unlock()

	assert.ErrorIs(t, s.Send(context.Background(), "hi", ""), ErrClosed)
}
