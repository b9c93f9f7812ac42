package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn is an in-memory Conn for exercising registry, router and
// supervisor without sockets.
type stubConn struct {
	key RoutingKey

	mu         sync.Mutex
	received   [][]byte
	sendErr    error
	pingErr    error
	onPing     func()
	terminated bool
}

func newStubConn(sender, peer, origin string) *stubConn {
	return &stubConn{key: RoutingKey{SenderID: sender, PeerID: peer, Origin: origin}}
}

func (s *stubConn) Key() RoutingKey { return s.key }

func (s *stubConn) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.received = append(s.received, payload)
	return nil
}

func (s *stubConn) Ping() error {
	s.mu.Lock()
	onPing := s.onPing
	err := s.pingErr
	s.mu.Unlock()
	if onPing != nil {
		onPing()
	}
	return err
}

func (s *stubConn) Terminate() {
	s.mu.Lock()
	s.terminated = true
	s.mu.Unlock()
}

func (s *stubConn) deliveries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func (s *stubConn) isTerminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

func TestRegistryRejectsMissingIdentity(t *testing.T) {
	reg := NewRegistry()

	require.ErrorIs(t, reg.Register(newStubConn("", "bob", "chat-page")), ErrUnidentified)
	require.ErrorIs(t, reg.Register(newStubConn("alice", "", "chat-page")), ErrUnidentified)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryReverseLookup(t *testing.T) {
	reg := NewRegistry()

	// Bob has a window open toward Alice; Alice toward Bob; Carol is unrelated.
	bob := newStubConn("bob", "alice", "chat-page")
	alice := newStubConn("alice", "bob", "chat-page")
	carol := newStubConn("carol", "alice", "chat-page")
	for _, c := range []*stubConn{bob, alice, carol} {
		require.NoError(t, reg.Register(c))
	}

	// A message from Alice to Bob must land on Bob's window only.
	got := reg.FindRecipients("alice", "bob")
	require.Len(t, got, 1)
	assert.Same(t, bob, got[0])

	got = reg.FindRecipients("bob", "alice")
	require.Len(t, got, 1)
	assert.Same(t, alice, got[0])
}

func TestRegistryDedupsIdenticalOrigins(t *testing.T) {
	reg := NewRegistry()

	first := newStubConn("bob", "alice", "chat-page")
	second := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(first))
	require.NoError(t, reg.Register(second))

	got := reg.FindRecipients("alice", "bob")
	require.Len(t, got, 1)
	assert.Same(t, first, got[0], "first registration per origin wins")
}

func TestRegistryFansOutDistinctOrigins(t *testing.T) {
	reg := NewRegistry()

	overview := newStubConn("bob", "alice", "overview")
	chatPage := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(overview))
	require.NoError(t, reg.Register(chatPage))

	got := reg.FindRecipients("alice", "bob")
	assert.Len(t, got, 2)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()

	c := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(c))
	reg.Unregister(c)
	reg.Unregister(c)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.FindRecipients("alice", "bob"))
}

func TestRegistryCloseTerminatesEverything(t *testing.T) {
	reg := NewRegistry()

	a := newStubConn("bob", "alice", "chat-page")
	b := newStubConn("alice", "bob", "chat-page")
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	reg.Close()

	assert.Equal(t, 0, reg.Len())
	assert.True(t, a.isTerminated())
	assert.True(t, b.isTerminated())
}
