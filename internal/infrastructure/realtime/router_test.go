package realtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDeliversExactlyOncePerOrigin(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)

	first := newStubConn("bob", "alice", "chat-page")
	twin := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(first))
	require.NoError(t, reg.Register(twin))

	delivered := router.Push("alice", "bob", []byte(`{"sender":"alice","recipient":"bob","text":"hi"}`))

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, first.deliveries())
	assert.Equal(t, 0, twin.deliveries())
}

func TestRouterFansOutToDistinctOrigins(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)

	overview := newStubConn("bob", "alice", "overview")
	chatPage := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(overview))
	require.NoError(t, reg.Register(chatPage))

	payload := []byte(`{"sender":"alice","recipient":"bob","text":"hi"}`)
	delivered := router.Push("alice", "bob", payload)

	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, overview.deliveries())
	assert.Equal(t, 1, chatPage.deliveries())
	assert.Equal(t, payload, overview.received[0], "payload forwarded verbatim")
}

func TestRouterNoMatchIsNotAnError(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)

	delivered := router.Push("alice", "bob", []byte(`{}`))
	assert.Equal(t, 0, delivered)
}

func TestRouterSkipsFailingSends(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)

	broken := newStubConn("bob", "alice", "overview")
	broken.sendErr = errors.New("buffer exceeded")
	healthy := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(broken))
	require.NoError(t, reg.Register(healthy))

	delivered := router.Push("alice", "bob", []byte(`{}`))

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, healthy.deliveries())
}
