package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProbeInterval = 20 * time.Millisecond
	testPongTimeout   = 10 * time.Millisecond
)

func TestSupervisorReapsSilentConnection(t *testing.T) {
	reg := NewRegistry()
	sup := NewSupervisor(reg, testProbeInterval, testPongTimeout)

	silent := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(silent))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	// One probe cycle plus the pong timeout must be enough to reap it.
	assert.Eventually(t, func() bool {
		return reg.Len() == 0 && silent.isTerminated()
	}, 10*(testProbeInterval+testPongTimeout), time.Millisecond)
}

func TestSupervisorKeepsAcknowledgingConnection(t *testing.T) {
	reg := NewRegistry()
	sup := NewSupervisor(reg, testProbeInterval, testPongTimeout)

	lively := newStubConn("bob", "alice", "chat-page")
	// Simulate an immediate pong for every probe.
	lively.onPing = func() { sup.Ack(lively) }
	require.NoError(t, reg.Register(lively))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	time.Sleep(5 * (testProbeInterval + testPongTimeout))

	assert.Equal(t, 1, reg.Len())
	assert.False(t, lively.isTerminated())
}

func TestSupervisorReapsOnPingFailure(t *testing.T) {
	reg := NewRegistry()
	sup := NewSupervisor(reg, testProbeInterval, testPongTimeout)

	broken := newStubConn("bob", "alice", "chat-page")
	broken.pingErr = errors.New("broken pipe")
	require.NoError(t, reg.Register(broken))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	assert.Eventually(t, func() bool {
		return reg.Len() == 0 && broken.isTerminated()
	}, 10*testProbeInterval, time.Millisecond)
}

func TestSupervisorPongDuringProbeClearsTimer(t *testing.T) {
	reg := NewRegistry()
	sup := NewSupervisor(reg, testProbeInterval, testPongTimeout)

	c := newStubConn("bob", "alice", "chat-page")
	// The pong lands while the ping write is still in flight. The death timer
	// must already be armed at that point or the ack clears nothing and the
	// timer reaps a live connection.
	c.onPing = func() { sup.Ack(c) }
	require.NoError(t, reg.Register(c))

	sup.probe()
	time.Sleep(3 * testPongTimeout)

	assert.Equal(t, 1, reg.Len())
	assert.False(t, c.isTerminated())
}

func TestSupervisorAckWithoutPendingProbeIsNoop(t *testing.T) {
	reg := NewRegistry()
	sup := NewSupervisor(reg, testProbeInterval, testPongTimeout)

	c := newStubConn("bob", "alice", "chat-page")
	require.NoError(t, reg.Register(c))

	// Unsolicited pong before any probe went out.
	sup.Ack(c)

	assert.Equal(t, 1, reg.Len())
}
