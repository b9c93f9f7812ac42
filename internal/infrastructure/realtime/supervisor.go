package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Supervisor probes every registered connection on a fixed interval and
// reaps the ones that fail to acknowledge within the pong timeout. Probe and
// timeout are per-connection and cancel each other: an acknowledgment clears
// the pending timer, an expired timer terminates the connection and
// unregisters it. Half-open connections therefore cannot leak registry
// entries past one probe cycle.
type Supervisor struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	pending map[Conn]*time.Timer
}

func NewSupervisor(registry *Registry, interval, timeout time.Duration) *Supervisor {
	return &Supervisor{
		registry: registry,
		interval: interval,
		timeout:  timeout,
		pending:  make(map[Conn]*time.Timer),
	}
}

// Run probes until ctx is canceled, then clears any pending timers.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cancelAll()
			return
		case <-ticker.C:
			s.probe()
		}
	}
}

// Ack records a pong for the connection, clearing its pending death timer.
func (s *Supervisor) Ack(c Conn) {
	s.mu.Lock()
	if t, ok := s.pending[c]; ok {
		t.Stop()
		delete(s.pending, c)
	}
	s.mu.Unlock()
}

// probe arms the death timer before writing the ping so an acknowledgment
// can never arrive ahead of the timer it is meant to clear.
func (s *Supervisor) probe() {
	for _, c := range s.registry.All() {
		s.arm(c)
		if err := c.Ping(); err != nil {
			s.reap(c)
		}
	}
}

func (s *Supervisor) arm(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, already := s.pending[c]; already {
		// Previous probe still unacknowledged; its timer will fire first.
		return
	}
	s.pending[c] = time.AfterFunc(s.timeout, func() {
		s.reap(c)
	})
}

func (s *Supervisor) reap(c Conn) {
	s.Ack(c) // drop any pending timer for this connection
	key := c.Key()
	log.Debug().
		Str("sender", key.SenderID).
		Str("peer", key.PeerID).
		Str("origin", key.Origin).
		Msg("reaping unresponsive connection")
	c.Terminate()
	s.registry.Unregister(c)
}

func (s *Supervisor) cancelAll() {
	s.mu.Lock()
	for c, t := range s.pending {
		t.Stop()
		delete(s.pending, c)
	}
	s.mu.Unlock()
}
