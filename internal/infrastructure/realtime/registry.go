package realtime

import (
	"errors"
	"sync"
)

// ErrUnidentified rejects registration of a connection whose routing key is
// missing either party. The caller must close the transport.
var ErrUnidentified = errors.New("realtime: connection is missing routing identity")

// Registry owns every currently open transport connection. Multiple
// connections may share a routing key (several tabs on the same pair); each
// is tracked independently. All access goes through register/unregister/find
// so concurrent mutation is centrally controlled.
type Registry struct {
	mu    sync.Mutex
	conns []Conn
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a connection. Connections without both identities are
// rejected.
func (r *Registry) Register(c Conn) error {
	key := c.Key()
	if key.SenderID == "" || key.PeerID == "" {
		return ErrUnidentified
	}
	r.mu.Lock()
	r.conns = append(r.conns, c)
	r.mu.Unlock()
	return nil
}

// Unregister removes a connection if it is still tracked. Idempotent.
func (r *Registry) Unregister(c Conn) {
	r.mu.Lock()
	for i, existing := range r.conns {
		if existing == c {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}

// FindRecipients returns the connections that should receive a message sent
// by senderID to recipientID: every registration owned by the recipient whose
// open window points back at the sender. When several of those share an
// origin label only the first registered one is kept, so a browser context
// opened twice under an identical origin tag gets a single delivery while
// each distinct origin still gets its own copy.
func (r *Registry) FindRecipients(senderID, recipientID string) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Conn
	seen := make(map[string]struct{})
	for _, c := range r.conns {
		key := c.Key()
		if key.SenderID != recipientID || key.PeerID != senderID {
			continue
		}
		if _, dup := seen[key.Origin]; dup {
			continue
		}
		seen[key.Origin] = struct{}{}
		out = append(out, c)
	}
	return out
}

// All returns a snapshot of every tracked connection.
func (r *Registry) All() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Conn, len(r.conns))
	copy(out, r.conns)
	return out
}

// Len reports the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Close terminates all tracked connections and clears registry state.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := r.conns
	r.conns = nil
	r.mu.Unlock()

	for _, c := range conns {
		c.Terminate()
	}
}
