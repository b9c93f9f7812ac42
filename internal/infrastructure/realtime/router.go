package realtime

import (
	"github.com/rs/zerolog/log"
)

// Router is pure dispatch over registry state: it forwards an already
// persisted payload verbatim to every live connection the recipient holds
// toward the sender. No retry, no queuing; when nothing matches, the
// recipient sees the message on the next conversation fetch and the unread
// marker surfaces a notification regardless.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Push forwards payload for a sender->recipient message and returns how many
// connections accepted it. Zero means the recipient had no live window toward
// the sender.
func (r *Router) Push(senderID, recipientID string, payload []byte) int {
	delivered := 0
	for _, c := range r.registry.FindRecipients(senderID, recipientID) {
		if err := c.Send(payload); err != nil {
			log.Debug().
				Str("sender", senderID).
				Str("recipient", recipientID).
				Err(err).
				Msg("live push dropped")
			continue
		}
		delivered++
	}
	return delivered
}
