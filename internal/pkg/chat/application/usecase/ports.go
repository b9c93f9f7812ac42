package usecase

import "context"

// Pusher forwards an already persisted payload to the recipient's live
// connections and reports how many accepted it. The live push is best-effort;
// a zero count is not an error.
type Pusher interface {
	Push(senderID, recipientID string, payload []byte) int
}

// Notifier dispatches follow-up work for a message that reached no live
// connection, so the recipient still gets a notification.
type Notifier interface {
	NotifyOffline(ctx context.Context, recipientID, senderID string) error
}
