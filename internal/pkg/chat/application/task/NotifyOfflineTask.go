package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	qport "github.com/TheTrueVester/leasy-chat/internal/infrastructure/queue/port"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// NotifyOfflineTaskType is the queue task name for notifying a recipient who
// had no live connection when a message arrived.
const NotifyOfflineTaskType = "chat:notify_offline"

// NotifyOfflineTaskPayload is the JSON payload transported via the queue.
type NotifyOfflineTaskPayload struct {
	RecipientID string `json:"recipientId"`
	SenderID    string `json:"senderId"`
}

// RegisterNotifyOfflineTask binds the handler: it raises the unread marker
// for the recipient. Outbound mail is an external collaborator; this handler
// is where it would be invoked.
func RegisterNotifyOfflineTask(srv qport.Server, users userrepo.UserDirectory) {
	srv.Register(NotifyOfflineTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyOfflineTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := users.AddUnreadMarker(ctx, p.RecipientID, p.SenderID); err != nil {
			return err
		}
		log.Debug().
			Str("recipient", p.RecipientID).
			Str("sender", p.SenderID).
			Msg("unread marker raised for offline recipient")
		return nil
	})
}

// QueueNotifier adapts the queue client to the use-case Notifier port.
type QueueNotifier struct {
	Client qport.Client
}

func NewQueueNotifier(client qport.Client) *QueueNotifier {
	return &QueueNotifier{Client: client}
}

func (n *QueueNotifier) NotifyOffline(ctx context.Context, recipientID, senderID string) error {
	payload, err := json.Marshal(NotifyOfflineTaskPayload{RecipientID: recipientID, SenderID: senderID})
	if err != nil {
		return err
	}
	_, err = n.Client.Enqueue(ctx, qport.Task{Type: NotifyOfflineTaskType, Payload: payload}, qport.EnqueueOption{
		Queue:     "chat",
		MaxRetry:  5,
		UniqueTTL: time.Minute,
	})
	return err
}
