package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	chat "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/domain"
	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// SendMessageInput carries the data needed to send a new message.
type SendMessageInput struct {
	SenderID    string
	RecipientID string
	Text        string
	File        string
}

// SendMessageUseCase persists a message on the reliable path and, only after
// persistence has confirmed, hands the payload to the live push layer.
// When no live connection accepts it, the offline notifier takes over so the
// recipient still sees an unread flag.
type SendMessageUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserDirectory
	Push  Pusher   // optional; nil disables the live path
	Notif Notifier // optional; nil disables offline notification
}

func NewSendMessageUseCase(repo repository.ChatRepository, users userrepo.UserDirectory, push Pusher, notif Notifier) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Users: users, Push: push, Notif: notif}
}

// Execute validates, persists and pushes a message. The returned message
// carries the timestamp assigned by the store.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(chat.Message{
		Sender:    in.SenderID,
		Recipient: in.RecipientID,
		Text:      in.Text,
		File:      in.File,
	})
	if err != nil {
		return nil, err
	}

	for _, id := range []string{msg.Sender, msg.Recipient} {
		if _, err := uc.Users.ResolveIdentity(ctx, id); err != nil {
			return nil, fmt.Errorf("resolving %q: %w", id, err)
		}
	}

	conv, err := uc.Repo.CreateConversation(ctx, msg.Sender, msg.Recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	stored, err := uc.Repo.AppendMessage(ctx, conv.ID, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Persistence is confirmed; the live push may happen now and not before.
	delivered := 0
	if uc.Push != nil {
		payload, err := stored.Payload()
		if err != nil {
			return nil, fmt.Errorf("encoding push payload: %w", err)
		}
		delivered = uc.Push.Push(stored.Sender, stored.Recipient, payload)
	}

	if delivered == 0 && uc.Notif != nil {
		if err := uc.Notif.NotifyOffline(ctx, stored.Recipient, stored.Sender); err != nil {
			// The message is durable; notification is best-effort.
			log.Warn().
				Str("recipient", stored.Recipient).
				Err(err).
				Msg("offline notification enqueue failed")
		}
	}

	return stored, nil
}
