package repository

import (
	"context"
	"errors"

	chat "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/domain"
)

// ErrNotFound reports a missing conversation.
var ErrNotFound = errors.New("chat repository: not found")

// ChatRepository is the conversation store consumed by the chat core: an
// append-only message log grouped into conversations keyed by an unordered
// participant pair.
type ChatRepository interface {
	// CreateConversation is an idempotent create-or-fetch by unordered pair:
	// (A,B) and (B,A) yield the same conversation.
	CreateConversation(ctx context.Context, hostID, applicantID string) (*chat.Conversation, error)

	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)

	// FindConversationsByParticipant returns every conversation the user is a
	// party of, in either role.
	FindConversationsByParticipant(ctx context.Context, userID string) ([]chat.Conversation, error)

	DeleteConversation(ctx context.Context, id string) error

	// AppendMessage persists m in the conversation and returns the stored
	// message including its assigned timestamp.
	AppendMessage(ctx context.Context, conversationID string, m chat.Message) (*chat.Message, error)

	// GetMessagesByConversation returns messages in creation order.
	GetMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error)
}
