package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	chat "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/domain"
	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// GetChatInput fetches one conversation. ViewerID, when set to a participant,
// marks the counterparty's messages as read: opening the conversation is the
// acknowledgment that clears the unread flag.
type GetChatInput struct {
	ChatID   string
	ViewerID string
	Limit    int
	Offset   int
}

// ChatView is a conversation shaped for display: resolved identities plus the
// message log.
type ChatView struct {
	Conversation chat.Conversation  `json:"conversation"`
	Host         *userrepo.Identity `json:"host,omitempty"`
	Applicant    *userrepo.Identity `json:"applicant,omitempty"`
	Messages     []chat.Message     `json:"messages"`
}

// GetChatUseCase loads a conversation with its messages and participant
// identities.
type GetChatUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserDirectory
}

func NewGetChatUseCase(repo repository.ChatRepository, users userrepo.UserDirectory) *GetChatUseCase {
	return &GetChatUseCase{Repo: repo, Users: users}
}

func (uc *GetChatUseCase) Execute(ctx context.Context, in GetChatInput) (*ChatView, error) {
	if in.ChatID == "" {
		return nil, fmt.Errorf("chatId is required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ChatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, conv.ID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	view := &ChatView{Conversation: *conv, Messages: msgs}
	if host, err := uc.Users.ResolveIdentity(ctx, conv.Host); err == nil {
		view.Host = host
	}
	if applicant, err := uc.Users.ResolveIdentity(ctx, conv.Applicant); err == nil {
		view.Applicant = applicant
	}

	if conv.Has(in.ViewerID) {
		if err := uc.Users.RemoveUnreadMarker(ctx, in.ViewerID, conv.PeerOf(in.ViewerID)); err != nil {
			log.Warn().Str("viewer", in.ViewerID).Err(err).Msg("clearing unread marker failed")
		}
	}

	return view, nil
}
