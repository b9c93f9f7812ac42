package usecase

import (
	"context"
	"fmt"

	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// ListChatsInput wraps the user whose conversations should be listed.
type ListChatsInput struct {
	UserID string
}

// ListChatsUseCase returns every conversation the user participates in, each
// with its messages and the resolved counterparty identity for display.
type ListChatsUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserDirectory
}

func NewListChatsUseCase(repo repository.ChatRepository, users userrepo.UserDirectory) *ListChatsUseCase {
	return &ListChatsUseCase{Repo: repo, Users: users}
}

func (uc *ListChatsUseCase) Execute(ctx context.Context, in ListChatsInput) ([]ChatView, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("userId is required")
	}

	if _, err := uc.Users.ResolveIdentity(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("resolving %q: %w", in.UserID, err)
	}

	convs, err := uc.Repo.FindConversationsByParticipant(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	views := make([]ChatView, 0, len(convs))
	for _, conv := range convs {
		msgs, err := uc.Repo.GetMessagesByConversation(ctx, conv.ID, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		view := ChatView{Conversation: conv, Messages: msgs}
		if host, err := uc.Users.ResolveIdentity(ctx, conv.Host); err == nil {
			view.Host = host
		}
		if applicant, err := uc.Users.ResolveIdentity(ctx, conv.Applicant); err == nil {
			view.Applicant = applicant
		}
		views = append(views, view)
	}
	return views, nil
}
