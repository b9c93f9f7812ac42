package usecase

import (
	"context"
	"fmt"

	chat "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/domain"
	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// CreateChatInput carries the two chat participants: the listing host and the
// applicant.
type CreateChatInput struct {
	HostID      string
	ApplicantID string
}

// CreateChatUseCase opens the conversation between two users, or returns the
// existing one; the pair is unordered and unique.
// Hexagonal: depends on repository ports only.
// One class per use case (own file)
type CreateChatUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserDirectory
}

func NewCreateChatUseCase(repo repository.ChatRepository, users userrepo.UserDirectory) *CreateChatUseCase {
	return &CreateChatUseCase{Repo: repo, Users: users}
}

// Execute resolves both parties and creates-or-fetches their conversation.
func (uc *CreateChatUseCase) Execute(ctx context.Context, in CreateChatInput) (*chat.Conversation, error) {
	if in.HostID == "" || in.ApplicantID == "" {
		return nil, chat.ErrMissingParticipant
	}
	if in.HostID == in.ApplicantID {
		return nil, chat.ErrSameParticipant
	}

	for _, id := range []string{in.HostID, in.ApplicantID} {
		if _, err := uc.Users.ResolveIdentity(ctx, id); err != nil {
			return nil, fmt.Errorf("resolving %q: %w", id, err)
		}
	}

	conv, err := uc.Repo.CreateConversation(ctx, in.HostID, in.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
