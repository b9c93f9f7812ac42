package usecase

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
)

// DeleteChatInput wraps the conversation to remove. Used for test
// housekeeping; individual messages are never deleted.
type DeleteChatInput struct {
	ChatID string
}

type DeleteChatUseCase struct {
	Repo repository.ChatRepository
}

func NewDeleteChatUseCase(repo repository.ChatRepository) *DeleteChatUseCase {
	return &DeleteChatUseCase{Repo: repo}
}

func (uc *DeleteChatUseCase) Execute(ctx context.Context, in DeleteChatInput) error {
	if in.ChatID == "" {
		return fmt.Errorf("chatId is required")
	}
	if err := uc.Repo.DeleteConversation(ctx, in.ChatID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
