package usecase

import (
	"context"
	"fmt"

	chat "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/domain"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// UnreadMarkerInput names the recipient whose flag changes and the sender the
// flag points at.
type UnreadMarkerInput struct {
	RecipientID string
	SenderID    string
}

func (in UnreadMarkerInput) validate() error {
	if in.RecipientID == "" || in.SenderID == "" {
		return chat.ErrMissingParticipant
	}
	if in.RecipientID == in.SenderID {
		return chat.ErrSameParticipant
	}
	return nil
}

// MarkUnreadUseCase raises the unread flag for (recipient, sender).
type MarkUnreadUseCase struct {
	Users userrepo.UserDirectory
}

func NewMarkUnreadUseCase(users userrepo.UserDirectory) *MarkUnreadUseCase {
	return &MarkUnreadUseCase{Users: users}
}

func (uc *MarkUnreadUseCase) Execute(ctx context.Context, in UnreadMarkerInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	if _, err := uc.Users.ResolveIdentity(ctx, in.RecipientID); err != nil {
		return fmt.Errorf("resolving %q: %w", in.RecipientID, err)
	}
	if err := uc.Users.AddUnreadMarker(ctx, in.RecipientID, in.SenderID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// ClearUnreadUseCase removes the unread flag for (recipient, sender).
type ClearUnreadUseCase struct {
	Users userrepo.UserDirectory
}

func NewClearUnreadUseCase(users userrepo.UserDirectory) *ClearUnreadUseCase {
	return &ClearUnreadUseCase{Users: users}
}

func (uc *ClearUnreadUseCase) Execute(ctx context.Context, in UnreadMarkerInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	if err := uc.Users.RemoveUnreadMarker(ctx, in.RecipientID, in.SenderID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// ListUnreadUseCase returns the counterparty ids flagged unread for a user.
type ListUnreadUseCase struct {
	Users userrepo.UserDirectory
}

func NewListUnreadUseCase(users userrepo.UserDirectory) *ListUnreadUseCase {
	return &ListUnreadUseCase{Users: users}
}

func (uc *ListUnreadUseCase) Execute(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required")
	}
	peers, err := uc.Users.ListUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return peers, nil
}
