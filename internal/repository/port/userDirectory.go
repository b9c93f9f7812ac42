package repository

import (
	"context"
	"errors"
)

// ErrUnknownUser reports an identity that does not resolve.
var ErrUnknownUser = errors.New("user directory: unknown user")

// Identity is the display identity of a marketplace user. User lifecycle is
// owned elsewhere; the chat core only resolves and annotates.
type Identity struct {
	ID             string `json:"id"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	ProfilePicture string `json:"profilePicture"`
}

// UserDirectory resolves user ids to display identities and keeps the
// per-user unread markers: the set of counterparty ids with unacknowledged
// messages. The marker is a denormalized notification flag, not a read
// receipt.
type UserDirectory interface {
	ResolveIdentity(ctx context.Context, userID string) (*Identity, error)

	// AddUnreadMarker flags senderID as unread for recipientID. Idempotent.
	AddUnreadMarker(ctx context.Context, recipientID, senderID string) error

	// RemoveUnreadMarker clears the flag. Removing an absent flag is not an
	// error.
	RemoveUnreadMarker(ctx context.Context, recipientID, senderID string) error

	// ListUnread returns the counterparty ids currently flagged for userID.
	ListUnread(ctx context.Context, userID string) ([]string, error)
}
