package chat

import "errors"

// Domain-level errors for chat behaviors.
var (
	ErrMissingParticipant = errors.New("chat: sender and recipient are required")
	ErrSameParticipant    = errors.New("chat: sender and recipient must be different users")
	ErrEmptyMessage       = errors.New("chat: empty message (no text or file)")
	ErrNotParticipant     = errors.New("chat: user is not a participant in this conversation")
)
