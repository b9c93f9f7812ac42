package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is an immutable entry in a conversation. Text and File are
// individually optional but at least one must be present; a message may carry
// both.
type Message struct {
	ID        string    `db:"id" json:"id,omitempty"`
	Sender    string    `db:"sender_id" json:"sender"`
	Recipient string    `db:"recipient_id" json:"recipient"`
	Text      string    `db:"text" json:"text,omitempty"`
	File      string    `db:"file" json:"file,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt,omitempty"`
}

// NewMessage validates and normalizes m. The timestamp is left to the store;
// it is assigned at persistence time.
func NewMessage(m Message) (*Message, error) {
	if m.Sender == "" || m.Recipient == "" {
		return nil, ErrMissingParticipant
	}
	if m.Sender == m.Recipient {
		return nil, ErrSameParticipant
	}
	m.Text = strings.TrimSpace(m.Text)
	if m.Text == "" && m.File == "" {
		return nil, ErrEmptyMessage
	}
	return &m, nil
}

// wirePayload is the exact shape pushed over the live transport: identical to
// what the reliable path persisted, nothing more.
type wirePayload struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text,omitempty"`
	File      string `json:"file,omitempty"`
}

// Payload serializes the message for the live push path.
func (m *Message) Payload() ([]byte, error) {
	return json.Marshal(wirePayload{
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Text:      m.Text,
		File:      m.File,
	})
}
