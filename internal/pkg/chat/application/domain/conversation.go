package chat

import "time"

// Conversation is a 1:1 thread between a listing host and an applicant. The
// role labels are cosmetic; messaging treats the pair as unordered, and at
// most one conversation exists per pair.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	Host      string    `db:"host_id" json:"host"`
	Applicant string    `db:"applicant_id" json:"applicant"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Has reports whether userID participates in the conversation.
func (c *Conversation) Has(userID string) bool {
	return userID != "" && (c.Host == userID || c.Applicant == userID)
}

// PeerOf returns the other participant, or "" if userID is not part of the
// conversation.
func (c *Conversation) PeerOf(userID string) string {
	switch userID {
	case c.Host:
		return c.Applicant
	case c.Applicant:
		return c.Host
	}
	return ""
}

// PairKey normalizes an unordered participant pair to a stable ordering, so
// (A,B) and (B,A) key the same conversation.
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
