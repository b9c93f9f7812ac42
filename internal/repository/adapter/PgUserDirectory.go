package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// PgUserDirectory backs the user directory with the marketplace users table
// and a dedicated unread-marker table.
type PgUserDirectory struct {
	pool *pgxpool.Pool
}

func NewPgUserDirectory(pool *pgxpool.Pool) *PgUserDirectory {
	return &PgUserDirectory{pool: pool}
}

var _ repository.UserDirectory = (*PgUserDirectory)(nil)

func (d *PgUserDirectory) ResolveIdentity(ctx context.Context, userID string) (*repository.Identity, error) {
	if d == nil || d.pool == nil {
		return nil, errors.New("PgUserDirectory: nil pool")
	}
	var id repository.Identity
	err := d.pool.QueryRow(ctx, `
		SELECT id::text, firstname, lastname, profile_picture
		FROM chat.users
		WHERE id = $1::uuid
	`, userID).Scan(&id.ID, &id.Firstname, &id.Lastname, &id.ProfilePicture)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (d *PgUserDirectory) AddUnreadMarker(ctx context.Context, recipientID, senderID string) error {
	if d == nil || d.pool == nil {
		return errors.New("PgUserDirectory: nil pool")
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO chat.unread_marker (user_id, peer_id)
		VALUES ($1::uuid, $2::uuid)
		ON CONFLICT (user_id, peer_id) DO NOTHING
	`, recipientID, senderID)
	return err
}

func (d *PgUserDirectory) RemoveUnreadMarker(ctx context.Context, recipientID, senderID string) error {
	if d == nil || d.pool == nil {
		return errors.New("PgUserDirectory: nil pool")
	}
	_, err := d.pool.Exec(ctx, `
		DELETE FROM chat.unread_marker
		WHERE user_id = $1::uuid AND peer_id = $2::uuid
	`, recipientID, senderID)
	return err
}

func (d *PgUserDirectory) ListUnread(ctx context.Context, userID string) ([]string, error) {
	if d == nil || d.pool == nil {
		return nil, errors.New("PgUserDirectory: nil pool")
	}
	rows, err := d.pool.Query(ctx, `
		SELECT peer_id::text
		FROM chat.unread_marker
		WHERE user_id = $1::uuid
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peers []string
	for rows.Next() {
		var peer string
		if err := rows.Scan(&peer); err != nil {
			return nil, err
		}
		peers = append(peers, peer)
	}
	return peers, rows.Err()
}
