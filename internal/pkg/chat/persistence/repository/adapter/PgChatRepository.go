package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/domain"
	repository "github.com/TheTrueVester/leasy-chat/internal/pkg/chat/persistence/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

// CreateConversation inserts a conversation for the pair unless one already
// exists in either orientation. The unique index on the normalized pair plus
// a re-select after DO NOTHING make this race-safe without advisory locks.
func (r *PgChatRepository) CreateConversation(ctx context.Context, hostID, applicantID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	if conv, err := r.findByPair(ctx, hostID, applicantID); err == nil {
		return conv, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var conv chat.Conversation
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (host_id, applicant_id)
		VALUES ($1::uuid, $2::uuid)
		ON CONFLICT DO NOTHING
		RETURNING id::text, host_id::text, applicant_id::text, created_at
	`, hostID, applicantID).Scan(&conv.ID, &conv.Host, &conv.Applicant, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race; the winner's row is there now.
		return r.findByPair(ctx, hostID, applicantID)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *PgChatRepository) findByPair(ctx context.Context, a, b string) (*chat.Conversation, error) {
	var conv chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, host_id::text, applicant_id::text, created_at
		FROM chat.conversation
		WHERE (host_id = $1::uuid AND applicant_id = $2::uuid)
		   OR (host_id = $2::uuid AND applicant_id = $1::uuid)
	`, a, b).Scan(&conv.ID, &conv.Host, &conv.Applicant, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var conv chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, host_id::text, applicant_id::text, created_at
		FROM chat.conversation
		WHERE id = $1::uuid
	`, id).Scan(&conv.ID, &conv.Host, &conv.Applicant, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *PgChatRepository) FindConversationsByParticipant(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, host_id::text, applicant_id::text, created_at
		FROM chat.conversation
		WHERE host_id = $1::uuid OR applicant_id = $1::uuid
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		var conv chat.Conversation
		if err := rows.Scan(&conv.ID, &conv.Host, &conv.Applicant, &conv.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *PgChatRepository) DeleteConversation(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM chat.conversation WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) AppendMessage(ctx context.Context, conversationID string, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	stored := m
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, sender_id, recipient_id, text, file)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5)
		RETURNING id::text, created_at
	`, conversationID, m.Sender, m.Recipient, m.Text, m.File).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, sender_id::text, recipient_id::text, text, file, created_at
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Recipient, &msg.Text, &msg.File, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
