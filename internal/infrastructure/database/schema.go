package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaDDL creates the tables the chat service owns. The users table is
// shared with the rest of the marketplace; it is created here only so the
// service can run standalone in development and tests.
const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS chat;

CREATE TABLE IF NOT EXISTS chat.users (
	id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	firstname       text NOT NULL DEFAULT '',
	lastname        text NOT NULL DEFAULT '',
	profile_picture text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chat.conversation (
	id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	host_id      uuid NOT NULL,
	applicant_id uuid NOT NULL,
	created_at   timestamptz NOT NULL DEFAULT now(),
	CHECK (host_id <> applicant_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS conversation_pair_idx
	ON chat.conversation (LEAST(host_id, applicant_id), GREATEST(host_id, applicant_id));

CREATE TABLE IF NOT EXISTS chat.message (
	id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	conversation_id uuid NOT NULL REFERENCES chat.conversation(id) ON DELETE CASCADE,
	sender_id       uuid NOT NULL,
	recipient_id    uuid NOT NULL,
	text            text NOT NULL DEFAULT '',
	file            text NOT NULL DEFAULT '',
	created_at      timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS message_conversation_idx
	ON chat.message (conversation_id, created_at);

CREATE TABLE IF NOT EXISTS chat.unread_marker (
	user_id    uuid NOT NULL,
	peer_id    uuid NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, peer_id)
);
`

// EnsureSchema applies the DDL above. Statements are idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}
