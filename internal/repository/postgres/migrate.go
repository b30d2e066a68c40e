package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full relational layout. Every statement is
// IF NOT EXISTS, so bootstrap can run on every startup regardless of
// which instance gets there first.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	user_name  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT now(),
	likes      INTEGER NOT NULL DEFAULT 0,
	dislikes   INTEGER NOT NULL DEFAULT 0,
	reports    INTEGER NOT NULL DEFAULT 0,
	tag        TEXT NOT NULL DEFAULT 'unprocessed'
);

CREATE TABLE IF NOT EXISTS replies (
	id         TEXT PRIMARY KEY,
	message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_messages_tag ON messages (tag);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_replies_message ON replies (message_id);
`

// Bootstrap creates the schema if it is not there yet. Runs before
// the server starts serving.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}
