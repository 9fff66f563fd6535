package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The statements are valid for both Postgres and SQLite. NULL voter ids are
// distinct under UNIQUE in both, so only identified voters are limited to
// one vote per poll.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS polls (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		question   TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_polls_owner ON polls(owner_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS poll_options (
		poll_id  TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		text     TEXT NOT NULL,
		PRIMARY KEY (poll_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id           TEXT PRIMARY KEY,
		poll_id      TEXT NOT NULL REFERENCES polls(id),
		voter_id     TEXT,
		option_index INTEGER NOT NULL CHECK (option_index >= 0),
		created_at   TIMESTAMP NOT NULL,
		UNIQUE (poll_id, voter_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_poll ON votes(poll_id)`,
}

// Migrate creates missing tables. Safe to call on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
