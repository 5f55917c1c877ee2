package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Statements are idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		username      VARCHAR(150) NOT NULL,
		name          VARCHAR(255) NOT NULL DEFAULT '',
		email         VARCHAR(255) NOT NULL,
		password_hash TEXT NOT NULL,
		role          VARCHAR(20) NOT NULL DEFAULT 'player',
		avatar_key    TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_username_key UNIQUE (username),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS stages (
		id         SERIAL PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		slug       VARCHAR(100) NOT NULL,
		deadline   TIMESTAMPTZ NOT NULL,
		public     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT stages_slug_key UNIQUE (slug)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id         SERIAL PRIMARY KEY,
		stage_id   INTEGER REFERENCES stages(id) ON DELETE SET NULL,
		kickoff_at TIMESTAMPTZ,
		home       CHAR(2) NOT NULL,
		away       CHAR(2) NOT NULL,
		goals_home SMALLINT CHECK (goals_home >= 0),
		goals_away SMALLINT CHECK (goals_away >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_stage_id ON matches (stage_id)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id         SERIAL PRIMARY KEY,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		match_id   INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		winner     VARCHAR(4) NOT NULL DEFAULT 'draw',
		goals_home SMALLINT NOT NULL DEFAULT 0 CHECK (goals_home >= 0),
		goals_away SMALLINT NOT NULL DEFAULT 0 CHECK (goals_away >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT bets_user_match_key UNIQUE (user_id, match_id)
	)`,
}

// Migrate creates the tables the repositories expect.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}
