// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/datatypes"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	subject_id       TEXT PRIMARY KEY,
	email            TEXT NOT NULL DEFAULT '',
	tokens_remaining INT  NOT NULL DEFAULT 5 CHECK (tokens_remaining >= 0),
	streak_count     INT  NOT NULL DEFAULT 0,
	last_activity_at TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS history_entries (
	id         UUID PRIMARY KEY,
	subject_id TEXT NOT NULL REFERENCES users(subject_id),
	title      TEXT NOT NULL,
	type       TEXT NOT NULL,
	image_url  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_history_subject_created
	ON history_entries (subject_id, created_at DESC);
`

const userColumns = `subject_id, email, tokens_remaining, streak_count, last_activity_at, created_at, updated_at`

// PostgresStore implements Store on a relational backend.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects using DATABASE_URL and ensures the schema.
func NewPostgresStore(ctx context.Context) (*PostgresStore, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	slog.Info("Connected to Postgres")
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection. Used by tests.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetOrCreate implements UserStore. The insert-then-select shape keeps
// the upsert idempotent without an application-level existence check.
func (s *PostgresStore) GetOrCreate(ctx context.Context, subjectID, email string) (*datatypes.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (subject_id, email, tokens_remaining, streak_count)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (subject_id) DO NOTHING;
	`, subjectID, email, datatypes.DefaultTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var user datatypes.User
	err = s.db.GetContext(ctx, &user, `
		SELECT `+userColumns+`
		FROM users
		WHERE subject_id = $1;
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// DecrementTokens implements UserStore. The WHERE clause is the whole
// point: the balance can never go negative, no matter how many requests
// race on the last token.
func (s *PostgresStore) DecrementTokens(ctx context.Context, subjectID string) (*datatypes.User, error) {
	var user datatypes.User
	err := s.db.GetContext(ctx, &user, `
		UPDATE users
		SET tokens_remaining = tokens_remaining - 1,
		    last_activity_at = now(),
		    updated_at = now()
		WHERE subject_id = $1 AND tokens_remaining > 0
		RETURNING `+userColumns+`;
	`, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInsufficientTokens
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decrement tokens: %w", err)
	}
	return &user, nil
}

// SetTokens implements UserStore.
func (s *PostgresStore) SetTokens(ctx context.Context, subjectID string, value int) (*datatypes.User, error) {
	if value < 0 {
		return nil, fmt.Errorf("token balance cannot be negative: %d", value)
	}
	var user datatypes.User
	err := s.db.GetContext(ctx, &user, `
		UPDATE users
		SET tokens_remaining = $2,
		    updated_at = now()
		WHERE subject_id = $1
		RETURNING `+userColumns+`;
	`, subjectID, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s not found", subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set tokens: %w", err)
	}
	return &user, nil
}

// Append implements HistoryLog.
func (s *PostgresStore) Append(ctx context.Context, entry *datatypes.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_entries (id, subject_id, title, type, image_url)
		VALUES ($1, $2, $3, $4, $5);
	`, entry.ID, entry.SubjectID, entry.Title, entry.Type, entry.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Recent implements HistoryLog.
func (s *PostgresStore) Recent(ctx context.Context, subjectID string, limit int) ([]datatypes.HistoryEntry, error) {
	entries := []datatypes.HistoryEntry{}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, subject_id, title, type, image_url, created_at
		FROM history_entries
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// CommitGeneration implements Store. History insert and quota decrement
// share one transaction; if the decrement finds no spendable token the
// insert is rolled back too.
func (s *PostgresStore) CommitGeneration(ctx context.Context, entry *datatypes.HistoryEntry) (*datatypes.User, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history_entries (id, subject_id, title, type, image_url)
		VALUES ($1, $2, $3, $4, $5);
	`, entry.ID, entry.SubjectID, entry.Title, entry.Type, entry.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to append history entry: %w", err)
	}

	var user datatypes.User
	err = tx.GetContext(ctx, &user, `
		UPDATE users
		SET tokens_remaining = tokens_remaining - 1,
		    last_activity_at = now(),
		    updated_at = now()
		WHERE subject_id = $1 AND tokens_remaining > 0
		RETURNING `+userColumns+`;
	`, entry.SubjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInsufficientTokens
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decrement tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit generation: %w", err)
	}
	return &user, nil
}
