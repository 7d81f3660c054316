// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/settleup/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			currency TEXT NOT NULL,
			created_by TEXT NOT NULL,
			created_at BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS group_members (
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			joined_at BIGINT NOT NULL,
			PRIMARY KEY (group_id, user_id)
		);
		CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			amount NUMERIC(14, 2) NOT NULL,
			created_by TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			deleted_at BIGINT
		);
		CREATE TABLE IF NOT EXISTS expense_payers (
			expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			amount_paid NUMERIC(14, 2) NOT NULL,
			PRIMARY KEY (expense_id, user_id)
		);
		CREATE TABLE IF NOT EXISTS expense_splits (
			expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			amount NUMERIC(14, 2) NOT NULL,
			PRIMARY KEY (expense_id, user_id)
		);
		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			from_user_id TEXT NOT NULL,
			to_user_id TEXT NOT NULL,
			amount NUMERIC(14, 2) NOT NULL,
			created_at BIGINT NOT NULL,
			created_by TEXT NOT NULL,
			note TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id);
		CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id);
		CREATE INDEX IF NOT EXISTS idx_payments_group_id ON payments(group_id);
	`)
	return err
}
