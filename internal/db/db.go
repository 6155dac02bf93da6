package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations runs database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS obligations (
			id UUID PRIMARY KEY,
			group_id UUID,
			person_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			direction TEXT NOT NULL,
			total_amount BIGINT NOT NULL,
			expected_per_cycle BIGINT,
			remaining_amount BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			note TEXT,
			transactions JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_obligations_status ON obligations(status);
		CREATE INDEX IF NOT EXISTS idx_obligations_person ON obligations(lower(person_name));
	`)
	return err
}
