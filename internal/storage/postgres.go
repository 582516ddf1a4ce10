package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists records in a Postgres table, for deployments that
// keep wizard sessions on a shared database instead of on-device.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle. Run the migrations in
// storage/migrations before first use.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("storage: db handle is required")
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM wizard_state WHERE key = $1`

	var raw []byte
	err := p.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: select %q: %w", key, err)
	}
	return raw, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO wizard_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("storage: upsert %q: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Clear(ctx context.Context, key string) error {
	const query = `DELETE FROM wizard_state WHERE key = $1`

	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}
