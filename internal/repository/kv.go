// Package repository provides persistence implementations backed by an
// on-device SQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/AgriVision/internal/kv"
)

var _ kv.Store = (*SQLKVRepository)(nil)

// SQLKVRepository implements kv.Store on top of the kv table.
type SQLKVRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// now returns the write timestamp; replaced in tests.
	now func() time.Time
}

// NewSQLKVRepository creates a new SQLKVRepository with the given database connection.
// db must be a valid *sql.DB whose schema was created by db.InitSQLite.
func NewSQLKVRepository(db *sql.DB) *SQLKVRepository {
	return &SQLKVRepository{DB: db, now: time.Now}
}

// Get returns the value stored under key.
// It returns kv.ErrNotFound when the key has no row.
func (r *SQLKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT value FROM kv WHERE key = ?`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set inserts the value under key, replacing any existing row.
// The row's updated_at is set to the current Unix time in milliseconds.
func (r *SQLKVRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, r.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes the row for key. Removing a missing key is not an error.
func (r *SQLKVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`DELETE FROM kv WHERE key = ?`,
		key,
	)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
