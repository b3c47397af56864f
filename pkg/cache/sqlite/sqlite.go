// Package sqlite backs the apimanager Cache capability with a SQLite file,
// giving cached responses durability across process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache stores cached responses in a SQLite database.
type Cache struct {
	db *sql.DB

	// MaxAge treats rows older than this as misses. Zero disables expiry.
	MaxAge time.Duration

	now func() time.Time
}

// New opens (or creates) the database at path and prepares the schema.
// WAL mode is enabled so concurrent readers do not block the writer.
func New(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	c := &Cache{db: db, now: time.Now}

	if err := c.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		value BLOB,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_created_at ON responses(created_at);
	`
	_, err := c.db.Exec(query)
	return err
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var createdAt time.Time
	err := c.db.QueryRowContext(ctx,
		"SELECT value, created_at FROM responses WHERE key = ?", key,
	).Scan(&value, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache row: %w", err)
	}
	if c.MaxAge > 0 && c.now().Sub(createdAt) > c.MaxAge {
		return nil, false, nil
	}
	return value, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO responses (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at
	`, key, value, c.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert cache row: %w", err)
	}
	return nil
}

// Prune deletes rows older than MaxAge. No-op when MaxAge is zero.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.MaxAge <= 0 {
		return 0, nil
	}
	cutoff := c.now().UTC().Add(-c.MaxAge)
	res, err := c.db.ExecContext(ctx, "DELETE FROM responses WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache rows: %w", err)
	}
	return res.RowsAffected()
}
