// Package sqlite keeps the client-local history slot in a single-file database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SlotRepository struct {
	db   *sql.DB
	path string
}

// Open creates the directory and file when missing and migrates the schema.
func Open(ctx context.Context, path string) (*SlotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; the CLI never needs more
	db.SetMaxOpenConns(1)

	r := &SlotRepository{db: db, path: path}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return r, nil
}

func (r *SlotRepository) migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS history_slots (
  name TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *SlotRepository) Path() string { return r.path }

func (r *SlotRepository) Close() error { return r.db.Close() }

func (r *SlotRepository) Load(ctx context.Context, name string) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM history_slots WHERE name=?;`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (r *SlotRepository) Save(ctx context.Context, name string, payload []byte) error {
	const q = `
INSERT INTO history_slots (name, payload, updated_at)
VALUES (?,?,?)
ON CONFLICT(name) DO UPDATE SET
  payload=excluded.payload,
  updated_at=excluded.updated_at;
`
	_, err := r.db.ExecContext(ctx, q, name, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (r *SlotRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history_slots WHERE name=?;`, name)
	return err
}
