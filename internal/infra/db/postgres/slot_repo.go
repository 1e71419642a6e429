package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SlotRepository struct {
	db *sql.DB
}

func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS history_slots (
  name TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *SlotRepository) Load(ctx context.Context, name string) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM history_slots WHERE name=$1;`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// Save inserts or replaces the slot payload
func (r *SlotRepository) Save(ctx context.Context, name string, payload []byte) error {
	const q = `
INSERT INTO history_slots (name, payload, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (name) DO UPDATE SET
  payload=EXCLUDED.payload,
  updated_at=EXCLUDED.updated_at;
`
	_, err := r.db.ExecContext(ctx, q, name, string(payload), time.Now().UTC())
	return err
}

func (r *SlotRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history_slots WHERE name=$1;`, name)
	return err
}
