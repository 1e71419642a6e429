package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SlotRepository stores named history slots in the shared history_slots table.
type SlotRepository struct {
	db *sql.DB
}

func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Migrate creates history_slots when missing.
func (r *SlotRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS history_slots (
  name VARCHAR(191) NOT NULL PRIMARY KEY,
  payload LONGTEXT NOT NULL,
  updated_at DATETIME(3) NOT NULL
) DEFAULT CHARSET=utf8mb4;
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Load returns nil, nil when the slot was never written
func (r *SlotRepository) Load(ctx context.Context, name string) ([]byte, error) {
	const q = `SELECT payload FROM history_slots WHERE name=?;`
	var payload string
	err := r.db.QueryRowContext(ctx, q, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// Save upserts the whole slot
func (r *SlotRepository) Save(ctx context.Context, name string, payload []byte) error {
	const q = `
INSERT INTO history_slots (name, payload, updated_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE
  payload=VALUES(payload), updated_at=VALUES(updated_at);
`
	_, err := r.db.ExecContext(ctx, q, name, string(payload), time.Now().UTC())
	return err
}

func (r *SlotRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history_slots WHERE name=?;`, name)
	return err
}
