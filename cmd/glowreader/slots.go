package main

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/glowreader/internal/config"
	"github.com/bryanwahyu/glowreader/internal/domain/history"
	"github.com/bryanwahyu/glowreader/internal/infra/db/mysql"
	"github.com/bryanwahyu/glowreader/internal/infra/db/postgres"
	"github.com/bryanwahyu/glowreader/internal/infra/db/sqlite"
	"github.com/bryanwahyu/glowreader/internal/infra/slot/memory"
)

// openSlot picks the history backend from config. The returned func closes it.
func openSlot(ctx context.Context, cfg *config.Config) (history.Slot, func() error, error) {
	switch cfg.History.Backend {
	case config.SlotMemory:
		return memory.New(), nil, nil

	case config.SlotMySQL:
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo := mysql.NewSlotRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return repo, db.Close, nil

	case config.SlotPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		repo := postgres.NewSlotRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return repo, db.Close, nil

	case config.SlotSQLite, "":
		repo, err := sqlite.Open(ctx, cfg.HistoryPath())
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		return repo, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}
