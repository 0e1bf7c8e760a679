package store

import (
	"context"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
)

// Storages groups the server-side repositories.
type Storages struct {
	// Sync is the Postgres-backed repository serving the sync endpoints.
	Sync SyncRepository
}

// NewStorages opens the server database, applies pending migrations and
// wires the repositories.
func NewStorages(cfg config.DB, logger *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.MigrateServer(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Sync: NewSyncRepository(db, logger),
	}, nil
}
