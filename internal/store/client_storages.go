package store

import (
	"context"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
)

// ClientStorages groups the daemon-side repositories into a single value
// that can be passed around the service layer.
type ClientStorages struct {
	// Records is the SQLite-backed repository for syncable records across
	// all tables.
	Records LocalRecordRepository

	// Metadata tracks per-table high-water marks and last errors.
	Metadata SyncMetadataRepository

	// Conflicts persists version conflicts awaiting a user decision.
	Conflicts ConflictRepository
}

// NewClientStorages initialises the daemon storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.MigrateLocal].
//  3. Constructs and returns a [ClientStorages] value wired to fresh
//     repositories sharing the one connection.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewClientStorages(cfg config.LocalDB, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.MigrateLocal(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &ClientStorages{
		Records:   NewLocalRecordRepository(db, logger),
		Metadata:  NewSyncMetadataRepository(db, logger),
		Conflicts: NewConflictRepository(db, logger),
	}, nil
}
