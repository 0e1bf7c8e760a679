package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type syncMetadataRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncMetadataRepository constructs the SQLite-backed
// [SyncMetadataRepository].
func NewSyncMetadataRepository(db *DB, logger *logger.Logger) SyncMetadataRepository {
	return &syncMetadataRepository{
		DB:     db,
		logger: logger,
	}
}

func (s *syncMetadataRepository) GetMetadata(ctx context.Context, table models.Table) (models.SyncMetadata, error) {
	log := logger.FromContext(ctx)

	var meta models.SyncMetadata
	err := s.DB.QueryRowContext(ctx, getSyncMetadata, table).
		Scan(&meta.Table, &meta.LastSyncedVersion, &meta.LastError, &meta.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncMetadata{}, fmt.Errorf("%w (table=%s)", ErrMetadataNotFound, table)
		}
		log.Err(err).
			Str("func", "syncMetadataRepository.GetMetadata").
			Str("table", table.String()).
			Msg("failed to scan sync metadata row")
		return models.SyncMetadata{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return meta, nil
}

func (s *syncMetadataRepository) GetAllMetadata(ctx context.Context) ([]models.SyncMetadata, error) {
	log := logger.FromContext(ctx)

	rows, err := s.DB.QueryContext(ctx, getAllSyncMetadata)
	if err != nil {
		log.Err(err).
			Str("func", "syncMetadataRepository.GetAllMetadata").
			Msg("failed to execute query for all sync metadata")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var metas []models.SyncMetadata
	for rows.Next() {
		var meta models.SyncMetadata
		if scanErr := rows.Scan(&meta.Table, &meta.LastSyncedVersion, &meta.LastError, &meta.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		metas = append(metas, meta)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return metas, nil
}

func (s *syncMetadataRepository) SaveMetadata(ctx context.Context, meta models.SyncMetadata) error {
	log := logger.FromContext(ctx)

	if _, err := s.DB.ExecContext(ctx, upsertSyncMetadata, meta.Table, meta.LastSyncedVersion, meta.LastError); err != nil {
		log.Err(err).
			Str("func", "syncMetadataRepository.SaveMetadata").
			Str("table", meta.Table.String()).
			Int64("last_synced_version", meta.LastSyncedVersion).
			Msg("failed to upsert sync metadata")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *syncMetadataRepository) SetLastError(ctx context.Context, table models.Table, message string) error {
	log := logger.FromContext(ctx)

	result, err := s.DB.ExecContext(ctx, setSyncMetadataError, message, table)
	if err != nil {
		log.Err(err).
			Str("func", "syncMetadataRepository.SetLastError").
			Str("table", table.String()).
			Msg("failed to update sync metadata error")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (table=%s): %w", table, err)
	}
	if affected == 0 {
		// First error before any successful sync of the table: create the
		// row at version zero.
		if _, err = s.DB.ExecContext(ctx, upsertSyncMetadata, table, int64(0), message); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

func (s *syncMetadataRepository) CountMetadata(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, countSyncMetadata).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func (s *syncMetadataRepository) ClearMetadata(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, clearSyncMetadata); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
