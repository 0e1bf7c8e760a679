package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type conflictRepository struct {
	*DB
	logger *logger.Logger
}

// NewConflictRepository constructs the SQLite-backed [ConflictRepository].
func NewConflictRepository(db *DB, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{
		DB:     db,
		logger: logger,
	}
}

func (c *conflictRepository) SaveConflict(ctx context.Context, conflict models.Conflict) error {
	log := logger.FromContext(ctx)

	_, err := c.DB.ExecContext(ctx, saveSyncConflict,
		conflict.ID,
		conflict.Table,
		conflict.LocalVersion,
		conflict.ServerVersion,
		string(conflict.LocalPayload),
		string(conflict.ServerPayload),
		conflict.Reason,
		conflict.DetectedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.SaveConflict").
			Str("table", conflict.Table.String()).
			Str("record_id", conflict.ID).
			Msg("failed to upsert sync conflict")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (c *conflictRepository) ListConflicts(ctx context.Context) ([]models.Conflict, error) {
	log := logger.FromContext(ctx)

	rows, err := c.DB.QueryContext(ctx, listSyncConflicts)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.ListConflicts").
			Msg("failed to execute query for sync conflicts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var conflicts []models.Conflict
	for rows.Next() {
		conflict, scanErr := scanConflict(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		conflicts = append(conflicts, conflict)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return conflicts, nil
}

func (c *conflictRepository) GetConflict(ctx context.Context, id string) (models.Conflict, error) {
	log := logger.FromContext(ctx)

	conflict, err := scanConflict(c.DB.QueryRowContext(ctx, getSyncConflict, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Conflict{}, fmt.Errorf("%w (id=%s)", ErrConflictNotFound, id)
		}
		log.Err(err).
			Str("func", "conflictRepository.GetConflict").
			Str("record_id", id).
			Msg("failed to scan sync conflict row")
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return conflict, nil
}

func (c *conflictRepository) DeleteConflict(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	result, err := c.DB.ExecContext(ctx, deleteSyncConflict, id)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.DeleteConflict").
			Str("record_id", id).
			Msg("failed to delete sync conflict")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w (id=%s)", ErrConflictNotFound, id)
	}

	return nil
}

func scanConflict(row rowScanner) (models.Conflict, error) {
	var conflict models.Conflict
	var localPayload, serverPayload string

	err := row.Scan(
		&conflict.ID,
		&conflict.Table,
		&conflict.LocalVersion,
		&conflict.ServerVersion,
		&localPayload,
		&serverPayload,
		&conflict.Reason,
		&conflict.DetectedAt,
	)
	if err != nil {
		return models.Conflict{}, err
	}

	conflict.LocalPayload = []byte(localPayload)
	conflict.ServerPayload = []byte(serverPayload)

	return conflict, nil
}
