package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type localRecordRepository struct {
	*DB
	logger *logger.Logger
}

// NewLocalRecordRepository constructs the SQLite-backed [LocalRecordRepository].
func NewLocalRecordRepository(db *DB, logger *logger.Logger) LocalRecordRepository {
	return &localRecordRepository{
		DB:     db,
		logger: logger,
	}
}

func (l *localRecordRepository) SaveRecords(ctx context.Context, records ...models.Record) error {
	log := logger.FromContext(ctx)

	for _, rec := range records {
		query, err := buildLocalUpsert(rec.Table)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		args, err := recordArgs(rec)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		if _, err = l.DB.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).
				Str("func", "localRecordRepository.SaveRecords").
				Str("table", rec.Table.String()).
				Str("record_id", rec.ID).
				Msg("failed to execute upsert for record")
			return fmt.Errorf("failed to save record (table=%s, id=%s): %w", rec.Table, rec.ID, err)
		}
	}

	return nil
}

func (l *localRecordRepository) GetRecord(ctx context.Context, table models.Table, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	base, err := buildLocalSelect(table)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	row := l.DB.QueryRowContext(ctx, base+" WHERE id = ?;", id)
	rec, err := scanLocalRecord(table, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, fmt.Errorf("%w (table=%s, id=%s)", ErrRecordNotFound, table, id)
		}
		log.Err(err).
			Str("func", "localRecordRepository.GetRecord").
			Str("table", table.String()).
			Str("record_id", id).
			Msg("failed to scan record row")
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return rec, nil
}

func (l *localRecordRepository) GetPendingRecords(ctx context.Context, table models.Table, tombstoned bool) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	cols, err := payloadColumns(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	all := append(append([]string{}, cols...), localEnvelopeColumns...)

	qb := sq.Select(all...).
		From(table.String()).
		Where(sq.Eq{"sync_status": models.StatusPending}).
		OrderBy("updated_at")
	if tombstoned {
		qb = qb.Where(sq.NotEq{"deleted_at": nil})
	} else {
		qb = qb.Where(sq.Eq{"deleted_at": nil})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := l.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.GetPendingRecords").
			Str("table", table.String()).
			Bool("tombstoned", tombstoned).
			Msg("failed to execute query for pending records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		rec, scanErr := scanLocalRecord(table, rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "localRecordRepository.GetPendingRecords").
				Str("table", table.String()).
				Msg("failed to scan pending record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "localRecordRepository.GetPendingRecords").
			Str("table", table.String()).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return records, nil
}

func (l *localRecordRepository) ApplyPushOutcome(ctx context.Context, table models.Table, outcome PushOutcome) error {
	log := logger.FromContext(ctx)

	err := l.withinTx(ctx, func(tx *sql.Tx) error {
		markSynced := fmt.Sprintf(
			`UPDATE %s SET version = ?, sync_status = ? WHERE id = ? AND version <= ?;`, table)
		for id, version := range outcome.Synced {
			if _, execErr := tx.ExecContext(ctx, markSynced, version, models.StatusSynced, id, version); execErr != nil {
				return fmt.Errorf("%w: mark synced (id=%s): %w", ErrExecutingStatement, id, execErr)
			}
		}

		markConflict := fmt.Sprintf(`UPDATE %s SET sync_status = ? WHERE id = ?;`, table)
		for _, conflict := range outcome.Conflicts {
			if _, execErr := tx.ExecContext(ctx, markConflict, models.StatusConflict, conflict.ID); execErr != nil {
				return fmt.Errorf("%w: mark conflict (id=%s): %w", ErrExecutingStatement, conflict.ID, execErr)
			}

			if _, execErr := tx.ExecContext(ctx, saveSyncConflict,
				conflict.ID,
				conflict.Table,
				conflict.LocalVersion,
				conflict.ServerVersion,
				string(conflict.LocalPayload),
				string(conflict.ServerPayload),
				conflict.Reason,
				conflict.DetectedAt,
			); execErr != nil {
				return fmt.Errorf("%w: save conflict (id=%s): %w", ErrExecutingStatement, conflict.ID, execErr)
			}
		}

		return nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.ApplyPushOutcome").
			Str("table", table.String()).
			Int("synced", len(outcome.Synced)).
			Int("conflicts", len(outcome.Conflicts)).
			Msg("failed to apply push outcome")
		return err
	}

	return nil
}

func (l *localRecordRepository) ApplyPullPage(ctx context.Context, table models.Table, records []models.Record, highWaterMark int64) error {
	log := logger.FromContext(ctx)

	upsert, err := buildLocalUpsert(table)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = l.withinTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			args, argsErr := recordArgs(rec)
			if argsErr != nil {
				return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, argsErr)
			}
			if _, execErr := tx.ExecContext(ctx, upsert, args...); execErr != nil {
				return fmt.Errorf("%w: apply pulled record (id=%s): %w", ErrExecutingStatement, rec.ID, execErr)
			}
		}

		if _, execErr := tx.ExecContext(ctx, upsertSyncMetadata, table, highWaterMark, ""); execErr != nil {
			return fmt.Errorf("%w: advance high-water mark: %w", ErrExecutingStatement, execErr)
		}

		return nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.ApplyPullPage").
			Str("table", table.String()).
			Int("records", len(records)).
			Int64("high_water_mark", highWaterMark).
			Msg("failed to apply pull page")
		return err
	}

	return nil
}

func (l *localRecordRepository) UpdateRecordFields(ctx context.Context, table models.Table, id string, fields map[string]any) error {
	log := logger.FromContext(ctx)

	if len(fields) == 0 {
		return fmt.Errorf("%w: empty field update", ErrBuildingSQLQuery)
	}
	if err := validateFieldNames(table, fields); err != nil {
		return err
	}

	query, args, err := sq.Update(table.String()).
		SetMap(fields).
		Set("sync_status", models.StatusPending).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := l.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.UpdateRecordFields").
			Str("table", table.String()).
			Str("record_id", id).
			Msg("failed to execute partial update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w (table=%s, id=%s)", ErrRecordNotFound, table, id)
	}

	return nil
}

func (l *localRecordRepository) SetRecordStatus(ctx context.Context, table models.Table, id string, status models.SyncStatus) error {
	log := logger.FromContext(ctx)

	query := fmt.Sprintf(`UPDATE %s SET sync_status = ? WHERE id = ?;`, table)
	result, err := l.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.SetRecordStatus").
			Str("table", table.String()).
			Str("record_id", id).
			Msg("failed to execute status update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w (table=%s, id=%s)", ErrRecordNotFound, table, id)
	}

	return nil
}

func (l *localRecordRepository) SoftDeleteRecord(ctx context.Context, table models.Table, id string) error {
	log := logger.FromContext(ctx)

	query := fmt.Sprintf(
		`UPDATE %s SET deleted_at = ?, sync_status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL;`, table)
	now := time.Now().UTC()

	result, err := l.DB.ExecContext(ctx, query, now, models.StatusPending, now, id)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.SoftDeleteRecord").
			Str("table", table.String()).
			Str("record_id", id).
			Msg("failed to execute soft delete")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w (table=%s, id=%s)", ErrRecordNotFound, table, id)
	}

	return nil
}

func (l *localRecordRepository) HardDeleteRecord(ctx context.Context, table models.Table, id string) error {
	log := logger.FromContext(ctx)

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`, table)
	if _, err := l.DB.ExecContext(ctx, query, id); err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.HardDeleteRecord").
			Str("table", table.String()).
			Str("record_id", id).
			Msg("failed to execute hard delete")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (l *localRecordRepository) CountActiveRecords(ctx context.Context, table models.Table) (int, error) {
	if !table.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL;`, table)

	var count int
	if err := l.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func (l *localRecordRepository) PruneTombstones(ctx context.Context, table models.Table, olderThan time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	query := fmt.Sprintf(
		`DELETE FROM %s WHERE deleted_at IS NOT NULL AND sync_status = ? AND deleted_at < ?;`, table)

	result, err := l.DB.ExecContext(ctx, query, models.StatusSynced, olderThan)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.PruneTombstones").
			Str("table", table.String()).
			Msg("failed to execute tombstone prune")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return pruned, nil
}

func (l *localRecordRepository) ClearTable(ctx context.Context, table models.Table) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	query := fmt.Sprintf(`DELETE FROM %s;`, table)
	if _, err := l.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// recordArgs binds a full record (payload plus local envelope) for the
// buildLocalUpsert statement.
func recordArgs(rec models.Record) ([]any, error) {
	if rec.Payload == nil {
		return nil, fmt.Errorf("record %s/%s has no payload", rec.Table, rec.ID)
	}

	args, err := payloadArgs(rec.Payload)
	if err != nil {
		return nil, err
	}

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var deletedAt any
	if rec.DeletedAt != nil {
		deletedAt = *rec.DeletedAt
	}

	return append(args, rec.Version, deletedAt, rec.Status, updatedAt), nil
}

// validateFieldNames rejects partial updates naming columns outside the
// table's payload, or the id itself.
func validateFieldNames(table models.Table, fields map[string]any) error {
	cols, err := payloadColumns(table)
	if err != nil {
		return err
	}

	allowed := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		if col == "id" {
			continue
		}
		allowed[col] = struct{}{}
	}

	for name := range fields {
		if _, ok := allowed[name]; !ok {
			return fmt.Errorf("%w: column %q is not updatable on table %s", ErrBuildingSQLQuery, name, table)
		}
	}

	return nil
}
