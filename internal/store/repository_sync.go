package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

// syncRepository is the PostgreSQL-backed implementation of
// [SyncRepository]. Record versions are assigned from one per-user global
// sequence, which keeps versions comparable across tables and makes the
// summary check a single max() comparison.
type syncRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncRepository constructs a [SyncRepository] backed by the provided
// database connection and logger.
func NewSyncRepository(db *DB, logger *logger.Logger) SyncRepository {
	return &syncRepository{
		DB:     db,
		logger: logger,
	}
}

// UpsertBatch processes records one by one, each in its own transaction, so
// a single bad record (say, a foreign key violation) cannot poison the rest
// of the batch.
func (s *syncRepository) UpsertBatch(ctx context.Context, userID int64, table models.Table, records []models.WireRecord) (models.UpsertResponse, error) {
	log := logger.FromContext(ctx)

	response := models.UpsertResponse{
		SyncedIDs:   make([]string, 0, len(records)),
		ConflictIDs: make([]string, 0),
		ErrorMap:    make(map[string]string),
		NewVersions: make(map[string]int64, len(records)),
	}

	for _, rec := range records {
		newVersion, err := s.upsertOne(ctx, userID, table, rec)
		switch {
		case err == nil:
			response.SyncedIDs = append(response.SyncedIDs, rec.ID)
			response.NewVersions[rec.ID] = newVersion

		case errors.Is(err, ErrVersionRegression):
			response.ConflictIDs = append(response.ConflictIDs, rec.ID)

		case IsForeignKeyViolation(err) || IsUniqueViolation(err):
			log.Warn().
				Str("func", "syncRepository.UpsertBatch").
				Int64("user_id", userID).
				Str("table", table.String()).
				Str("record_id", rec.ID).
				Err(err).
				Msg("record rejected by database constraint")
			response.ErrorMap[rec.ID] = constraintMessage(err)

		default:
			log.Err(err).
				Str("func", "syncRepository.UpsertBatch").
				Int64("user_id", userID).
				Str("table", table.String()).
				Str("record_id", rec.ID).
				Msg("failed to upsert record")
			return models.UpsertResponse{}, err
		}
	}

	return response, nil
}

// upsertOne applies one record with the optimistic version check:
//
//   - unknown id: insert with a fresh sequence version;
//   - stored version equals submitted version and content is unchanged:
//     idempotent no-op, the stored version is returned as-is;
//   - stored version equals submitted version and content changed: accept
//     and assign a fresh sequence version;
//   - any other stored version: [ErrVersionRegression] (a conflict).
func (s *syncRepository) upsertOne(ctx context.Context, userID int64, table models.Table, rec models.WireRecord) (int64, error) {
	var newVersion int64

	err := s.withinTx(ctx, func(tx *sql.Tx) error {
		selectVersion, err := buildServerSelectVersion(table)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		var stored int64
		err = tx.QueryRowContext(ctx, selectVersion, userID, rec.ID).Scan(&stored)
		if errors.Is(err, sql.ErrNoRows) {
			newVersion, err = s.insertRecord(ctx, tx, userID, table, rec)
			return err
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrScanningRow, err)
		}

		if stored != rec.Version {
			return fmt.Errorf("%w (table=%s, id=%s, stored=%d, submitted=%d)",
				ErrVersionRegression, table, rec.ID, stored, rec.Version)
		}

		unchanged, err := s.sameContent(ctx, tx, userID, table, rec)
		if err != nil {
			return err
		}
		if unchanged {
			newVersion = stored
			return nil
		}

		newVersion, err = s.updateRecord(ctx, tx, userID, table, rec)
		return err
	})
	if err != nil {
		return 0, err
	}

	return newVersion, nil
}

func (s *syncRepository) insertRecord(ctx context.Context, tx *sql.Tx, userID int64, table models.Table, rec models.WireRecord) (int64, error) {
	query, err := buildServerInsert(table)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	args, err := payloadArgs(rec.Payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	args = append([]any{userID}, args...)
	args = append(args, nullableTime(rec.DeletedAt))

	var version int64
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return version, nil
}

func (s *syncRepository) updateRecord(ctx context.Context, tx *sql.Tx, userID int64, table models.Table, rec models.WireRecord) (int64, error) {
	query, err := buildServerUpdate(table)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	payload, err := payloadArgs(rec.Payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	// payloadArgs leads with the id column; the update binds it separately.
	args := append([]any{userID, rec.ID}, payload[1:]...)
	args = append(args, nullableTime(rec.DeletedAt))

	var version int64
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return version, nil
}

// constraintMessage renders a constraint violation for the response's error
// map, preferring the driver's message over the bare error chain.
func constraintMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	return err.Error()
}

// sameContent reports whether the stored record carries the same payload and
// tombstone state as the submitted one. Repeated pushes of an already-synced
// batch then resolve without burning sequence versions.
func (s *syncRepository) sameContent(ctx context.Context, tx *sql.Tx, userID int64, table models.Table, rec models.WireRecord) (bool, error) {
	query, err := buildServerSelectRow(table)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	stored, err := scanWireRecord(table, tx.QueryRowContext(ctx, query, userID, rec.ID))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if (stored.DeletedAt == nil) != (rec.DeletedAt == nil) {
		return false, nil
	}

	storedJSON, err := json.Marshal(stored.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal stored payload: %w", err)
	}
	submittedJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal submitted payload: %w", err)
	}

	return bytes.Equal(storedJSON, submittedJSON), nil
}

func (s *syncRepository) Changes(ctx context.Context, userID int64, table models.Table, sinceVersion int64, limit int) ([]models.WireRecord, error) {
	query, err := buildServerSelectChanges(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.queryWireRecords(ctx, table, "syncRepository.Changes", query, userID, sinceVersion, limit)
}

func (s *syncRepository) LatestVersion(ctx context.Context, userID int64) (int64, error) {
	log := logger.FromContext(ctx)

	var latest sql.NullInt64
	if err := s.DB.QueryRowContext(ctx, buildServerLatestVersion(), userID).Scan(&latest); err != nil {
		log.Err(err).
			Str("func", "syncRepository.LatestVersion").
			Int64("user_id", userID).
			Msg("failed to query latest version")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return latest.Int64, nil
}

func (s *syncRepository) Snapshot(ctx context.Context, userID int64, table models.Table, offset, limit int) ([]models.WireRecord, error) {
	query, err := buildServerSelectSnapshot(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.queryWireRecords(ctx, table, "syncRepository.Snapshot", query, userID, limit, offset)
}

func (s *syncRepository) FetchByIDs(ctx context.Context, userID int64, table models.Table, ids []string) ([]models.WireRecord, error) {
	if len(ids) == 0 {
		return []models.WireRecord{}, nil
	}

	query, err := buildServerSelectByIDs(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.queryWireRecords(ctx, table, "syncRepository.FetchByIDs", query, userID, ids)
}

func (s *syncRepository) queryWireRecords(ctx context.Context, table models.Table, caller, query string, args ...any) ([]models.WireRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Str("table", table.String()).
			Msg("failed to execute wire record query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.WireRecord, 0, 50)
	for rows.Next() {
		rec, scanErr := scanWireRecord(table, rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", caller).
				Str("table", table.String()).
				Msg("failed to scan wire record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Str("table", table.String()).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return records, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
