package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

func newTestMetadataRepo(t *testing.T, db *sql.DB) SyncMetadataRepository {
	t.Helper()
	return NewSyncMetadataRepository(newDBFromSQL(db), logger.Nop())
}

var metadataColumns = []string{"table_name", "last_synced_version", "last_error", "updated_at"}

func TestGetMetadata(t *testing.T) {
	updated := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestMetadataRepo(t, db)

		mock.ExpectQuery(`SELECT table_name, last_synced_version, last_error, updated_at\s+FROM sync_metadata\s+WHERE table_name = \?`).
			WithArgs(models.TableAccounts).
			WillReturnRows(sqlmock.NewRows(metadataColumns).
				AddRow("accounts", int64(42), "", updated))

		meta, err := repo.GetMetadata(testContext(), models.TableAccounts)
		require.NoError(t, err)
		assert.Equal(t, models.TableAccounts, meta.Table)
		assert.Equal(t, int64(42), meta.LastSyncedVersion)
		assert.Empty(t, meta.LastError)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestMetadataRepo(t, db)

		mock.ExpectQuery(`SELECT table_name, last_synced_version`).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetMetadata(testContext(), models.TableAccounts)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMetadataNotFound)
	})
}

func TestGetAllMetadata(t *testing.T) {
	updated := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	db, mock := newTestDB(t)
	repo := newTestMetadataRepo(t, db)

	mock.ExpectQuery(`SELECT table_name, last_synced_version, last_error, updated_at\s+FROM sync_metadata\s+ORDER BY table_name`).
		WillReturnRows(sqlmock.NewRows(metadataColumns).
			AddRow("accounts", int64(42), "", updated).
			AddRow("transactions", int64(40), "timeout", updated))

	metas, err := repo.GetAllMetadata(testContext())
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, models.TableAccounts, metas[0].Table)
	assert.Equal(t, "timeout", metas[1].LastError)
}

func TestSaveMetadata(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestMetadataRepo(t, db)

	mock.ExpectExec(`INSERT INTO sync_metadata`).
		WithArgs(models.TableBudgets, int64(17), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveMetadata(testContext(), models.SyncMetadata{
		Table:             models.TableBudgets,
		LastSyncedVersion: 17,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetLastError(t *testing.T) {
	t.Run("updates existing row", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestMetadataRepo(t, db)

		mock.ExpectExec(`UPDATE sync_metadata\s+SET last_error = \?`).
			WithArgs("connection refused", models.TableAccounts).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetLastError(testContext(), models.TableAccounts, "connection refused")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates row when table never synced", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestMetadataRepo(t, db)

		mock.ExpectExec(`UPDATE sync_metadata\s+SET last_error = \?`).
			WithArgs("connection refused", models.TableAccounts).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO sync_metadata`).
			WithArgs(models.TableAccounts, int64(0), "connection refused").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetLastError(testContext(), models.TableAccounts, "connection refused")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("statement error", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestMetadataRepo(t, db)

		mock.ExpectExec(`UPDATE sync_metadata`).
			WillReturnError(errors.New("database is locked"))

		err := repo.SetLastError(testContext(), models.TableAccounts, "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExecutingStatement)
	})
}

func TestCountMetadata(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestMetadataRepo(t, db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sync_metadata`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountMetadata(testContext())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
