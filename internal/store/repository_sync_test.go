package store

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

func newTestSyncRepo(t *testing.T, db *sql.DB) SyncRepository {
	t.Helper()
	return NewSyncRepository(newDBFromSQL(db), logger.Nop())
}

var currencyWireColumns = []string{
	"id", "code", "name", "symbol", "decimal_digits", "version", "deleted_at",
}

func currencyRecord(version int64) models.WireRecord {
	return models.WireRecord{
		ID:      "cur-eur",
		Version: version,
		Payload: models.Currency{
			ID:            "cur-eur",
			Code:          "EUR",
			Name:          "Euro",
			Symbol:        "€",
			DecimalDigits: 2,
		},
	}
}

func TestUpsertBatch(t *testing.T) {
	selectVersion, err := buildServerSelectVersion(models.TableCurrencies)
	require.NoError(t, err)
	insert, err := buildServerInsert(models.TableCurrencies)
	require.NoError(t, err)
	update, err := buildServerUpdate(models.TableCurrencies)
	require.NoError(t, err)
	selectRow, err := buildServerSelectRow(models.TableCurrencies)
	require.NoError(t, err)

	t.Run("new record gets a sequence version", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectVersion)).
			WithArgs(int64(42), "cur-eur").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(insert)).
			WithArgs(int64(42), "cur-eur", "EUR", "Euro", "€", 2, nil).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(101)))
		mock.ExpectCommit()

		resp, upsertErr := repo.UpsertBatch(testContext(), 42, models.TableCurrencies,
			[]models.WireRecord{currencyRecord(0)})
		require.NoError(t, upsertErr)

		assert.Equal(t, []string{"cur-eur"}, resp.SyncedIDs)
		assert.Empty(t, resp.ConflictIDs)
		assert.Empty(t, resp.ErrorMap)
		assert.Equal(t, int64(101), resp.NewVersions["cur-eur"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("matching version with changed content is accepted", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectVersion)).
			WithArgs(int64(42), "cur-eur").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(7)))
		mock.ExpectQuery(regexp.QuoteMeta(selectRow)).
			WithArgs(int64(42), "cur-eur").
			WillReturnRows(sqlmock.NewRows(currencyWireColumns).
				AddRow("cur-eur", "EUR", "Old name", "€", 2, int64(7), nil))
		mock.ExpectQuery(regexp.QuoteMeta(update)).
			WithArgs(int64(42), "cur-eur", "EUR", "Euro", "€", 2, nil).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(102)))
		mock.ExpectCommit()

		resp, upsertErr := repo.UpsertBatch(testContext(), 42, models.TableCurrencies,
			[]models.WireRecord{currencyRecord(7)})
		require.NoError(t, upsertErr)

		assert.Equal(t, []string{"cur-eur"}, resp.SyncedIDs)
		assert.Equal(t, int64(102), resp.NewVersions["cur-eur"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("identical resubmission is a no-op", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectVersion)).
			WithArgs(int64(42), "cur-eur").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(7)))
		mock.ExpectQuery(regexp.QuoteMeta(selectRow)).
			WithArgs(int64(42), "cur-eur").
			WillReturnRows(sqlmock.NewRows(currencyWireColumns).
				AddRow("cur-eur", "EUR", "Euro", "€", 2, int64(7), nil))
		mock.ExpectCommit()

		resp, upsertErr := repo.UpsertBatch(testContext(), 42, models.TableCurrencies,
			[]models.WireRecord{currencyRecord(7)})
		require.NoError(t, upsertErr)

		assert.Equal(t, []string{"cur-eur"}, resp.SyncedIDs)
		assert.Equal(t, int64(7), resp.NewVersions["cur-eur"], "stored version is kept")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectVersion)).
			WithArgs(int64(42), "cur-eur").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(9)))
		mock.ExpectRollback()

		resp, upsertErr := repo.UpsertBatch(testContext(), 42, models.TableCurrencies,
			[]models.WireRecord{currencyRecord(7)})
		require.NoError(t, upsertErr)

		assert.Empty(t, resp.SyncedIDs)
		assert.Equal(t, []string{"cur-eur"}, resp.ConflictIDs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign key violation lands in the error map", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectVersion)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(insert)).
			WillReturnError(&pgconn.PgError{
				Code:    pgerrcode.ForeignKeyViolation,
				Message: "insert or update violates foreign key constraint",
			})
		mock.ExpectRollback()

		resp, upsertErr := repo.UpsertBatch(testContext(), 42, models.TableCurrencies,
			[]models.WireRecord{currencyRecord(0)})
		require.NoError(t, upsertErr)

		assert.Empty(t, resp.SyncedIDs)
		assert.Empty(t, resp.ConflictIDs)
		assert.Contains(t, resp.ErrorMap["cur-eur"], "foreign key")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unexpected error fails the batch", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectVersion)).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, upsertErr := repo.UpsertBatch(testContext(), 42, models.TableCurrencies,
			[]models.WireRecord{currencyRecord(0)})
		require.Error(t, upsertErr)
	})
}

func TestChanges(t *testing.T) {
	query, err := buildServerSelectChanges(models.TableCurrencies)
	require.NoError(t, err)

	deleted := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	db, mock := newTestDB(t)
	repo := newTestSyncRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(42), int64(100), 200).
		WillReturnRows(sqlmock.NewRows(currencyWireColumns).
			AddRow("cur-eur", "EUR", "Euro", "€", 2, int64(101), nil).
			AddRow("cur-old", "XXX", "Gone", "", 0, int64(103), deleted))

	records, err := repo.Changes(testContext(), 42, models.TableCurrencies, 100, 200)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(101), records[0].Version)
	assert.Nil(t, records[0].DeletedAt)
	require.NotNil(t, records[1].DeletedAt, "tombstones are part of the change feed")
}

func TestLatestVersion(t *testing.T) {
	t.Run("returns the per-user maximum", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(buildServerLatestVersion())).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(137)))

		latest, err := repo.LatestVersion(testContext(), 42)
		require.NoError(t, err)
		assert.Equal(t, int64(137), latest)
	})

	t.Run("zero for a user with no records", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(buildServerLatestVersion())).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(0)))

		latest, err := repo.LatestVersion(testContext(), 7)
		require.NoError(t, err)
		assert.Zero(t, latest)
	})
}

func TestSnapshot(t *testing.T) {
	query, err := buildServerSelectSnapshot(models.TableCurrencies)
	require.NoError(t, err)

	db, mock := newTestDB(t)
	repo := newTestSyncRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(42), 100, 0).
		WillReturnRows(sqlmock.NewRows(currencyWireColumns).
			AddRow("cur-eur", "EUR", "Euro", "€", 2, int64(101), nil))

	records, err := repo.Snapshot(testContext(), 42, models.TableCurrencies, 0, 100)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "cur-eur", records[0].ID)
}

func TestFetchByIDs(t *testing.T) {
	t.Run("empty id set short-circuits", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		records, err := repo.FetchByIDs(testContext(), 42, models.TableCurrencies, nil)
		require.NoError(t, err)
		assert.Empty(t, records)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads requested ids", func(t *testing.T) {
		query, err := buildServerSelectByIDs(models.TableCurrencies)
		require.NoError(t, err)

		db, mock := newTestDB(t)
		repo := newTestSyncRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WillReturnRows(sqlmock.NewRows(currencyWireColumns).
				AddRow("cur-eur", "EUR", "Euro", "€", 2, int64(101), nil))

		records, fetchErr := repo.FetchByIDs(testContext(), 42, models.TableCurrencies, []string{"cur-eur"})
		require.NoError(t, fetchErr)
		require.Len(t, records, 1)
	})
}
