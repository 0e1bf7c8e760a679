package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when a query or update targets a record
	// (identified by table and id) that does not exist locally.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrMetadataNotFound is returned when a table has no sync metadata row
	// yet, which is the case before initial hydration has run.
	ErrMetadataNotFound = errors.New("sync metadata was not found")

	// ErrConflictNotFound is returned when a conflict resolution targets a
	// record id with no stored conflict row.
	ErrConflictNotFound = errors.New("sync conflict was not found")

	// ErrUnknownTable is returned when an operation names a table outside
	// the closed syncable set.
	ErrUnknownTable = errors.New("unknown syncable table")

	// ErrVersionRegression is returned when an applied server record carries
	// a version lower than the one already stored locally; versions never
	// decrease for a given id.
	ErrVersionRegression = errors.New("record version regression")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. an empty dynamic update set).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan record row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan record rows")
)
