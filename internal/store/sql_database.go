package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
)

// DB wraps the shared *sql.DB handle with the application logger and, for
// Postgres, an error classifier used to decide whether a failed operation is
// retryable.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// ErrorClassificator decides whether a failed database operation may succeed
// on retry.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// withinTx runs fn inside one transaction, rolling back on error. It is the
// unit of atomicity for applying batch results: partial writes are never
// visible to readers.
func (db *DB) withinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}
