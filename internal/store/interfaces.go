package store

import (
	"context"

	"github.com/ledgerkeep/ledgerkeep/models"
)

// SyncRepository is the server-side repository over the closed set of
// syncable tables. All operations are scoped to one user.
type SyncRepository interface {
	// UpsertBatch applies one batch of client records with optimistic
	// version checks. Accepted records receive a fresh version from the
	// per-user sequence; version mismatches are reported as conflicts and
	// per-record database errors (such as foreign key violations) are
	// isolated into the response's error map.
	UpsertBatch(ctx context.Context, userID int64, table models.Table, records []models.WireRecord) (models.UpsertResponse, error)

	// Changes returns records whose version exceeds sinceVersion, ordered
	// by version ascending and capped at limit. Tombstones are included.
	Changes(ctx context.Context, userID int64, table models.Table, sinceVersion int64, limit int) ([]models.WireRecord, error)

	// LatestVersion returns the highest version across all of the user's
	// tables, or zero when the user has no records.
	LatestVersion(ctx context.Context, userID int64) (int64, error)

	// Snapshot pages through the user's live (non-tombstoned) records in
	// stable id order, for initial hydration.
	Snapshot(ctx context.Context, userID int64, table models.Table, offset, limit int) ([]models.WireRecord, error)

	// FetchByIDs loads specific records regardless of tombstone state, for
	// conflict inspection.
	FetchByIDs(ctx context.Context, userID int64, table models.Table, ids []string) ([]models.WireRecord, error)
}
