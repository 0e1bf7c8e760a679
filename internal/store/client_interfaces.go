package store

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// PushOutcome carries the local state changes resulting from one batch upsert
// response. The record repository applies the whole outcome inside a single
// transaction so readers never observe a half-applied batch.
type PushOutcome struct {
	// Synced maps accepted record ids to the authoritative version the
	// remote store assigned.
	Synced map[string]int64

	// Conflicts holds the conflict rows to persist; the referenced records
	// are flipped to conflict status in the same transaction.
	Conflicts []models.Conflict
}

// LocalRecordRepository is the low-level local repository over the closed set
// of syncable tables.
type LocalRecordRepository interface {
	// SaveRecords upserts full records, preserving each record's envelope
	// (version, tombstone, status) as given. An upsert never lowers a stored
	// version.
	SaveRecords(ctx context.Context, records ...models.Record) error

	// GetRecord loads one record by table and id, tombstoned or not.
	GetRecord(ctx context.Context, table models.Table, id string) (models.Record, error)

	// GetPendingRecords selects the records staged for one push phase:
	// status pending, tombstoned selecting deletions (prune) and
	// non-tombstoned selecting creates/updates (plant).
	GetPendingRecords(ctx context.Context, table models.Table, tombstoned bool) ([]models.Record, error)

	// ApplyPushOutcome applies one batch response atomically.
	ApplyPushOutcome(ctx context.Context, table models.Table, outcome PushOutcome) error

	// ApplyPullPage upserts one page of server records and advances the
	// table's high-water mark in the same transaction, so a crash mid-pull
	// cannot leave the mark ahead of applied data.
	ApplyPullPage(ctx context.Context, table models.Table, records []models.Record, highWaterMark int64) error

	// UpdateRecordFields applies a partial column update and re-marks the
	// record pending. Used for buffered-update replay and direct UI edits.
	UpdateRecordFields(ctx context.Context, table models.Table, id string, fields map[string]any) error

	// SetRecordStatus overwrites just the sync status of one record.
	SetRecordStatus(ctx context.Context, table models.Table, id string, status models.SyncStatus) error

	// SoftDeleteRecord tombstones a record locally and marks it pending so
	// the deletion propagates on the next push.
	SoftDeleteRecord(ctx context.Context, table models.Table, id string) error

	// HardDeleteRecord physically removes a local record (conflict discard
	// and tombstone pruning).
	HardDeleteRecord(ctx context.Context, table models.Table, id string) error

	// CountActiveRecords counts non-tombstoned records in a table.
	CountActiveRecords(ctx context.Context, table models.Table) (int, error)

	// PruneTombstones physically deletes synced tombstones older than the
	// cutoff, returning the number of rows removed.
	PruneTombstones(ctx context.Context, table models.Table, olderThan time.Time) (int64, error)

	// ClearTable removes every row of a table (force rehydration).
	ClearTable(ctx context.Context, table models.Table) error
}

// SyncMetadataRepository persists the one row per table that drives
// incremental pull.
type SyncMetadataRepository interface {
	GetMetadata(ctx context.Context, table models.Table) (models.SyncMetadata, error)
	GetAllMetadata(ctx context.Context) ([]models.SyncMetadata, error)
	SaveMetadata(ctx context.Context, meta models.SyncMetadata) error
	SetLastError(ctx context.Context, table models.Table, message string) error
	CountMetadata(ctx context.Context) (int, error)
	ClearMetadata(ctx context.Context) error
}

// ConflictRepository persists version conflicts awaiting a user decision.
type ConflictRepository interface {
	SaveConflict(ctx context.Context, conflict models.Conflict) error
	ListConflicts(ctx context.Context) ([]models.Conflict, error)
	GetConflict(ctx context.Context, id string) (models.Conflict, error)
	DeleteConflict(ctx context.Context, id string) error
}
