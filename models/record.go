package models

import "time"

// SyncStatus is the local-only lifecycle state of a record relative to the
// remote store.
type SyncStatus string

const (
	// StatusPending marks a record created or edited locally that has not yet
	// been accepted by the remote store.
	StatusPending SyncStatus = "pending"

	// StatusSynced marks a record whose local copy matches the version the
	// remote store last acknowledged.
	StatusSynced SyncStatus = "synced"

	// StatusConflict marks a record the remote store rejected with a version
	// mismatch, or one that failed local pre-submission validation. Conflicted
	// records are excluded from push until explicitly reset.
	StatusConflict SyncStatus = "conflict"
)

// Record is the unit of sync: a payload from the closed table set plus the
// envelope the engine needs to move it between stores.
type Record struct {
	// ID is the stable identifier, client- or server-assigned at creation and
	// never reused.
	ID string

	// Table names the syncable table the record belongs to.
	Table Table

	// Version is assigned authoritatively by the remote store on each
	// accepted write. It never decreases for a given ID.
	Version int64

	// DeletedAt is nil for active records; a non-nil timestamp tombstones the
	// record so the deletion itself can be propagated.
	DeletedAt *time.Time

	// Status is the record's local sync lifecycle state.
	Status SyncStatus

	// UpdatedAt is the last local modification time.
	UpdatedAt time.Time

	// Payload is the table-specific body. It may be nil on a [PendingRecord]
	// whose payload failed local validation before transmission.
	Payload Payload
}

// IsDelete reports whether the record is a tombstone.
func (r Record) IsDelete() bool {
	return r.DeletedAt != nil
}

// PendingRecord is a local record staged for transmission during a push
// phase.
type PendingRecord struct {
	ID       string
	Table    Table
	IsDelete bool
	Record   *Record
}

// BufferedUpdate is a local mutation that arrived while its target record was
// locked mid-push. At most one buffered update is retained per id: a later
// update replaces an earlier one wholesale (last write wins within the
// buffer, not merged field by field).
type BufferedUpdate struct {
	ID         string
	Table      Table
	Fields     map[string]any
	BufferedAt time.Time
}

// Conflict captures a version mismatch reported by the remote store, or a
// local validation rejection. It is surfaced to the UI for manual resolution:
// retry resets the record to pending, discard removes the local copy.
type Conflict struct {
	ID            string
	Table         Table
	LocalVersion  int64
	ServerVersion int64

	// LocalPayload and ServerPayload are JSON snapshots of both sides at
	// detection time. ServerPayload is empty when the conflict came from
	// local validation and nothing was fetched.
	LocalPayload  []byte
	ServerPayload []byte

	Reason     string
	DetectedAt time.Time
}

// SyncMetadata is the one locally persisted row per syncable table that
// drives incremental pull.
type SyncMetadata struct {
	Table Table

	// LastSyncedVersion is the pull high-water mark: the highest record
	// version already applied locally for this table.
	LastSyncedVersion int64

	// LastError holds the most recent per-table sync failure, empty when the
	// last pull succeeded.
	LastError string

	UpdatedAt time.Time
}
