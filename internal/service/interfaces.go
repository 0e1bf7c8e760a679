// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ledgerkeep Authors

// Package service implements the delta sync engine: the push and pull
// engines, initial hydration, the orchestrator that sequences them, the
// conflict surface and the record mutation service the UI talks to.
//
// The engine is offline-first. All reads and writes land in the local SQLite
// store immediately; synchronisation with the remote store happens in the
// background in full cycles of push (deletions first, then creations and
// updates) followed by incremental pull. Records carry integer versions
// assigned by the server; version mismatches surface as conflicts for the
// user to resolve, never as silent merges.
package service

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/models"
)

// SyncPhase names the orchestrator's current position in a sync cycle.
type SyncPhase string

const (
	PhaseIdle     SyncPhase = "idle"
	PhasePruning  SyncPhase = "pruning"
	PhasePlanting SyncPhase = "planting"
	PhasePulling  SyncPhase = "pulling"
	PhaseError    SyncPhase = "error"
)

// PhaseFunc receives phase transitions from the engines. Implementations
// must be cheap and non-blocking.
type PhaseFunc func(SyncPhase)

// PushService transmits locally staged changes to the remote store.
type PushService interface {
	// PushPendingChanges runs both push phases over every table in
	// dependency order: first prune (pending tombstones) across all
	// tables, then plant (pending live records). Prune completing before
	// any plant batch resolves delete-then-recreate races on unique keys.
	PushPendingChanges(ctx context.Context, userID int64) (models.PushResult, error)
}

// PullService applies remote changes to the local store.
type PullService interface {
	// PullIncrementalChanges pages every table's change feed past the local
	// high-water mark and applies it. The result's HasMore reports whether
	// the per-table cap cut a table short.
	PullIncrementalChanges(ctx context.Context, userID int64) (models.PullResult, error)
}

// HydrationService seeds an empty local store from the remote dataset.
type HydrationService interface {
	// IsHydrationNeeded reports whether the local store has never been
	// seeded: no sync metadata and no account rows.
	IsHydrationNeeded(ctx context.Context) (bool, error)

	// Hydrate pages the remote snapshot of every table into the local
	// store. Per-table failures are recorded in the result and do not stop
	// the remaining tables.
	Hydrate(ctx context.Context, userID int64) (models.HydrationResult, error)

	// ForceRehydrate clears every local record and all sync metadata, then
	// hydrates from scratch. Pending local changes are lost; callers own
	// the confirmation.
	ForceRehydrate(ctx context.Context, userID int64) (models.HydrationResult, error)
}

// ConflictService is the user-facing surface over parked version conflicts.
type ConflictService interface {
	ListConflicts(ctx context.Context) ([]models.Conflict, error)

	// RetryConflict re-stages the conflicted record: the conflict row is
	// removed and the record returns to pending so the next push re-submits
	// it against the current server version.
	RetryConflict(ctx context.Context, id string) error

	// DiscardConflict accepts the server state: the conflict row is removed
	// and the local record is dropped; the next pull restores the server's
	// copy.
	DiscardConflict(ctx context.Context, id string) error
}

// RecordService is the mutation surface the UI calls. Every mutation is
// local-only and staged for the next push.
type RecordService interface {
	// CreateRecord assigns a fresh id when the payload carries none and
	// stores the record as pending at version zero.
	CreateRecord(ctx context.Context, table models.Table, payload models.Payload) (models.Record, error)

	// UpdateRecord applies a partial field update and re-stages the record.
	// When the record is locked by an in-flight push the update is buffered
	// instead; the returned flag reports that case.
	UpdateRecord(ctx context.Context, table models.Table, id string, fields map[string]any) (buffered bool, err error)

	GetRecord(ctx context.Context, table models.Table, id string) (models.Record, error)

	// SoftDeleteRecord tombstones the record locally; the deletion reaches
	// the server on the next push's prune phase.
	SoftDeleteRecord(ctx context.Context, table models.Table, id string) error

	// PruneTombstones drops synced tombstones older than the configured
	// retention, returning rows removed across all tables.
	PruneTombstones(ctx context.Context) (int64, error)
}

// SyncOrchestrator sequences push and pull into full cycles and guards
// against overlapping runs.
type SyncOrchestrator interface {
	// RunFullCycle pushes then pulls. When the pull is cut short by the
	// per-table cap the orchestrator immediately runs another cycle, up to
	// the configured bound of consecutive re-cycles.
	RunFullCycle(ctx context.Context, userID int64) (models.CycleResult, error)

	// PushPendingChanges and PullIncrementalChanges run a single phase
	// under the same in-progress guard as RunFullCycle.
	PushPendingChanges(ctx context.Context, userID int64) (models.PushResult, error)
	PullIncrementalChanges(ctx context.Context, userID int64) (models.PullResult, error)

	// Status reports the current phase.
	Status() SyncPhase

	// LastSyncedAt is the completion time of the last successful cycle,
	// zero before the first one.
	LastSyncedAt() time.Time

	// LastError is the failure of the most recent cycle, nil after a
	// success.
	LastError() error
}

// SyncJob runs full cycles in the background on an interval, with an
// immediate-trigger path for focus and reconnect nudges.
type SyncJob interface {
	Start(ctx context.Context, userID int64, interval time.Duration)
	Stop()

	// Trigger requests an immediate cycle. It never blocks; when a cycle is
	// already queued or running the nudge is dropped.
	Trigger()
}
