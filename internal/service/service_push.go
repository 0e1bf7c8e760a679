package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/adapter"
	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/validators"
	"github.com/ledgerkeep/ledgerkeep/models"
)

const (
	phasePrune = "prune"
	phasePlant = "plant"
)

type pushEngine struct {
	records   store.LocalRecordRepository
	remote    adapter.RemoteStore
	validator validators.Validator
	locker    *LockManager
	graph     *tableGraph
	cfg       config.Sync
	phase     PhaseFunc
	logger    *logger.Logger
}

// NewPushEngine constructs the push half of the sync engine. phase may be
// nil when no one observes transitions.
func NewPushEngine(
	records store.LocalRecordRepository,
	remote adapter.RemoteStore,
	validator validators.Validator,
	locker *LockManager,
	cfg config.Sync,
	phase PhaseFunc,
	log *logger.Logger,
) PushService {
	return &pushEngine{
		records:   records,
		remote:    remote,
		validator: validator,
		locker:    locker,
		graph:     mustTableGraph(),
		cfg:       cfg,
		phase:     phase,
		logger:    log,
	}
}

func (s *pushEngine) setPhase(p SyncPhase) {
	if s.phase != nil {
		s.phase(p)
	}
}

// PushPendingChanges drains staged local mutations in two phases. All prune
// batches across all tables complete before the first plant batch, which
// resolves delete-then-recreate races on server-side unique keys. Failures
// are isolated per table: a dead batch leaves its records pending and the
// engine moves on.
func (s *pushEngine) PushPendingChanges(ctx context.Context, userID int64) (models.PushResult, error) {
	start := time.Now()
	result := models.PushResult{}

	s.setPhase(PhasePruning)
	for _, table := range s.graph.Order() {
		stats := s.pushTable(ctx, userID, table, phasePrune)
		accumulate(&result, stats)
	}

	s.setPhase(PhasePlanting)
	for _, table := range s.graph.Order() {
		stats := s.pushTable(ctx, userID, table, phasePlant)
		accumulate(&result, stats)
	}

	s.drainBuffer(ctx)

	result.Success = result.TotalFailures == 0
	result.Duration = time.Since(start)

	return result, nil
}

func accumulate(result *models.PushResult, stats models.TablePushStats) {
	result.PerTable = append(result.PerTable, stats)
	result.TotalPushed += stats.Pushed
	result.TotalConflicts += stats.Conflicts
	result.TotalFailures += stats.Failures
}

func (s *pushEngine) pushTable(ctx context.Context, userID int64, table models.Table, phase string) models.TablePushStats {
	log := logger.FromContext(ctx)
	stats := models.TablePushStats{Table: table, Phase: phase}

	pending, err := s.records.GetPendingRecords(ctx, table, phase == phasePrune)
	if err != nil {
		log.Err(err).
			Str("func", "pushEngine.pushTable").
			Str("table", table.String()).
			Str("phase", phase).
			Msg("failed to load pending records, skipping table")
		stats.Failures++
		return stats
	}
	if len(pending) == 0 {
		return stats
	}

	valid := s.excludeInvalid(ctx, table, pending, &stats)

	for _, chunk := range chunkRecords(valid, s.cfg.PushBatchSize) {
		stats.Batches++
		s.pushBatch(ctx, userID, table, chunk, &stats)
	}

	return stats
}

// excludeInvalid runs pre-transmission validation over live records.
// Invalid records never reach the wire: they are flipped to conflict with
// the validation reason so the user can fix and retry them. Tombstones skip
// payload validation; the deletion must propagate regardless of how broken
// the payload is.
func (s *pushEngine) excludeInvalid(ctx context.Context, table models.Table, pending []models.Record, stats *models.TablePushStats) []models.Record {
	log := logger.FromContext(ctx)

	valid := make([]models.Record, 0, len(pending))
	var rejected []models.Conflict

	for _, rec := range pending {
		if rec.IsDelete() {
			valid = append(valid, rec)
			continue
		}

		if err := s.validator.Validate(ctx, rec.Payload); err != nil {
			log.Warn().
				Str("func", "pushEngine.excludeInvalid").
				Str("table", table.String()).
				Str("record_id", rec.ID).
				Err(err).
				Msg("record failed validation, excluded from push")

			rejected = append(rejected, models.Conflict{
				ID:           rec.ID,
				Table:        table,
				LocalVersion: rec.Version,
				LocalPayload: marshalPayload(rec),
				Reason:       "validation: " + err.Error(),
				DetectedAt:   time.Now().UTC(),
			})
			stats.Conflicts++
			continue
		}

		valid = append(valid, rec)
	}

	if len(rejected) > 0 {
		if err := s.records.ApplyPushOutcome(ctx, table, store.PushOutcome{Conflicts: rejected}); err != nil {
			log.Err(err).
				Str("func", "pushEngine.excludeInvalid").
				Str("table", table.String()).
				Msg("failed to persist validation conflicts")
			stats.Failures += len(rejected)
		}
	}

	return valid
}

// pushBatch sends one chunk: lock, one wire call, apply the verdict in one
// local transaction, unlock. A transport failure leaves every id pending
// and counts each as a failure.
func (s *pushEngine) pushBatch(ctx context.Context, userID int64, table models.Table, chunk []models.Record, stats *models.TablePushStats) {
	log := logger.FromContext(ctx)

	ids := make([]string, 0, len(chunk))
	wire := make([]models.WireRecord, 0, len(chunk))
	byID := make(map[string]models.Record, len(chunk))
	for _, rec := range chunk {
		ids = append(ids, rec.ID)
		byID[rec.ID] = rec
		wire = append(wire, models.WireRecord{
			ID:        rec.ID,
			Version:   rec.Version,
			DeletedAt: rec.DeletedAt,
			Payload:   rec.Payload,
		})
	}

	s.locker.Lock(ids...)
	defer s.locker.Unlock(ids...)

	resp, err := s.remote.Upsert(ctx, table, models.UpsertRequest{UserID: userID, Records: wire})
	if err != nil {
		log.Err(err).
			Str("func", "pushEngine.pushBatch").
			Str("table", table.String()).
			Int("records", len(chunk)).
			Msg("batch upsert failed, records stay pending")
		stats.Failures += len(chunk)
		return
	}

	outcome := store.PushOutcome{Synced: make(map[string]int64, len(resp.SyncedIDs))}
	for _, id := range resp.SyncedIDs {
		outcome.Synced[id] = resp.NewVersions[id]
	}

	if len(resp.ConflictIDs) > 0 {
		outcome.Conflicts = s.captureConflicts(ctx, userID, table, resp.ConflictIDs, byID)
	}

	for id, message := range resp.ErrorMap {
		log.Warn().
			Str("func", "pushEngine.pushBatch").
			Str("table", table.String()).
			Str("record_id", id).
			Str("reason", message).
			Msg("record rejected by server, stays pending")
	}

	if err = s.records.ApplyPushOutcome(ctx, table, outcome); err != nil {
		log.Err(err).
			Str("func", "pushEngine.pushBatch").
			Str("table", table.String()).
			Msg("failed to apply push outcome")
		stats.Failures += len(chunk)
		return
	}

	stats.Pushed += len(outcome.Synced)
	stats.Conflicts += len(outcome.Conflicts)
	stats.Failures += len(resp.ErrorMap)
}

// captureConflicts builds conflict rows for server-rejected ids, fetching
// the server side of each record so the user sees both versions. A failed
// fetch degrades to a conflict without a server snapshot.
func (s *pushEngine) captureConflicts(ctx context.Context, userID int64, table models.Table, ids []string, byID map[string]models.Record) []models.Conflict {
	log := logger.FromContext(ctx)

	serverSide := make(map[string]models.WireRecord, len(ids))
	fetched, err := s.remote.Fetch(ctx, table, models.FetchRequest{UserID: userID, IDs: ids})
	if err != nil {
		log.Warn().
			Str("func", "pushEngine.captureConflicts").
			Str("table", table.String()).
			Err(err).
			Msg("could not fetch server side of conflicts")
	} else {
		for _, rec := range fetched {
			serverSide[rec.ID] = rec
		}
	}

	now := time.Now().UTC()
	conflicts := make([]models.Conflict, 0, len(ids))
	for _, id := range ids {
		local := byID[id]
		conflict := models.Conflict{
			ID:           id,
			Table:        table,
			LocalVersion: local.Version,
			LocalPayload: marshalPayload(local),
			Reason:       "version mismatch",
			DetectedAt:   now,
		}
		if remote, ok := serverSide[id]; ok {
			conflict.ServerVersion = remote.Version
			if data, marshalErr := json.Marshal(remote); marshalErr == nil {
				conflict.ServerPayload = data
			}
		}
		conflicts = append(conflicts, conflict)
	}

	return conflicts
}

// drainBuffer replays edits that arrived while their records were locked.
// Each replay re-marks the record pending for the next cycle.
func (s *pushEngine) drainBuffer(ctx context.Context) {
	log := logger.FromContext(ctx)

	for _, update := range s.locker.Flush() {
		if err := s.records.UpdateRecordFields(ctx, update.Table, update.ID, update.Fields); err != nil {
			log.Err(err).
				Str("func", "pushEngine.drainBuffer").
				Str("table", update.Table.String()).
				Str("record_id", update.ID).
				Msg("failed to replay buffered update")
		}
	}
}

func marshalPayload(rec models.Record) []byte {
	if rec.Payload == nil {
		return nil
	}
	data, err := json.Marshal(models.WireRecord{
		ID:        rec.ID,
		Version:   rec.Version,
		DeletedAt: rec.DeletedAt,
		Payload:   rec.Payload,
	})
	if err != nil {
		return nil
	}
	return data
}

func chunkRecords(records []models.Record, size int) [][]models.Record {
	if size <= 0 {
		size = config.DefaultPushBatchSize
	}

	chunks := make([][]models.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}

	return chunks
}
