package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/adapter"
	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type hydrationService struct {
	records  store.LocalRecordRepository
	metadata store.SyncMetadataRepository
	remote   adapter.RemoteStore
	graph    *tableGraph
	cfg      config.Sync
	logger   *logger.Logger
}

// NewHydrationService constructs the one-shot bootstrap that seeds an empty
// local store from the remote dataset.
func NewHydrationService(
	records store.LocalRecordRepository,
	metadata store.SyncMetadataRepository,
	remote adapter.RemoteStore,
	cfg config.Sync,
	log *logger.Logger,
) HydrationService {
	return &hydrationService{
		records:  records,
		metadata: metadata,
		remote:   remote,
		graph:    mustTableGraph(),
		cfg:      cfg,
		logger:   log,
	}
}

// IsHydrationNeeded reports whether this local store has never been seeded:
// no sync metadata rows and an empty accounts table. A store that synced
// before keeps its metadata even if the user deleted every account, so the
// two conditions together distinguish "fresh" from "emptied".
func (s *hydrationService) IsHydrationNeeded(ctx context.Context) (bool, error) {
	if s.records == nil || s.metadata == nil {
		return false, ErrNoLocalStore
	}

	metaCount, err := s.metadata.CountMetadata(ctx)
	if err != nil {
		return false, fmt.Errorf("count sync metadata: %w", err)
	}
	if metaCount > 0 {
		return false, nil
	}

	accounts, err := s.records.CountActiveRecords(ctx, models.TableAccounts)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}

	return accounts == 0, nil
}

// Hydrate pages every table's active snapshot into the local store in
// dependency order. The remote's latest version is captured before the
// first page so the metadata seeded afterwards guarantees the next delta
// pull re-fetches anything written concurrently with hydration, rather than
// missing it.
func (s *hydrationService) Hydrate(ctx context.Context, userID int64) (models.HydrationResult, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	if s.records == nil || s.metadata == nil {
		return models.HydrationResult{Status: models.HydrationSkipped}, nil
	}

	needed, err := s.IsHydrationNeeded(ctx)
	if err != nil {
		return models.HydrationResult{Status: models.HydrationFailed, Errors: []string{err.Error()}}, err
	}
	if !needed {
		return models.HydrationResult{Status: models.HydrationNotNeeded, Duration: time.Since(start)}, nil
	}

	return s.hydrate(ctx, userID, log, start)
}

// ForceRehydrate wipes every local record and all sync metadata, then
// hydrates from scratch. Pending local changes are lost.
func (s *hydrationService) ForceRehydrate(ctx context.Context, userID int64) (models.HydrationResult, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	if s.records == nil || s.metadata == nil {
		return models.HydrationResult{Status: models.HydrationSkipped}, nil
	}

	// children cleared before parents so foreign keys never dangle
	order := s.graph.Order()
	for i := len(order) - 1; i >= 0; i-- {
		if err := s.records.ClearTable(ctx, order[i]); err != nil {
			return models.HydrationResult{Status: models.HydrationFailed, Errors: []string{err.Error()}},
				fmt.Errorf("clear table %s: %w", order[i], err)
		}
	}
	if err := s.metadata.ClearMetadata(ctx); err != nil {
		return models.HydrationResult{Status: models.HydrationFailed, Errors: []string{err.Error()}},
			fmt.Errorf("clear sync metadata: %w", err)
	}

	return s.hydrate(ctx, userID, log, start)
}

func (s *hydrationService) hydrate(ctx context.Context, userID int64, log *logger.Logger, start time.Time) (models.HydrationResult, error) {
	result := models.HydrationResult{
		Status:         models.HydrationCompleted,
		PerTableCounts: make(map[models.Table]int, len(models.AllTables)),
	}

	summary, err := s.remote.Summary(ctx, 0)
	if err != nil {
		result.Status = models.HydrationFailed
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result, fmt.Errorf("hydration summary: %w", err)
	}
	seedVersion := summary.LatestServerVersion

	succeeded := make([]models.Table, 0, len(models.AllTables))
	for _, table := range s.graph.Order() {
		count, tableErr := s.hydrateTable(ctx, userID, table)
		result.PerTableCounts[table] = count
		if tableErr != nil {
			log.Err(tableErr).
				Str("func", "hydrationService.hydrate").
				Str("table", table.String()).
				Msg("table hydration failed, continuing with remaining tables")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", table, tableErr))
			continue
		}
		succeeded = append(succeeded, table)
	}

	switch {
	case len(succeeded) == 0:
		result.Status = models.HydrationFailed
	case len(result.Errors) > 0:
		result.Status = models.HydrationPartial
	}

	// seeding the mark at the pre-hydration latest version means the first
	// delta pull skips exactly what hydration already fetched
	for _, table := range succeeded {
		if err = s.metadata.SaveMetadata(ctx, models.SyncMetadata{
			Table:             table,
			LastSyncedVersion: seedVersion,
		}); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s metadata: %v", table, err))
			result.Status = models.HydrationPartial
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (s *hydrationService) hydrateTable(ctx context.Context, userID int64, table models.Table) (int, error) {
	pageSize := s.cfg.PullBatchSize
	if pageSize <= 0 {
		pageSize = config.DefaultPullBatchSize
	}

	total := 0
	for offset := 0; ; offset += pageSize {
		page, err := s.remote.Snapshot(ctx, table, models.SnapshotRequest{
			UserID: userID,
			Offset: offset,
			Limit:  pageSize,
		})
		if err != nil {
			return total, fmt.Errorf("snapshot page (offset=%d): %w", offset, err)
		}
		if len(page) == 0 {
			return total, nil
		}

		records := make([]models.Record, 0, len(page))
		for _, wire := range page {
			records = append(records, models.Record{
				ID:        wire.ID,
				Table:     table,
				Version:   wire.Version,
				DeletedAt: wire.DeletedAt,
				Status:    models.StatusSynced,
				UpdatedAt: time.Now().UTC(),
				Payload:   wire.Payload,
			})
		}

		if err = s.records.SaveRecords(ctx, records...); err != nil {
			return total, fmt.Errorf("save snapshot page (offset=%d): %w", offset, err)
		}
		total += len(page)

		if len(page) < pageSize {
			return total, nil
		}
	}
}
