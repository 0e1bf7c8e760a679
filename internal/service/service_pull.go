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

type pullEngine struct {
	records  store.LocalRecordRepository
	metadata store.SyncMetadataRepository
	remote   adapter.RemoteStore
	graph    *tableGraph
	cfg      config.Sync
	phase    PhaseFunc
	logger   *logger.Logger
}

// NewPullEngine constructs the pull half of the sync engine.
func NewPullEngine(
	records store.LocalRecordRepository,
	metadata store.SyncMetadataRepository,
	remote adapter.RemoteStore,
	cfg config.Sync,
	phase PhaseFunc,
	log *logger.Logger,
) PullService {
	return &pullEngine{
		records:  records,
		metadata: metadata,
		remote:   remote,
		graph:    mustTableGraph(),
		cfg:      cfg,
		phase:    phase,
		logger:   log,
	}
}

func (s *pullEngine) setPhase(p SyncPhase) {
	if s.phase != nil {
		s.phase(p)
	}
}

// PullIncrementalChanges applies remote changes past each table's high-water
// mark, tables in dependency order so parents land before the children that
// reference them. The summary probe short-circuits the whole run when the
// server holds nothing new.
func (s *pullEngine) PullIncrementalChanges(ctx context.Context, userID int64) (models.PullResult, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	s.setPhase(PhasePulling)

	marks, err := s.highWaterMarks(ctx)
	if err != nil {
		return models.PullResult{}, err
	}

	floor := minMark(marks)
	summary, err := s.remote.Summary(ctx, floor)
	if err != nil {
		return models.PullResult{}, fmt.Errorf("pull summary: %w", err)
	}
	if !summary.HasChanges && summary.LatestServerVersion <= floor {
		log.Debug().
			Str("func", "pullEngine.PullIncrementalChanges").
			Int64("high_water_mark", floor).
			Msg("remote has no changes, skipping pull")
		return models.PullResult{
			Success:          true,
			NewHighWaterMark: floor,
			Duration:         time.Since(start),
		}, nil
	}

	result := models.PullResult{Success: true}
	for _, table := range s.graph.Order() {
		stats, hasMore, tableErr := s.pullTable(ctx, userID, table, marks[table])
		if tableErr != nil {
			log.Err(tableErr).
				Str("func", "pullEngine.PullIncrementalChanges").
				Str("table", table.String()).
				Msg("table pull failed, continuing with remaining tables")

			if metaErr := s.metadata.SetLastError(ctx, table, tableErr.Error()); metaErr != nil {
				log.Err(metaErr).
					Str("table", table.String()).
					Msg("failed to record table pull error")
			}
			result.Success = false
		}

		result.PerTable = append(result.PerTable, stats)
		result.HasMore = result.HasMore || hasMore
		if stats.HighWaterMark > result.NewHighWaterMark {
			result.NewHighWaterMark = stats.HighWaterMark
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// pullTable pages one table's change feed. Each page is applied atomically
// together with the advanced high-water mark; a crash between pages resumes
// exactly where the last committed page ended.
func (s *pullEngine) pullTable(ctx context.Context, userID int64, table models.Table, since int64) (models.TablePullStats, bool, error) {
	log := logger.FromContext(ctx)
	stats := models.TablePullStats{Table: table, HighWaterMark: since}

	pageSize := s.cfg.PullBatchSize
	if pageSize <= 0 {
		pageSize = config.DefaultPullBatchSize
	}
	recordCap := s.cfg.MaxPullRecordsPerTable
	if recordCap <= 0 {
		recordCap = config.DefaultMaxPullRecordsPerTable
	}

	total := 0
	for {
		page, err := s.remote.Changes(ctx, models.ChangesRequest{
			UserID:       userID,
			Table:        table,
			SinceVersion: stats.HighWaterMark,
			Limit:        pageSize,
		})
		if err != nil {
			return stats, false, fmt.Errorf("changes page (since=%d): %w", stats.HighWaterMark, err)
		}
		if len(page) == 0 {
			return stats, false, nil
		}

		records := make([]models.Record, 0, len(page))
		maxVersion := stats.HighWaterMark
		for _, wire := range page {
			if wire.Version <= stats.HighWaterMark {
				log.Warn().
					Str("func", "pullEngine.pullTable").
					Str("table", table.String()).
					Str("record_id", wire.ID).
					Int64("version", wire.Version).
					Int64("high_water_mark", stats.HighWaterMark).
					Msg("record version not past high-water mark, rejected")
				continue
			}
			if wire.Version > maxVersion {
				maxVersion = wire.Version
			}
			if wire.DeletedAt != nil {
				stats.Tombstones++
			}
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

		if len(records) == 0 {
			// a full page where nothing advanced past the mark would make
			// the next request identical; stop instead of looping on it
			log.Warn().
				Str("func", "pullEngine.pullTable").
				Str("table", table.String()).
				Int64("high_water_mark", stats.HighWaterMark).
				Msg("change page did not advance the high-water mark, stopping table pull")
			return stats, false, nil
		}

		if err = s.records.ApplyPullPage(ctx, table, records, maxVersion); err != nil {
			return stats, false, fmt.Errorf("apply page (since=%d): %w", stats.HighWaterMark, err)
		}

		stats.Applied += len(records)
		stats.HighWaterMark = maxVersion
		total += len(page)

		if len(page) < pageSize {
			return stats, false, nil
		}
		if total >= recordCap {
			return stats, s.moreRemain(ctx, userID, table, stats.HighWaterMark), nil
		}
	}
}

// moreRemain checks whether the change feed holds anything past mark once
// the per-cycle record cap is hit, so a table with exactly the cap's worth
// of records does not trigger a pointless immediate re-cycle. On probe
// failure it assumes more remain, which at worst costs one bounded
// re-cycle.
func (s *pullEngine) moreRemain(ctx context.Context, userID int64, table models.Table, mark int64) bool {
	peek, err := s.remote.Changes(ctx, models.ChangesRequest{
		UserID:       userID,
		Table:        table,
		SinceVersion: mark,
		Limit:        1,
	})
	if err != nil {
		logger.FromContext(ctx).Debug().
			Err(err).
			Str("func", "pullEngine.moreRemain").
			Str("table", table.String()).
			Msg("backlog probe failed, assuming more changes remain")
		return true
	}
	return len(peek) > 0
}

func (s *pullEngine) highWaterMarks(ctx context.Context) (map[models.Table]int64, error) {
	metas, err := s.metadata.GetAllMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync metadata: %w", err)
	}

	marks := make(map[models.Table]int64, len(models.AllTables))
	for _, table := range models.AllTables {
		marks[table] = 0
	}
	for _, meta := range metas {
		marks[meta.Table] = meta.LastSyncedVersion
	}

	return marks, nil
}

func minMark(marks map[models.Table]int64) int64 {
	first := true
	var min int64
	for _, mark := range marks {
		if first || mark < min {
			min = mark
			first = false
		}
	}
	return min
}
