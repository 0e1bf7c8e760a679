package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/validators"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type recordService struct {
	records   store.LocalRecordRepository
	locker    *LockManager
	validator validators.Validator
	graph     *tableGraph
	cfg       config.Sync
	logger    *logger.Logger
}

// NewRecordService builds the local mutation surface. Every write lands in
// the local store only; the push engine picks staged records up on its next
// run.
func NewRecordService(
	records store.LocalRecordRepository,
	locker *LockManager,
	validator validators.Validator,
	cfg config.Sync,
	log *logger.Logger,
) RecordService {
	return &recordService{
		records:   records,
		locker:    locker,
		validator: validator,
		graph:     mustTableGraph(),
		cfg:       cfg,
		logger:    log,
	}
}

func (s *recordService) CreateRecord(ctx context.Context, table models.Table, payload models.Payload) (models.Record, error) {
	if payload == nil {
		return models.Record{}, ErrRecordPayloadMissing
	}
	if payload.Table() != table {
		return models.Record{}, fmt.Errorf("%w: payload is for table %s", store.ErrUnknownTable, payload.Table())
	}

	if payload.RecordID() == "" {
		payload = withFreshID(payload)
	}

	if err := s.validator.Validate(ctx, payload); err != nil {
		return models.Record{}, fmt.Errorf("validate payload: %w", err)
	}

	record := models.Record{
		ID:        payload.RecordID(),
		Table:     table,
		Version:   0,
		Status:    models.StatusPending,
		UpdatedAt: time.Now().UTC(),
		Payload:   payload,
	}

	if err := s.records.SaveRecords(ctx, record); err != nil {
		return models.Record{}, fmt.Errorf("save record: %w", err)
	}

	logger.FromContext(ctx).Debug().
		Str("func", "recordService.CreateRecord").
		Str("table", table.String()).
		Str("id", record.ID).
		Msg("record created and staged for push")

	return record, nil
}

// UpdateRecord applies a partial field update and re-stages the record as
// pending. While the record is locked by an in-flight push the update is
// buffered instead and replayed by the push engine after unlock; the
// returned flag reports that case.
func (s *recordService) UpdateRecord(ctx context.Context, table models.Table, id string, fields map[string]any) (bool, error) {
	if !table.Valid() {
		return false, fmt.Errorf("%w: %s", store.ErrUnknownTable, table)
	}
	if len(fields) == 0 {
		return false, nil
	}

	if s.locker.BufferIfLocked(models.BufferedUpdate{
		ID:         id,
		Table:      table,
		Fields:     fields,
		BufferedAt: time.Now().UTC(),
	}) {
		logger.FromContext(ctx).Debug().
			Str("func", "recordService.UpdateRecord").
			Str("table", table.String()).
			Str("id", id).
			Msg("record locked mid-push, update buffered")
		return true, nil
	}

	if err := s.records.UpdateRecordFields(ctx, table, id, fields); err != nil {
		return false, fmt.Errorf("update record: %w", err)
	}

	return false, nil
}

func (s *recordService) GetRecord(ctx context.Context, table models.Table, id string) (models.Record, error) {
	return s.records.GetRecord(ctx, table, id)
}

func (s *recordService) SoftDeleteRecord(ctx context.Context, table models.Table, id string) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %s", store.ErrUnknownTable, table)
	}

	if err := s.records.SoftDeleteRecord(ctx, table, id); err != nil {
		return fmt.Errorf("soft delete record: %w", err)
	}

	logger.FromContext(ctx).Debug().
		Str("func", "recordService.SoftDeleteRecord").
		Str("table", table.String()).
		Str("id", id).
		Msg("record tombstoned, deletion staged for push")

	return nil
}

// PruneTombstones drops synced tombstones older than the configured
// retention window across all tables.
func (s *recordService) PruneTombstones(ctx context.Context) (int64, error) {
	days := s.cfg.TombstonePruneDays
	if days <= 0 {
		days = config.DefaultTombstonePruneDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var total int64
	for _, table := range s.graph.Order() {
		removed, err := s.records.PruneTombstones(ctx, table, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune %s tombstones: %w", table, err)
		}
		total += removed
	}

	if total > 0 {
		logger.FromContext(ctx).Info().
			Str("func", "recordService.PruneTombstones").
			Int64("removed", total).
			Msg("old synced tombstones pruned")
	}

	return total, nil
}

// withFreshID returns a copy of payload with a newly generated uuid. The
// payload variants are value types, so the copy is by assignment.
func withFreshID(payload models.Payload) models.Payload {
	id := uuid.NewString()

	switch p := payload.(type) {
	case models.Currency:
		p.ID = id
		return p
	case models.Category:
		p.ID = id
		return p
	case models.Account:
		p.ID = id
		return p
	case models.Budget:
		p.ID = id
		return p
	case models.Transaction:
		p.ID = id
		return p
	default:
		return payload
	}
}
