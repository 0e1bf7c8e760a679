package service

import (
	"context"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type conflictService struct {
	conflicts store.ConflictRepository
	records   store.LocalRecordRepository
	logger    *logger.Logger
}

func NewConflictService(conflicts store.ConflictRepository, records store.LocalRecordRepository, log *logger.Logger) ConflictService {
	return &conflictService{conflicts: conflicts, records: records, logger: log}
}

func (s *conflictService) ListConflicts(ctx context.Context) ([]models.Conflict, error) {
	return s.conflicts.ListConflicts(ctx)
}

// RetryConflict keeps the local version of the record: the conflict row is
// dropped and the record goes back to pending, so the next push re-submits
// it carrying whatever version the server last assigned.
func (s *conflictService) RetryConflict(ctx context.Context, id string) error {
	conflict, err := s.conflicts.GetConflict(ctx, id)
	if err != nil {
		return fmt.Errorf("load conflict: %w", err)
	}

	if err = s.conflicts.DeleteConflict(ctx, id); err != nil {
		return fmt.Errorf("delete conflict: %w", err)
	}

	if err = s.records.SetRecordStatus(ctx, conflict.Table, id, models.StatusPending); err != nil {
		return fmt.Errorf("re-stage record: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("func", "conflictService.RetryConflict").
		Str("table", conflict.Table.String()).
		Str("id", id).
		Msg("conflict re-staged for push")

	return nil
}

// DiscardConflict accepts the server's version: the conflict row and the
// local record are both removed, and the next pull restores the server copy.
func (s *conflictService) DiscardConflict(ctx context.Context, id string) error {
	conflict, err := s.conflicts.GetConflict(ctx, id)
	if err != nil {
		return fmt.Errorf("load conflict: %w", err)
	}

	if err = s.conflicts.DeleteConflict(ctx, id); err != nil {
		return fmt.Errorf("delete conflict: %w", err)
	}

	if err = s.records.HardDeleteRecord(ctx, conflict.Table, id); err != nil {
		return fmt.Errorf("drop local record: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("func", "conflictService.DiscardConflict").
		Str("table", conflict.Table.String()).
		Str("id", id).
		Msg("conflict discarded, server copy wins")

	return nil
}
