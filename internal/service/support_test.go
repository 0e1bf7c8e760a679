package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/models"
)

// testContext carries a no-op logger so services can log without a wired
// global.
func testContext() context.Context {
	log := zerolog.Nop()
	return log.WithContext(context.Background())
}

// stubRecordRepo is a function-field stub of store.LocalRecordRepository.
// Unset fields behave as successful no-ops. It avoids mockgen for the local
// repositories since most tests only touch two or three methods.
type stubRecordRepo struct {
	saveRecords    func(ctx context.Context, records ...models.Record) error
	getRecord      func(ctx context.Context, table models.Table, id string) (models.Record, error)
	getPending     func(ctx context.Context, table models.Table, tombstoned bool) ([]models.Record, error)
	applyOutcome   func(ctx context.Context, table models.Table, outcome store.PushOutcome) error
	applyPullPage  func(ctx context.Context, table models.Table, records []models.Record, hwm int64) error
	updateFields   func(ctx context.Context, table models.Table, id string, fields map[string]any) error
	setStatus      func(ctx context.Context, table models.Table, id string, status models.SyncStatus) error
	softDelete     func(ctx context.Context, table models.Table, id string) error
	hardDelete     func(ctx context.Context, table models.Table, id string) error
	countActive    func(ctx context.Context, table models.Table) (int, error)
	pruneTombstone func(ctx context.Context, table models.Table, olderThan time.Time) (int64, error)
	clearTable     func(ctx context.Context, table models.Table) error
}

func (s *stubRecordRepo) SaveRecords(ctx context.Context, records ...models.Record) error {
	if s.saveRecords != nil {
		return s.saveRecords(ctx, records...)
	}
	return nil
}

func (s *stubRecordRepo) GetRecord(ctx context.Context, table models.Table, id string) (models.Record, error) {
	if s.getRecord != nil {
		return s.getRecord(ctx, table, id)
	}
	return models.Record{}, store.ErrRecordNotFound
}

func (s *stubRecordRepo) GetPendingRecords(ctx context.Context, table models.Table, tombstoned bool) ([]models.Record, error) {
	if s.getPending != nil {
		return s.getPending(ctx, table, tombstoned)
	}
	return nil, nil
}

func (s *stubRecordRepo) ApplyPushOutcome(ctx context.Context, table models.Table, outcome store.PushOutcome) error {
	if s.applyOutcome != nil {
		return s.applyOutcome(ctx, table, outcome)
	}
	return nil
}

func (s *stubRecordRepo) ApplyPullPage(ctx context.Context, table models.Table, records []models.Record, hwm int64) error {
	if s.applyPullPage != nil {
		return s.applyPullPage(ctx, table, records, hwm)
	}
	return nil
}

func (s *stubRecordRepo) UpdateRecordFields(ctx context.Context, table models.Table, id string, fields map[string]any) error {
	if s.updateFields != nil {
		return s.updateFields(ctx, table, id, fields)
	}
	return nil
}

func (s *stubRecordRepo) SetRecordStatus(ctx context.Context, table models.Table, id string, status models.SyncStatus) error {
	if s.setStatus != nil {
		return s.setStatus(ctx, table, id, status)
	}
	return nil
}

func (s *stubRecordRepo) SoftDeleteRecord(ctx context.Context, table models.Table, id string) error {
	if s.softDelete != nil {
		return s.softDelete(ctx, table, id)
	}
	return nil
}

func (s *stubRecordRepo) HardDeleteRecord(ctx context.Context, table models.Table, id string) error {
	if s.hardDelete != nil {
		return s.hardDelete(ctx, table, id)
	}
	return nil
}

func (s *stubRecordRepo) CountActiveRecords(ctx context.Context, table models.Table) (int, error) {
	if s.countActive != nil {
		return s.countActive(ctx, table)
	}
	return 0, nil
}

func (s *stubRecordRepo) PruneTombstones(ctx context.Context, table models.Table, olderThan time.Time) (int64, error) {
	if s.pruneTombstone != nil {
		return s.pruneTombstone(ctx, table, olderThan)
	}
	return 0, nil
}

func (s *stubRecordRepo) ClearTable(ctx context.Context, table models.Table) error {
	if s.clearTable != nil {
		return s.clearTable(ctx, table)
	}
	return nil
}

// stubMetadataRepo is a function-field stub of store.SyncMetadataRepository.
type stubMetadataRepo struct {
	getMetadata    func(ctx context.Context, table models.Table) (models.SyncMetadata, error)
	getAllMetadata func(ctx context.Context) ([]models.SyncMetadata, error)
	saveMetadata   func(ctx context.Context, meta models.SyncMetadata) error
	setLastError   func(ctx context.Context, table models.Table, message string) error
	countMetadata  func(ctx context.Context) (int, error)
	clearMetadata  func(ctx context.Context) error
}

func (s *stubMetadataRepo) GetMetadata(ctx context.Context, table models.Table) (models.SyncMetadata, error) {
	if s.getMetadata != nil {
		return s.getMetadata(ctx, table)
	}
	return models.SyncMetadata{Table: table}, nil
}

func (s *stubMetadataRepo) GetAllMetadata(ctx context.Context) ([]models.SyncMetadata, error) {
	if s.getAllMetadata != nil {
		return s.getAllMetadata(ctx)
	}
	return nil, nil
}

func (s *stubMetadataRepo) SaveMetadata(ctx context.Context, meta models.SyncMetadata) error {
	if s.saveMetadata != nil {
		return s.saveMetadata(ctx, meta)
	}
	return nil
}

func (s *stubMetadataRepo) SetLastError(ctx context.Context, table models.Table, message string) error {
	if s.setLastError != nil {
		return s.setLastError(ctx, table, message)
	}
	return nil
}

func (s *stubMetadataRepo) CountMetadata(ctx context.Context) (int, error) {
	if s.countMetadata != nil {
		return s.countMetadata(ctx)
	}
	return 0, nil
}

func (s *stubMetadataRepo) ClearMetadata(ctx context.Context) error {
	if s.clearMetadata != nil {
		return s.clearMetadata(ctx)
	}
	return nil
}

// stubConflictRepo is a function-field stub of store.ConflictRepository.
type stubConflictRepo struct {
	saveConflict   func(ctx context.Context, conflict models.Conflict) error
	listConflicts  func(ctx context.Context) ([]models.Conflict, error)
	getConflict    func(ctx context.Context, id string) (models.Conflict, error)
	deleteConflict func(ctx context.Context, id string) error
}

func (s *stubConflictRepo) SaveConflict(ctx context.Context, conflict models.Conflict) error {
	if s.saveConflict != nil {
		return s.saveConflict(ctx, conflict)
	}
	return nil
}

func (s *stubConflictRepo) ListConflicts(ctx context.Context) ([]models.Conflict, error) {
	if s.listConflicts != nil {
		return s.listConflicts(ctx)
	}
	return nil, nil
}

func (s *stubConflictRepo) GetConflict(ctx context.Context, id string) (models.Conflict, error) {
	if s.getConflict != nil {
		return s.getConflict(ctx, id)
	}
	return models.Conflict{}, store.ErrRecordNotFound
}

func (s *stubConflictRepo) DeleteConflict(ctx context.Context, id string) error {
	if s.deleteConflict != nil {
		return s.deleteConflict(ctx, id)
	}
	return nil
}
