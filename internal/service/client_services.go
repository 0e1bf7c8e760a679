package service

import (
	"github.com/ledgerkeep/ledgerkeep/internal/adapter"
	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/validators"
)

// ClientServices bundles every client-side service behind one constructor.
type ClientServices struct {
	Records      RecordService
	Conflicts    ConflictService
	Hydration    HydrationService
	Orchestrator SyncOrchestrator
	SyncJob      SyncJob
}

// NewClientServices wires the full client service graph. The lock manager is
// shared between the push engine and the record service so UI edits landing
// mid-push are buffered instead of racing the in-flight batch; the
// orchestrator doubles as the phase sink both engines report through.
func NewClientServices(storages *store.ClientStorages, remote adapter.RemoteStore, cfg config.Sync, log *logger.Logger) *ClientServices {
	locker := NewLockManager()
	validator := validators.NewRecordValidator()

	orchestrator := NewSyncOrchestrator(nil, nil, cfg, log)
	push := NewPushEngine(storages.Records, remote, validator, locker, cfg, orchestrator.Observe, log)
	pull := NewPullEngine(storages.Records, storages.Metadata, remote, cfg, orchestrator.Observe, log)
	orchestrator.push = push
	orchestrator.pull = pull

	return &ClientServices{
		Records:      NewRecordService(storages.Records, locker, validator, cfg, log),
		Conflicts:    NewConflictService(storages.Conflicts, storages.Records, log),
		Hydration:    NewHydrationService(storages.Records, storages.Metadata, remote, cfg, log),
		Orchestrator: orchestrator,
		SyncJob:      NewSyncJob(orchestrator, log),
	}
}
