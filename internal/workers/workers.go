package workers

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers aggregates background workers so the client can start them
// with a single call.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// SyncWorker starts the periodic sync job for one user. Run returns
// immediately; the job keeps cycling until the context is cancelled.
type SyncWorker struct {
	ctx      context.Context
	job      service.SyncJob
	userID   int64
	interval time.Duration
}

func NewSyncWorker(ctx context.Context, job service.SyncJob, userID int64, interval time.Duration) *SyncWorker {
	return &SyncWorker{ctx: ctx, job: job, userID: userID, interval: interval}
}

func (w *SyncWorker) Run() {
	w.job.Start(w.ctx, w.userID, w.interval)
}

// TombstoneSweep periodically prunes synced tombstones that are past the
// configured retention window. The sweep runs once at startup and then on
// every tick of the interval.
type TombstoneSweep struct {
	ctx      context.Context
	pruner   TombstonePruner
	interval time.Duration
	logger   *logger.Logger

	wg sync.WaitGroup
}

// NewTombstoneSweep creates the sweep worker. If interval is zero or
// negative the sweep runs daily.
func NewTombstoneSweep(ctx context.Context, pruner TombstonePruner, interval time.Duration, log *logger.Logger) *TombstoneSweep {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TombstoneSweep{ctx: ctx, pruner: pruner, interval: interval, logger: log}
}

func (s *TombstoneSweep) Run() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sweep()

		t := time.NewTicker(s.interval)
		defer t.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-t.C:
				s.sweep()
			}
		}
	}()
}

// Wait blocks until the sweep goroutine has exited. It only returns after
// the worker's context is cancelled.
func (s *TombstoneSweep) Wait() {
	s.wg.Wait()
}

func (s *TombstoneSweep) sweep() {
	removed, err := s.pruner.PruneTombstones(s.ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("func", "TombstoneSweep.sweep").Msg("tombstone prune failed")
		return
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("pruned synced tombstones")
	}
}
