package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
)

type syncJob struct {
	orchestrator SyncOrchestrator
	logger       *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	trigger chan struct{}
	wg      sync.WaitGroup
}

// NewSyncJob creates a background job that runs full sync cycles on a
// ticker, with an immediate-trigger path for focus and reconnect nudges.
// The job is idle until Start is called.
func NewSyncJob(orchestrator SyncOrchestrator, log *logger.Logger) SyncJob {
	return &syncJob{
		orchestrator: orchestrator,
		logger:       log,
		trigger:      make(chan struct{}, 1),
	}
}

// Start stops any previously running job, then launches a background
// goroutine that runs a full cycle every interval or on Trigger, whichever
// comes first. If interval is zero or negative it defaults to 5 minutes.
// The goroutine exits when ctx is cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context, userID int64, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.runCycle(jobCtx, userID)
			case <-j.trigger:
				j.runCycle(jobCtx, userID)
			}
		}
	}()
}

// Stop cancels the background goroutine's context and blocks until it has
// fully exited. Safe to call when the job is not running.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// Trigger requests an immediate cycle without blocking. When a nudge is
// already queued the new one is dropped; the queued cycle covers both.
func (j *syncJob) Trigger() {
	select {
	case j.trigger <- struct{}{}:
	default:
	}
}

func (j *syncJob) runCycle(ctx context.Context, userID int64) {
	if _, err := j.orchestrator.RunFullCycle(ctx, userID); err != nil {
		// an overlapping manual run is expected; everything else is logged
		if errors.Is(err, ErrSyncInProgress) {
			return
		}
		j.logger.Err(err).
			Str("func", "syncJob.runCycle").
			Int64("user_id", userID).
			Msg("background sync cycle failed")
	}
}
