package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type syncOrchestrator struct {
	push   PushService
	pull   PullService
	cfg    config.Sync
	logger *logger.Logger

	mu           sync.Mutex
	isSyncing    bool
	phase        SyncPhase
	lastSyncedAt time.Time
	lastError    error
}

// NewSyncOrchestrator builds the cycle sequencer. The returned orchestrator
// also acts as the PhaseFunc its engines report through; wire it with
// Observe.
func NewSyncOrchestrator(push PushService, pull PullService, cfg config.Sync, log *logger.Logger) *syncOrchestrator {
	return &syncOrchestrator{
		push:   push,
		pull:   pull,
		cfg:    cfg,
		phase:  PhaseIdle,
		logger: log,
	}
}

// Observe is the PhaseFunc the push and pull engines report through.
func (o *syncOrchestrator) Observe(phase SyncPhase) {
	o.mu.Lock()
	o.phase = phase
	o.mu.Unlock()
}

// RunFullCycle pushes then pulls, re-cycling immediately while the pull
// reports more server data than the per-table cap allowed, bounded by
// MaxImmediateCycles.
func (o *syncOrchestrator) RunFullCycle(ctx context.Context, userID int64) (models.CycleResult, error) {
	if err := o.begin(); err != nil {
		return models.CycleResult{}, err
	}
	defer o.end()

	log := logger.FromContext(ctx)
	start := time.Now()

	maxCycles := o.cfg.MaxImmediateCycles
	if maxCycles <= 0 {
		maxCycles = config.DefaultMaxImmediateCycles
	}

	var result models.CycleResult
	for cycle := 1; cycle <= maxCycles; cycle++ {
		result.Cycles = cycle

		pushResult, err := o.push.PushPendingChanges(ctx, userID)
		result.Push = pushResult
		if err != nil {
			return o.fail(result, start, fmt.Errorf("push: %w", err))
		}

		pullResult, err := o.pull.PullIncrementalChanges(ctx, userID)
		result.Pull = pullResult
		if err != nil {
			return o.fail(result, start, fmt.Errorf("pull: %w", err))
		}

		if !pullResult.HasMore {
			break
		}

		log.Info().
			Str("func", "syncOrchestrator.RunFullCycle").
			Int("cycle", cycle).
			Msg("pull truncated by per-table cap, scheduling immediate re-cycle")
	}

	result.Success = result.Push.Success && result.Pull.Success
	result.Duration = time.Since(start)

	o.mu.Lock()
	if result.Success {
		o.phase = PhaseIdle
		o.lastSyncedAt = time.Now().UTC()
		o.lastError = nil
	} else {
		// the engines returned normally but some units failed and stayed
		// pending; that is still a failed cycle for status consumers
		o.phase = PhaseError
		o.lastError = cycleFailure(result)
	}
	o.mu.Unlock()

	return result, nil
}

// PushPendingChanges runs the push half alone, under the same in-progress
// guard as a full cycle.
func (o *syncOrchestrator) PushPendingChanges(ctx context.Context, userID int64) (models.PushResult, error) {
	if err := o.begin(); err != nil {
		return models.PushResult{}, err
	}
	defer o.end()

	result, err := o.push.PushPendingChanges(ctx, userID)
	o.finishSingle(err, result.Success, pushFailure(result))
	return result, err
}

// PullIncrementalChanges runs the pull half alone, under the same
// in-progress guard as a full cycle.
func (o *syncOrchestrator) PullIncrementalChanges(ctx context.Context, userID int64) (models.PullResult, error) {
	if err := o.begin(); err != nil {
		return models.PullResult{}, err
	}
	defer o.end()

	result, err := o.pull.PullIncrementalChanges(ctx, userID)
	o.finishSingle(err, result.Success, pullFailure())
	return result, err
}

func (o *syncOrchestrator) Status() SyncPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *syncOrchestrator) LastSyncedAt() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSyncedAt
}

func (o *syncOrchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

// begin claims the single in-progress slot or reports ErrSyncInProgress.
func (o *syncOrchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.isSyncing {
		return ErrSyncInProgress
	}
	o.isSyncing = true
	return nil
}

func (o *syncOrchestrator) end() {
	o.mu.Lock()
	o.isSyncing = false
	o.mu.Unlock()
}

func (o *syncOrchestrator) fail(result models.CycleResult, start time.Time, err error) (models.CycleResult, error) {
	result.Success = false
	result.Duration = time.Since(start)

	o.mu.Lock()
	o.phase = PhaseError
	o.lastError = err
	o.mu.Unlock()

	return result, err
}

// finishSingle records the outcome of a single-phase run: err is the
// exception path, failure is the recorded summary when the engine returned
// normally but reported failed units.
func (o *syncOrchestrator) finishSingle(err error, success bool, failure error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.phase = PhaseError
		o.lastError = err
		return
	}
	if !success {
		o.phase = PhaseError
		o.lastError = failure
		return
	}
	o.phase = PhaseIdle
	o.lastSyncedAt = time.Now().UTC()
	o.lastError = nil
}

// pushFailure and pullFailure summarise engine-level failures so status
// consumers see why the last run did not fully succeed even though no
// error was raised.
func pushFailure(result models.PushResult) error {
	return fmt.Errorf("push finished with %d failed records", result.TotalFailures)
}

func pullFailure() error {
	return errors.New("pull finished with failed tables")
}

func cycleFailure(result models.CycleResult) error {
	switch {
	case !result.Push.Success && !result.Pull.Success:
		return fmt.Errorf("push finished with %d failed records and pull finished with failed tables",
			result.Push.TotalFailures)
	case !result.Push.Success:
		return pushFailure(result.Push)
	default:
		return pullFailure()
	}
}
