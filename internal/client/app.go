package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/service"
	"github.com/ledgerkeep/ledgerkeep/internal/workers"
)

// App is the sync daemon application. It owns the service graph and the
// background workers and blocks in Run until the process is signalled.
type App struct {
	services *service.ClientServices
	userID   int64
	cfg      config.Sync
	logger   *logger.Logger
}

func NewApp(services *service.ClientServices, userID int64, cfg config.Sync, log *logger.Logger) (*App, error) {
	if services == nil {
		return nil, errors.New("client services are required")
	}

	return &App{
		services: services,
		userID:   userID,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// Run hydrates an empty local store, performs an initial full sync cycle,
// then starts the periodic sync job and the tombstone sweep. It blocks
// until SIGTERM, SIGINT or SIGQUIT.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := a.hydrateIfNeeded(ctx); err != nil {
		return err
	}

	if cycle, err := a.services.Orchestrator.RunFullCycle(ctx, a.userID); err != nil {
		a.logger.Warn().Err(err).Msg("initial sync cycle failed")
	} else if !cycle.Success {
		a.logger.Warn().Msg("initial sync cycle finished with failures")
	}

	workers.NewWorkers(
		workers.NewSyncWorker(ctx, a.services.SyncJob, a.userID, a.cfg.Interval),
		workers.NewTombstoneSweep(ctx, a.services.Records, 0, a.logger),
	).Run()

	if a.cfg.SyncOnFocus || a.cfg.SyncOnReconnect {
		a.listenForNudges(ctx)
	}

	<-ctx.Done()

	a.services.SyncJob.Stop()
	a.logger.Info().Msg("sync daemon stopped")

	return nil
}

// listenForNudges requests an immediate sync cycle on SIGUSR1. The UI (or a
// network watcher) sends the signal when the app regains focus or
// connectivity returns.
func (a *App) listenForNudges(ctx context.Context) {
	nudge := make(chan os.Signal, 1)
	signal.Notify(nudge, syscall.SIGUSR1)

	go func() {
		defer signal.Stop(nudge)
		for {
			select {
			case <-ctx.Done():
				return
			case <-nudge:
				a.logger.Debug().Msg("sync nudge received")
				a.services.SyncJob.Trigger()
			}
		}
	}()
}

func (a *App) hydrateIfNeeded(ctx context.Context) error {
	needed, err := a.services.Hydration.IsHydrationNeeded(ctx)
	if err != nil {
		return fmt.Errorf("hydration check: %w", err)
	}
	if !needed {
		return nil
	}

	a.logger.Info().Msg("empty local store, hydrating from remote")

	result, err := a.services.Hydration.Hydrate(ctx, a.userID)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	total := 0
	for _, n := range result.PerTableCounts {
		total += n
	}
	a.logger.Info().
		Str("status", string(result.Status)).
		Int("records", total).
		Msg("hydration finished")

	return nil
}
