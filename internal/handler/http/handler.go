package http

import (
	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
)

type Handler struct {
	sync    store.SyncRepository
	authCfg config.Auth

	logger *logger.Logger
}

func NewHandler(sync store.SyncRepository, authCfg config.Auth, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		sync:    sync,
		authCfg: authCfg,
		logger:  logger,
	}
}
