package main

import (
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/adapter"
	"github.com/ledgerkeep/ledgerkeep/internal/client"
	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/service"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/utils"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("ledgerkeep-syncd")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	userID, err := utils.ExtractUserIDFromToken(cfg.Remote.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("error reading user from remote token")
	}

	remote, err := adapter.NewHTTPRemoteStore(cfg.Remote, cfg.Sync, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating remote store")
	}

	localStorage, err := store.NewClientStorages(cfg.Storage.Local, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating local storage")
	}

	services := service.NewClientServices(localStorage, remote, cfg.Sync, log)

	app, err := client.NewApp(services, userID, cfg.Sync, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init sync daemon error")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("sync daemon run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
