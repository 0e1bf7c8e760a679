package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d server database DSN
//	-local-db local SQLite database path
//	-remote remote store base URL
//	-token remote store bearer token
//	-c/-config json file path with configs
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "24h")
//	-request-timeout request timeout (e.g., "30s")
//	-sync-interval background cycle cadence (e.g., "5m")
//	-push-batch-size records per table per push batch
//	-pull-batch-size records per table per pull page
//	-max-retries transient failure retry bound
//	-tombstone-prune-days local tombstone retention in days
//	-max-pull-records safety cap per table per pull cycle
func ParseFlags() *StructuredConfig {
	var serverAddress string
	var databaseDSN string
	var localDBPath string
	var remoteBaseURL string
	var remoteToken string
	var jsonConfigPath string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var pushBatchSize int
	var pullBatchSize int
	var maxRetries int
	var tombstonePruneDays int
	var maxPullRecords int

	flag.StringVar(&serverAddress, "a", "", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Server database DSN")
	flag.StringVar(&localDBPath, "local-db", "", "Local SQLite database path")
	flag.StringVar(&remoteBaseURL, "remote", "", "Remote store base URL")
	flag.StringVar(&remoteToken, "token", "", "Remote store bearer token")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 24h)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync cycle cadence (e.g., 5m)")
	flag.IntVar(&pushBatchSize, "push-batch-size", 0, "Records per table per push batch")
	flag.IntVar(&pullBatchSize, "pull-batch-size", 0, "Records per table per pull page")
	flag.IntVar(&maxRetries, "max-retries", 0, "Transient failure retry bound")
	flag.IntVar(&tombstonePruneDays, "tombstone-prune-days", 0, "Local tombstone retention in days")
	flag.IntVar(&maxPullRecords, "max-pull-records", 0, "Safety cap per table per pull cycle")

	flag.Parse()

	return &StructuredConfig{
		Auth: Auth{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Local: LocalDB{
				DSN: localDBPath,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress,
			RequestTimeout: requestTimeout,
		},
		Remote: Remote{
			BaseURL:        remoteBaseURL,
			Token:          remoteToken,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			Interval:               syncInterval,
			PushBatchSize:          pushBatchSize,
			PullBatchSize:          pullBatchSize,
			MaxRetries:             maxRetries,
			TombstonePruneDays:     tombstonePruneDays,
			MaxPullRecordsPerTable: maxPullRecords,
		},
		JSONFilePath: jsonConfigPath,
	}
}
