package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_FillsEveryUnsetKnob(t *testing.T) {
	cfg := &StructuredConfig{}
	cfg.applyDefaults()

	assert.Equal(t, DefaultSyncInterval, cfg.Sync.Interval)
	assert.Equal(t, DefaultPushBatchSize, cfg.Sync.PushBatchSize)
	assert.Equal(t, DefaultPullBatchSize, cfg.Sync.PullBatchSize)
	assert.Equal(t, DefaultMaxRetries, cfg.Sync.MaxRetries)
	assert.Equal(t, DefaultInitialRetryDelay, cfg.Sync.InitialRetryDelay)
	assert.Equal(t, DefaultMaxRetryDelay, cfg.Sync.MaxRetryDelay)
	assert.Equal(t, DefaultTombstonePruneDays, cfg.Sync.TombstonePruneDays)
	assert.Equal(t, DefaultMaxPullRecordsPerTable, cfg.Sync.MaxPullRecordsPerTable)
	assert.Equal(t, DefaultMaxImmediateCycles, cfg.Sync.MaxImmediateCycles)
	assert.Equal(t, DefaultRequestTimeout, cfg.Server.RequestTimeout)
	assert.Equal(t, DefaultRequestTimeout, cfg.Remote.RequestTimeout)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &StructuredConfig{}
	cfg.Sync.PushBatchSize = 25
	cfg.Sync.Interval = time.Minute

	cfg.applyDefaults()

	assert.Equal(t, 25, cfg.Sync.PushBatchSize)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
}

func TestValidate_RetryDelayOrder(t *testing.T) {
	cfg := &StructuredConfig{}
	cfg.applyDefaults()
	cfg.Sync.InitialRetryDelay = time.Minute
	cfg.Sync.MaxRetryDelay = time.Second

	err := cfg.validate()
	require.ErrorIs(t, err, ErrRetryDelayOrder)
}

func TestValidate_PullCapBelowPageSize(t *testing.T) {
	cfg := &StructuredConfig{}
	cfg.applyDefaults()
	cfg.Sync.PullBatchSize = 500
	cfg.Sync.MaxPullRecordsPerTable = 100

	err := cfg.validate()
	require.ErrorIs(t, err, ErrPullCapBelowPageSize)
}

func TestValidate_DefaultsAreConsistent(t *testing.T) {
	cfg := &StructuredConfig{}
	cfg.applyDefaults()
	require.NoError(t, cfg.validate())
}

func TestParseJSON_FullFile(t *testing.T) {
	raw := `{
		"auth": {"token_sign_key": "k", "token_issuer": "ledgerkeep", "token_duration": "24h"},
		"storage": {"db": {"dsn": "postgres://localhost/ledger"}, "local": {"path": "ledger.db"}},
		"server": {"http_address": "0.0.0.0:8080", "request_timeout": "30s"},
		"remote": {"base_url": "https://sync.example.com", "token": "t", "request_timeout": "15s"},
		"sync": {
			"interval": "2m",
			"push_batch_size": 50,
			"pull_batch_size": 100,
			"max_retries": 4,
			"initial_retry_delay": "250ms",
			"max_retry_delay": "5s",
			"sync_on_focus": true,
			"sync_on_reconnect": true,
			"tombstone_prune_days": 14,
			"max_pull_records_per_table": 500,
			"max_immediate_cycles": 3
		}
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "ledgerkeep", cfg.Auth.TokenIssuer)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, "postgres://localhost/ledger", cfg.Storage.DB.DSN)
	assert.Equal(t, "ledger.db", cfg.Storage.Local.DSN)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, "https://sync.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.InitialRetryDelay)
	assert.True(t, cfg.Sync.SyncOnFocus)
	assert.Equal(t, 500, cfg.Sync.MaxPullRecordsPerTable)
	assert.Equal(t, 3, cfg.Sync.MaxImmediateCycles)
}

func TestParseJSON_MissingFile(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{name: "string form", input: `"90s"`, want: 90 * time.Second},
		{name: "numeric nanoseconds", input: `1000000000`, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			require.NoError(t, json.Unmarshal([]byte(tt.input), &d))
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDuration_UnmarshalJSON_BadString(t *testing.T) {
	var d Duration
	require.Error(t, json.Unmarshal([]byte(`"not-a-duration"`), &d))
}

func TestParseEnv_ReadsSyncKnobs(t *testing.T) {
	t.Setenv("SYNC_PUSH_BATCH_SIZE", "75")
	t.Setenv("SYNC_INTERVAL", "90s")
	t.Setenv("STORAGE_LOCAL_DATABASE_PATH", "/tmp/ledger.db")

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, 75, cfg.Sync.PushBatchSize)
	assert.Equal(t, 90*time.Second, cfg.Sync.Interval)
	assert.Equal(t, "/tmp/ledger.db", cfg.Storage.Local.DSN)
}
