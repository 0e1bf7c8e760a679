package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON field names and
// duration strings ("5m", "30s") instead of nanosecond integers.
type StructuredJSONConfig struct {
	Auth struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
	} `json:"auth,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Local struct {
			DSN string `json:"path"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Remote struct {
		BaseURL        string   `json:"base_url"`
		Token          string   `json:"token"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"remote,omitempty"`

	Sync struct {
		Interval               Duration `json:"interval"`
		PushBatchSize          int      `json:"push_batch_size"`
		PullBatchSize          int      `json:"pull_batch_size"`
		MaxRetries             int      `json:"max_retries"`
		InitialRetryDelay      Duration `json:"initial_retry_delay"`
		MaxRetryDelay          Duration `json:"max_retry_delay"`
		SyncOnFocus            bool     `json:"sync_on_focus"`
		SyncOnReconnect        bool     `json:"sync_on_reconnect"`
		TombstonePruneDays     int      `json:"tombstone_prune_days"`
		MaxPullRecordsPerTable int      `json:"max_pull_records_per_table"`
		MaxImmediateCycles     int      `json:"max_immediate_cycles"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Auth: Auth{
			TokenSignKey:  jsonCfg.Auth.TokenSignKey,
			TokenIssuer:   jsonCfg.Auth.TokenIssuer,
			TokenDuration: time.Duration(jsonCfg.Auth.TokenDuration),
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Local: LocalDB{
				DSN: jsonCfg.Storage.Local.DSN,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Remote: Remote{
			BaseURL:        jsonCfg.Remote.BaseURL,
			Token:          jsonCfg.Remote.Token,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
		},
		Sync: Sync{
			Interval:               time.Duration(jsonCfg.Sync.Interval),
			PushBatchSize:          jsonCfg.Sync.PushBatchSize,
			PullBatchSize:          jsonCfg.Sync.PullBatchSize,
			MaxRetries:             jsonCfg.Sync.MaxRetries,
			InitialRetryDelay:      time.Duration(jsonCfg.Sync.InitialRetryDelay),
			MaxRetryDelay:          time.Duration(jsonCfg.Sync.MaxRetryDelay),
			SyncOnFocus:            jsonCfg.Sync.SyncOnFocus,
			SyncOnReconnect:        jsonCfg.Sync.SyncOnReconnect,
			TombstonePruneDays:     jsonCfg.Sync.TombstonePruneDays,
			MaxPullRecordsPerTable: jsonCfg.Sync.MaxPullRecordsPerTable,
			MaxImmediateCycles:     jsonCfg.Sync.MaxImmediateCycles,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
