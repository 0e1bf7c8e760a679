package config

import "time"

// Default sync engine settings, applied for any knob left unset by every
// configuration source.
const (
	DefaultSyncInterval           = 5 * time.Minute
	DefaultPushBatchSize          = 50
	DefaultPullBatchSize          = 200
	DefaultMaxRetries             = 3
	DefaultInitialRetryDelay      = 500 * time.Millisecond
	DefaultMaxRetryDelay          = 10 * time.Second
	DefaultTombstonePruneDays     = 30
	DefaultMaxPullRecordsPerTable = 1000
	DefaultMaxImmediateCycles     = 5
	DefaultRequestTimeout         = 30 * time.Second
)

func (c *StructuredConfig) applyDefaults() {
	s := &c.Sync
	if s.Interval <= 0 {
		s.Interval = DefaultSyncInterval
	}
	if s.PushBatchSize <= 0 {
		s.PushBatchSize = DefaultPushBatchSize
	}
	if s.PullBatchSize <= 0 {
		s.PullBatchSize = DefaultPullBatchSize
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	if s.InitialRetryDelay <= 0 {
		s.InitialRetryDelay = DefaultInitialRetryDelay
	}
	if s.MaxRetryDelay <= 0 {
		s.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if s.TombstonePruneDays <= 0 {
		s.TombstonePruneDays = DefaultTombstonePruneDays
	}
	if s.MaxPullRecordsPerTable <= 0 {
		s.MaxPullRecordsPerTable = DefaultMaxPullRecordsPerTable
	}
	if s.MaxImmediateCycles <= 0 {
		s.MaxImmediateCycles = DefaultMaxImmediateCycles
	}

	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = DefaultRequestTimeout
	}
}

// validate checks cross-field consistency after all sources were merged and
// defaults applied.
func (c *StructuredConfig) validate() error {
	if c.Sync.InitialRetryDelay > c.Sync.MaxRetryDelay {
		return ErrRetryDelayOrder
	}
	if c.Sync.MaxPullRecordsPerTable < c.Sync.PullBatchSize {
		return ErrPullCapBelowPageSize
	}
	return nil
}
