package config

import "errors"

// Validation errors returned by [StructuredConfig.validate]. Callers should
// match with [errors.Is].
var (
	// ErrRetryDelayOrder is returned when the initial retry delay exceeds the
	// maximum retry delay.
	ErrRetryDelayOrder = errors.New("initial retry delay exceeds max retry delay")

	// ErrPullCapBelowPageSize is returned when the per-cycle pull record cap
	// is smaller than a single pull page, which would make every pull report
	// HasMore without progress.
	ErrPullCapBelowPageSize = errors.New("max pull records per table is below pull batch size")
)
