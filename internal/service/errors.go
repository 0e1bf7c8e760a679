package service

import "errors"

var (
	// ErrSyncInProgress is returned when a second sync entry point is called
	// while a cycle is already running. The caller should back off; the
	// running cycle will pick up any newly staged changes on its next run.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrDependencyCycle means the table dependency declaration does not
	// form a DAG. It is a programming error and fatal at startup.
	ErrDependencyCycle = errors.New("table dependency cycle")

	// ErrNoLocalStore is returned by operations that need the local store
	// when the engine was wired without one.
	ErrNoLocalStore = errors.New("no local store configured")

	ErrRecordPayloadMissing = errors.New("record payload is required")
)
