// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface, a Workers aggregate that starts multiple
// workers in a unified way, and the concrete workers the sync client runs:
// the periodic sync cycle and the daily tombstone sweep.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
// It defines a single Run method that starts the worker's execution.
//
// Implementations are expected to return quickly and spawn goroutines
// internally; their lifetime is bounded by the context given at construction.
type Worker interface {
	Run()
}

// TombstonePruner removes synced tombstones past their retention window
// and reports how many rows were dropped.
type TombstonePruner interface {
	PruneTombstones(ctx context.Context) (int64, error)
}
