package models

import "time"

// TablePushStats is the per-table outcome of one push phase.
type TablePushStats struct {
	Table     Table  `json:"table"`
	Phase     string `json:"phase"` // "prune" or "plant"
	Pushed    int    `json:"pushed"`
	Conflicts int    `json:"conflicts"`
	Failures  int    `json:"failures"`
	Batches   int    `json:"batches"`
}

// PushResult is the outcome of one push run across both phases.
type PushResult struct {
	Success        bool             `json:"success"`
	PerTable       []TablePushStats `json:"per_table"`
	TotalPushed    int              `json:"total_pushed"`
	TotalConflicts int              `json:"total_conflicts"`
	TotalFailures  int              `json:"total_failures"`
	Duration       time.Duration    `json:"duration"`
}

// TablePullStats is the per-table outcome of one incremental pull.
type TablePullStats struct {
	Table         Table `json:"table"`
	Applied       int   `json:"applied"`
	Tombstones    int   `json:"tombstones"`
	HighWaterMark int64 `json:"high_water_mark"`
}

// PullResult is the outcome of one incremental pull run.
type PullResult struct {
	Success          bool             `json:"success"`
	PerTable         []TablePullStats `json:"per_table"`
	NewHighWaterMark int64            `json:"new_high_water_mark"`

	// HasMore reports that a table hit the per-cycle record cap while more
	// server-side changes remained; the orchestrator reacts by scheduling an
	// immediate next full cycle.
	HasMore  bool          `json:"has_more"`
	Duration time.Duration `json:"duration"`
}

// HydrationStatus classifies the outcome of an initial hydration run.
type HydrationStatus string

const (
	HydrationCompleted HydrationStatus = "completed"
	HydrationPartial   HydrationStatus = "partial"
	HydrationFailed    HydrationStatus = "failed"
	HydrationNotNeeded HydrationStatus = "not_needed"
	HydrationSkipped   HydrationStatus = "skipped"
)

// HydrationResult is the outcome of the one-shot initial hydration bootstrap.
type HydrationResult struct {
	Status         HydrationStatus `json:"status"`
	PerTableCounts map[Table]int   `json:"per_table_counts"`
	Errors         []string        `json:"errors"`
	Duration       time.Duration   `json:"duration"`
}

// CycleResult combines the push and pull halves of one full sync cycle.
type CycleResult struct {
	Push     PushResult    `json:"push"`
	Pull     PullResult    `json:"pull"`
	Success  bool          `json:"success"`
	Cycles   int           `json:"cycles"` // full cycles run, counting immediate re-cycles
	Duration time.Duration `json:"duration"`
}
