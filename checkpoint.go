package docscrape

import (
	"context"
	"time"
)

// CheckpointSnapshot is a point-in-time copy of a run's queue state.
// Snapshots are never modified after they are written.
type CheckpointSnapshot struct {
	RunID     RunID             `json:"runId"`
	Seeds     []string          `json:"seeds"`
	Pending   []FetchTask       `json:"pending"`
	InFlight  []FetchTask       `json:"inFlight"`
	Processed []ProcessedRecord `json:"processed"`
	Failed    []FailedRecord    `json:"failed"`
	CreatedAt time.Time         `json:"createdAt"`
}

// CheckpointStore persists checkpoint snapshots, one per run.
type CheckpointStore interface {
	// Save atomically replaces the run's checkpoint.
	Save(ctx context.Context, snap *CheckpointSnapshot) error

	// Load returns the run's checkpoint.
	// Returns ENOTFOUND if the run has no checkpoint.
	Load(ctx context.Context, runID RunID) (*CheckpointSnapshot, error)

	// Delete removes the run's checkpoint. Deleting a missing
	// checkpoint is not an error.
	Delete(ctx context.Context, runID RunID) error
}
