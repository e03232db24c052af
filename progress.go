package docscrape

import "time"

// ProgressSnapshot is an observational sample of a run's progress.
type ProgressSnapshot struct {
	RunID           RunID         `json:"runId"`
	Processed       int64         `json:"processed"`
	Failed          int64         `json:"failed"`
	Pending         int           `json:"pending"`
	InFlight        int           `json:"inFlight"`
	BytesDownloaded int64         `json:"bytesDownloaded"`
	Requests        int64         `json:"requests"`
	Errors          int64         `json:"errors"`
	Elapsed         time.Duration `json:"elapsed"`
	Rate            float64       `json:"rate"` // completed URLs per second
	Done            bool          `json:"done"`
}

// ProgressObserver receives progress snapshots.
// Implementations must not block for long; they are called from the
// run's emitter goroutine.
type ProgressObserver interface {
	OnProgress(snap ProgressSnapshot)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(ProgressSnapshot)

// OnProgress calls f(snap).
func (f ProgressFunc) OnProgress(snap ProgressSnapshot) { f(snap) }
