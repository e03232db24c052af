package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docscrape"
)

// finalSaveTimeout bounds the checkpoint written when a run stops.
const finalSaveTimeout = 10 * time.Second

// Checkpointer periodically persists a run's queue state.
type Checkpointer struct {
	Store    docscrape.CheckpointStore
	Queue    *Queue
	RunID    docscrape.RunID
	Seeds    []string
	Interval time.Duration
	Logger   *slog.Logger
}

// Snapshot returns a consistent copy of the queue state.
func (c *Checkpointer) Snapshot() *docscrape.CheckpointSnapshot {
	return c.Queue.Snapshot(c.RunID, c.Seeds)
}

// Save writes a snapshot. A failure is logged and returned as an
// ECHECKPOINT error; the run itself continues.
func (c *Checkpointer) Save(ctx context.Context) error {
	snap := c.Snapshot()
	if err := c.Store.Save(ctx, snap); err != nil {
		c.logger().Warn("checkpoint save failed",
			"run", c.RunID,
			"pending", len(snap.Pending),
			"err", err,
		)
		return docscrape.Wrap(docscrape.ECHECKPOINT, err, "saving checkpoint")
	}
	return nil
}

// Run saves every Interval until ctx is done, then saves once more.
// A non-positive Interval only performs the final save.
func (c *Checkpointer) Run(ctx context.Context) {
	var tick <-chan time.Time
	if c.Interval > 0 {
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			_ = c.Save(ctx)
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			defer cancel()
			_ = c.Save(fctx)
			return
		}
	}
}

// Delete removes the run's checkpoint.
func (c *Checkpointer) Delete(ctx context.Context) error {
	if err := c.Store.Delete(ctx, c.RunID); err != nil {
		return docscrape.Wrap(docscrape.ECHECKPOINT, err, "deleting checkpoint")
	}
	return nil
}

func (c *Checkpointer) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// RestoreQueue rebuilds a queue from a snapshot. Processed and failed
// records are restored as they were. Pending tasks keep their dispatch
// order, and tasks that were in flight are queued again after them: an
// interrupted fetch is treated as one that never started.
func RestoreQueue(snap *docscrape.CheckpointSnapshot) *Queue {
	q := NewQueue()

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, r := range snap.Processed {
		q.processed[r.URL] = r
		q.seen.Add(r.URL)
	}
	for _, r := range snap.Failed {
		q.failed[r.URL] = r
		q.seen.Add(r.URL)
	}
	restore := func(tasks []docscrape.FetchTask) {
		for _, t := range tasks {
			if q.knownLocked(t.URL) {
				continue
			}
			q.pushLocked(t)
			q.stats.Queued++
		}
	}
	restore(snap.Pending)
	restore(snap.InFlight)
	return q
}
