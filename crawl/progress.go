package crawl

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/docscrape"
)

// Tracker aggregates run progress. Observe is lock-free; Sample combines
// the counters with queue sizes and client statistics.
type Tracker struct {
	runID docscrape.RunID
	queue *Queue
	stats docscrape.StatsReporter
	start time.Time
	now   func() time.Time

	processed atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64
	attempts  atomic.Int64
	errors    atomic.Int64
}

// NewTracker returns a Tracker for a run. stats may be nil, in which
// case request and error counts come from observed outcomes.
func NewTracker(runID docscrape.RunID, q *Queue, stats docscrape.StatsReporter) *Tracker {
	return &Tracker{
		runID: runID,
		queue: q,
		stats: stats,
		start: time.Now(),
		now:   time.Now,
	}
}

// Observe records a completed task.
func (t *Tracker) Observe(o docscrape.Outcome) {
	if o.Err != nil || o.Status == docscrape.StatusFailed {
		t.failed.Add(1)
		t.errors.Add(1)
	} else {
		t.processed.Add(1)
	}
	t.bytes.Add(int64(o.Bytes))
	t.attempts.Add(int64(max(o.Attempts, 1)))
}

// Sample returns the current progress.
func (t *Tracker) Sample() docscrape.ProgressSnapshot {
	processed, failed := t.processed.Load(), t.failed.Load()
	elapsed := t.now().Sub(t.start)

	snap := docscrape.ProgressSnapshot{
		RunID:           t.runID,
		Processed:       processed,
		Failed:          failed,
		BytesDownloaded: t.bytes.Load(),
		Requests:        t.attempts.Load(),
		Errors:          t.errors.Load(),
		Elapsed:         elapsed,
	}
	if t.stats != nil {
		s := t.stats.Stats()
		snap.Requests = s.Attempts
		snap.Errors = s.Errors
		snap.BytesDownloaded = s.Bytes
	}
	if t.queue != nil {
		c := t.queue.Counts()
		snap.Pending = c.Pending
		snap.InFlight = c.InFlight
	}
	if secs := elapsed.Seconds(); secs > 0 {
		snap.Rate = float64(processed+failed) / secs
	}
	return snap
}

// Run emits a sample to obs every interval until ctx is done, then emits
// a final sample with Done set. Slow observers delay the next tick
// rather than queueing samples.
func (t *Tracker) Run(ctx context.Context, interval time.Duration, obs docscrape.ProgressObserver) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			snap := t.Sample()
			snap.Done = true
			obs.OnProgress(snap)
			return
		case <-ticker.C:
			obs.OnProgress(t.Sample())
		}
	}
}

// Observers fans a snapshot out to several observers in order.
type Observers []docscrape.ProgressObserver

// OnProgress forwards snap to every non-nil observer.
func (o Observers) OnProgress(snap docscrape.ProgressSnapshot) {
	for _, obs := range o {
		if obs != nil {
			obs.OnProgress(snap)
		}
	}
}

// Broadcaster delivers snapshots to any number of subscribers. A
// subscriber that falls behind loses its oldest unread snapshot, never
// the newest. Subscriptions end after the Done snapshot.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan docscrape.ProgressSnapshot
	next   int
	last   docscrape.ProgressSnapshot
	closed bool
}

// NewBroadcaster returns a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan docscrape.ProgressSnapshot)}
}

// OnProgress implements docscrape.ProgressObserver.
func (b *Broadcaster) OnProgress(snap docscrape.ProgressSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.last = snap
	for _, ch := range b.subs {
		deliver(ch, snap)
	}
	if snap.Done {
		b.closed = true
		for id, ch := range b.subs {
			close(ch)
			delete(b.subs, id)
		}
	}
}

// Subscribe returns a channel of snapshots and a function that ends the
// subscription. Subscribing after the run finished yields the final
// snapshot on an already closed channel.
func (b *Broadcaster) Subscribe() (<-chan docscrape.ProgressSnapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan docscrape.ProgressSnapshot, 8)
	if b.closed {
		ch <- b.last
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				close(c)
				delete(b.subs, id)
			}
		})
	}
}

// Last returns the most recent snapshot.
func (b *Broadcaster) Last() docscrape.ProgressSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// deliver sends snap, discarding the oldest buffered snapshot when ch is
// full. Only called with the broadcaster lock held, so ch has a single
// sender.
func deliver(ch chan docscrape.ProgressSnapshot, snap docscrape.ProgressSnapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
