package crawl

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/bloom"
)

// Queue sizing for the Bloom prefilter.
const (
	// queueExpectedURLs is the expected number of URLs for Bloom filter sizing.
	queueExpectedURLs = 10000
	// queueFalsePositiveRate is the acceptable false positive rate of the prefilter.
	queueFalsePositiveRate = 0.01
)

// QueueCounts is the size of each queue set.
type QueueCounts struct {
	Pending   int
	InFlight  int
	Processed int
	Failed    int
}

// QueueStats are cumulative queue counters.
type QueueStats struct {
	Queued     int64 // tasks accepted by Push, including restored ones
	Duplicates int64 // pushes rejected because the URL was known
	Released   int64 // in-flight tasks returned to pending
}

// Queue is a deduplicating priority queue of fetch tasks. Every URL it
// knows is in exactly one of four sets: pending, in-flight, processed,
// or failed. All transitions happen under one mutex, so Snapshot always
// sees a consistent state.
//
// It is safe for concurrent use by multiple goroutines.
type Queue struct {
	mu sync.Mutex

	seen      *bloom.Filter
	heap      taskHeap
	seq       uint64
	pending   map[string]struct{}
	inFlight  map[string]docscrape.FetchTask
	processed map[string]docscrape.ProcessedRecord
	failed    map[string]docscrape.FailedRecord

	// limit caps the number of URLs the queue will ever accept.
	limit int
	stats QueueStats
	now   func() time.Time

	// changed is closed and replaced on every transition to wake Pop.
	changed chan struct{}
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		seen:      bloom.NewFilter(queueExpectedURLs, queueFalsePositiveRate),
		pending:   make(map[string]struct{}),
		inFlight:  make(map[string]docscrape.FetchTask),
		processed: make(map[string]docscrape.ProcessedRecord),
		failed:    make(map[string]docscrape.FailedRecord),
		now:       time.Now,
		changed:   make(chan struct{}),
	}
}

// SetLimit caps the total number of distinct URLs the queue accepts.
// Zero or a negative value removes the cap.
func (q *Queue) SetLimit(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.limit = n
}

// Push adds a task. The URL is normalized first; tasks whose URL is
// invalid, already known in any set, or beyond the queue limit are
// rejected. Returns true if the task was queued.
func (q *Queue) Push(task docscrape.FetchTask) bool {
	u, err := docscrape.NormalizeURL(task.URL)
	if err != nil {
		return false
	}
	task.URL = u

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.knownLocked(u) {
		q.stats.Duplicates++
		return false
	}
	if q.limit > 0 && q.totalLocked() >= q.limit {
		return false
	}
	q.pushLocked(task)
	q.stats.Queued++
	q.broadcastLocked()
	return true
}

// Pop removes the highest-priority pending task and marks it in-flight.
//
// When nothing is pending but tasks are in flight, Pop waits: a running
// task may still discover new URLs. It returns ok=false only once the
// queue is drained (nothing pending, nothing in flight). A canceled
// context returns an ECANCELED error.
func (q *Queue) Pop(ctx context.Context) (task docscrape.FetchTask, ok bool, err error) {
	for {
		q.mu.Lock()
		if q.heap.Len() > 0 {
			e, _ := heap.Pop(&q.heap).(queueEntry)
			delete(q.pending, e.task.URL)
			q.inFlight[e.task.URL] = e.task
			q.broadcastLocked()
			q.mu.Unlock()
			return e.task, true, nil
		}
		if len(q.inFlight) == 0 {
			q.mu.Unlock()
			return docscrape.FetchTask{}, false, nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return docscrape.FetchTask{}, false, docscrape.Wrap(docscrape.ECANCELED, ctx.Err(), "queue pop")
		}
	}
}

// Complete moves an in-flight URL to the processed or failed set.
// An outcome with a non-nil Err, or with StatusFailed, is recorded as a
// failure classified by its error code. Returns ENOTFOUND if the URL is
// not in flight, so each task completes exactly once.
func (q *Queue) Complete(url string, outcome docscrape.Outcome) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.inFlight[url]
	if !ok {
		return docscrape.Errorf(docscrape.ENOTFOUND, "url %q is not in flight", url)
	}
	delete(q.inFlight, url)

	attempts := max(outcome.Attempts, task.Attempts)
	if outcome.Err != nil || outcome.Status == docscrape.StatusFailed {
		err := outcome.Err
		if err == nil {
			err = docscrape.Errorf(docscrape.EINTERNAL, "task failed")
		}
		q.failed[url] = docscrape.FailedRecord{
			URL:      url,
			Class:    docscrape.ErrorCode(err),
			Reason:   docscrape.ErrorMessage(err),
			Attempts: attempts,
		}
	} else {
		status := outcome.Status
		if status == "" {
			status = docscrape.StatusSuccess
		}
		q.processed[url] = docscrape.ProcessedRecord{
			URL:        url,
			Status:     status,
			ContentRef: outcome.ContentRef,
			FetchedAt:  q.now().UTC(),
		}
	}
	q.broadcastLocked()
	return nil
}

// Release returns an in-flight task to pending without recording an
// outcome. Used when a worker stops before finishing a task.
func (q *Queue) Release(url string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.inFlight[url]
	if !ok {
		return docscrape.Errorf(docscrape.ENOTFOUND, "url %q is not in flight", url)
	}
	delete(q.inFlight, url)
	q.pushLocked(task)
	q.stats.Released++
	q.broadcastLocked()
	return nil
}

// Known reports whether url (normalized) is in any of the four sets.
func (q *Queue) Known(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.knownLocked(url)
}

// Counts returns the current size of each set.
func (q *Queue) Counts() QueueCounts {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueCounts{
		Pending:   q.heap.Len(),
		InFlight:  len(q.inFlight),
		Processed: len(q.processed),
		Failed:    len(q.failed),
	}
}

// Stats returns cumulative queue counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Drained reports whether nothing is pending and nothing is in flight.
func (q *Queue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len() == 0 && len(q.inFlight) == 0
}

// Processed returns the processed records sorted by URL.
func (q *Queue) Processed() []docscrape.ProcessedRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	return sortedProcessed(q.processed)
}

// Failed returns the failed records sorted by URL.
func (q *Queue) Failed() []docscrape.FailedRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	return sortedFailed(q.failed)
}

// Snapshot returns a consistent copy of the queue state. Pending tasks
// are listed in dispatch order.
func (q *Queue) Snapshot(runID docscrape.RunID, seeds []string) *docscrape.CheckpointSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]queueEntry, len(q.heap))
	copy(entries, q.heap)
	sort.Slice(entries, func(i, j int) bool { return entries[i].less(entries[j]) })

	pending := make([]docscrape.FetchTask, len(entries))
	for i, e := range entries {
		pending[i] = e.task
	}

	inFlight := make([]docscrape.FetchTask, 0, len(q.inFlight))
	for _, t := range q.inFlight {
		inFlight = append(inFlight, t)
	}
	sort.Slice(inFlight, func(i, j int) bool { return inFlight[i].URL < inFlight[j].URL })

	return &docscrape.CheckpointSnapshot{
		RunID:     runID,
		Seeds:     append([]string(nil), seeds...),
		Pending:   pending,
		InFlight:  inFlight,
		Processed: sortedProcessed(q.processed),
		Failed:    sortedFailed(q.failed),
		CreatedAt: q.now().UTC(),
	}
}

func (q *Queue) knownLocked(url string) bool {
	if !q.seen.MayContain(url) {
		return false
	}
	if _, ok := q.pending[url]; ok {
		return true
	}
	if _, ok := q.inFlight[url]; ok {
		return true
	}
	if _, ok := q.processed[url]; ok {
		return true
	}
	_, ok := q.failed[url]
	return ok
}

func (q *Queue) totalLocked() int {
	return q.heap.Len() + len(q.inFlight) + len(q.processed) + len(q.failed)
}

func (q *Queue) pushLocked(task docscrape.FetchTask) {
	q.seq++
	heap.Push(&q.heap, queueEntry{task: task, seq: q.seq})
	q.pending[task.URL] = struct{}{}
	q.seen.Add(task.URL)
}

func (q *Queue) broadcastLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func sortedProcessed(m map[string]docscrape.ProcessedRecord) []docscrape.ProcessedRecord {
	out := make([]docscrape.ProcessedRecord, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

func sortedFailed(m map[string]docscrape.FailedRecord) []docscrape.FailedRecord {
	out := make([]docscrape.FailedRecord, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// queueEntry orders tasks by priority, then by discovery order.
type queueEntry struct {
	task docscrape.FetchTask
	seq  uint64
}

func (e queueEntry) less(o queueEntry) bool {
	if e.task.Priority != o.task.Priority {
		return e.task.Priority < o.task.Priority
	}
	return e.seq < o.seq
}

// taskHeap implements heap.Interface as a min-heap on (priority, seq).
type taskHeap []queueEntry

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	e, _ := x.(queueEntry)
	*h = append(*h, e)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
