// Package crawl runs documentation scraping: a deduplicating priority
// queue feeds a pool of workers that fetch pages under a rate limit,
// process them, and queue the links they discover. Runs report progress
// and checkpoint their queue so an interrupted run can resume.
package crawl

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fwojciec/docscrape"
)

// Crawler orchestrates one documentation scraping run.
type Crawler struct {
	Config      docscrape.Config
	Fetcher     docscrape.Fetcher
	Limiter     docscrape.RateLimiter
	Processor   docscrape.PageProcessor
	Store       docscrape.ContentStore     // optional
	Checkpoints docscrape.CheckpointStore  // optional
	Sitemaps    docscrape.SitemapService   // optional; expands seeds
	Observer    docscrape.ProgressObserver // optional
	Logger      *slog.Logger
}

// Run crawls from seeds until the queue drains or the run is stopped.
// Closing stop finishes the tasks in progress and stops; canceling ctx
// aborts them. Either way the final queue state is checkpointed and the
// returned summary is marked interrupted.
//
// With Config.Resume set the queue is restored from the run's
// checkpoint, if one exists. Errors are returned only when the run
// cannot start.
func (c *Crawler) Run(ctx context.Context, id docscrape.RunID, seeds []string, stop <-chan struct{}) (*docscrape.Summary, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	q, seeds, err := c.prepareQueue(ctx, id, seeds)
	if err != nil {
		return nil, err
	}
	if c.Config.MaxPages > 0 {
		q.SetLimit(c.Config.MaxPages)
	}
	if c.Sitemaps != nil && !q.Drained() {
		c.expandSeeds(ctx, q, seeds, logger)
	}
	if n := q.Counts(); n.Pending+n.Processed+n.Failed == 0 {
		return nil, docscrape.Errorf(docscrape.EINVALID, "no valid seed URLs")
	}

	var stats docscrape.StatsReporter
	if sr, ok := c.Fetcher.(docscrape.StatsReporter); ok {
		stats = sr
	}
	tracker := NewTracker(id, q, stats)

	var checkpointer *Checkpointer
	if c.Checkpoints != nil {
		checkpointer = &Checkpointer{
			Store:    c.Checkpoints,
			Queue:    q,
			RunID:    id,
			Seeds:    seeds,
			Interval: c.Config.CheckpointInterval,
			Logger:   logger,
		}
	}

	// Background loops outlive a forced stop so the final progress sample
	// and checkpoint are still written.
	bgctx, bgcancel := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	if c.Observer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Run(bgctx, c.Config.ProgressInterval, c.Observer)
		}()
	}
	if checkpointer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checkpointer.Run(bgctx)
		}()
	}

	pool := &Pool{
		Queue:     q,
		Limiter:   c.Limiter,
		Fetcher:   c.Fetcher,
		Processor: c.Processor,
		Store:     c.Store,
		Tracker:   tracker,
		Scope:     NewScope(seeds, c.Config),
		RunID:     id,
		Workers:   c.Config.MaxWorkers,
	}
	runErr := pool.Run(ctx, stop)

	bgcancel()
	wg.Wait()

	summary := Summarize(id, q)
	qs := q.Stats()
	logger.Info("run finished",
		"run", id,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"pending", summary.Pending,
		"interrupted", summary.Interrupted,
		"queued", qs.Queued,
		"duplicates", qs.Duplicates,
		"released", qs.Released,
		"err", runErr,
	)

	if checkpointer != nil && !summary.Interrupted && !c.Config.KeepCheckpoint {
		if err := checkpointer.Delete(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("checkpoint cleanup failed", "run", id, "err", err)
		}
	}
	return summary, nil
}

// prepareQueue builds the run's queue, restoring it from a checkpoint
// when resuming, and pushes the seeds. It returns the seeds of record.
func (c *Crawler) prepareQueue(ctx context.Context, id docscrape.RunID, seeds []string) (*Queue, []string, error) {
	q := NewQueue()
	if c.Config.Resume && c.Checkpoints != nil {
		snap, err := c.Checkpoints.Load(ctx, id)
		switch {
		case err == nil:
			q = RestoreQueue(snap)
			if len(seeds) == 0 {
				seeds = snap.Seeds
			}
		case docscrape.ErrorCode(err) != docscrape.ENOTFOUND:
			return nil, nil, docscrape.Wrap(docscrape.ECHECKPOINT, err, "loading checkpoint")
		}
	}

	var valid []string
	for _, s := range seeds {
		n, err := docscrape.NormalizeURL(s)
		if err != nil {
			continue
		}
		valid = append(valid, n)
		q.Push(docscrape.FetchTask{URL: n, Priority: docscrape.PriorityCritical})
	}
	return q, valid, nil
}

// expandSeeds queues the sitemap URLs of every seed. Discovery failures
// are logged and otherwise ignored.
func (c *Crawler) expandSeeds(ctx context.Context, q *Queue, seeds []string, logger *slog.Logger) {
	scope := NewScope(seeds, c.Config)
	for _, seed := range seeds {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, seed, c.Config.Filter)
		if err != nil {
			logger.Warn("sitemap discovery failed", "seed", seed, "err", err)
			continue
		}
		for _, u := range urls {
			n, err := docscrape.NormalizeURL(u)
			if err != nil || !scope.Allows(n, 0) {
				continue
			}
			q.Push(docscrape.FetchTask{URL: n, Priority: docscrape.PriorityHigh, Origin: seed})
		}
	}
}

// Summarize reports the outcome of a run from its queue.
func Summarize(id docscrape.RunID, q *Queue) *docscrape.Summary {
	counts := q.Counts()
	s := &docscrape.Summary{
		RunID:           id,
		Pending:         counts.Pending + counts.InFlight,
		FailuresByClass: make(map[string]int),
		Failures:        []docscrape.Failure{},
		Interrupted:     counts.Pending+counts.InFlight > 0,
	}
	for _, r := range q.Processed() {
		if r.Status == docscrape.StatusSkipped {
			s.Skipped++
		} else {
			s.Processed++
		}
	}
	for _, r := range q.Failed() {
		s.Failed++
		s.FailuresByClass[r.Class]++
		s.Failures = append(s.Failures, docscrape.Failure{URL: r.URL, Class: r.Class})
	}
	return s
}
