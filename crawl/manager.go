package crawl

import (
	"context"
	"sync"

	"github.com/fwojciec/docscrape"
	"github.com/google/uuid"
)

// CrawlerFactory builds the crawler for a run from its configuration.
type CrawlerFactory func(cfg docscrape.Config) (*Crawler, error)

// Manager starts runs in the background and lets callers cancel, watch,
// and wait for them.
type Manager struct {
	build CrawlerFactory

	mu   sync.Mutex
	runs map[docscrape.RunID]*run
}

type run struct {
	progress *Broadcaster
	stop     chan struct{}
	abort    context.CancelFunc
	done     chan struct{}

	// guarded by Manager.mu
	cancels int

	// written before done is closed
	summary *docscrape.Summary
	err     error
}

// NewManager returns a Manager that builds crawlers with build.
func NewManager(build CrawlerFactory) *Manager {
	return &Manager{
		build: build,
		runs:  make(map[docscrape.RunID]*run),
	}
}

// Begin validates cfg, starts a run, and returns its id. The run does
// not depend on ctx after Begin returns.
func (m *Manager) Begin(ctx context.Context, seeds []string, cfg docscrape.Config) (docscrape.RunID, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if cfg.RunID == "" {
		cfg.RunID = docscrape.RunID(uuid.NewString())
	}
	id := cfg.RunID

	c, err := m.build(cfg)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if r, ok := m.runs[id]; ok {
		select {
		case <-r.done:
		default:
			m.mu.Unlock()
			if c.Fetcher != nil {
				_ = c.Fetcher.Close()
			}
			return "", docscrape.Errorf(docscrape.EINVALID, "run %s is already active", id)
		}
	}
	rctx, abort := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{
		progress: NewBroadcaster(),
		stop:     make(chan struct{}),
		abort:    abort,
		done:     make(chan struct{}),
	}
	m.runs[id] = r
	m.mu.Unlock()

	c.Observer = Observers{c.Observer, r.progress}

	go func() {
		defer close(r.done)
		defer abort()
		defer func() {
			if c.Fetcher != nil {
				_ = c.Fetcher.Close()
			}
		}()
		r.summary, r.err = c.Run(rctx, id, seeds, r.stop)
		// Runs that fail to start never emit; end subscriptions anyway.
		r.progress.OnProgress(docscrape.ProgressSnapshot{RunID: id, Done: true})
	}()
	return id, nil
}

// Cancel stops a run. The first call is graceful: tasks in progress
// finish and no new ones start. A second call aborts tasks in progress.
// Canceling a finished run is a no-op.
func (m *Manager) Cancel(id docscrape.RunID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return docscrape.Errorf(docscrape.ENOTFOUND, "run %s not found", id)
	}
	r.cancels++
	switch r.cancels {
	case 1:
		close(r.stop)
	case 2:
		r.abort()
	}
	return nil
}

// Subscribe returns a channel of progress snapshots for a run and a
// function that ends the subscription. The channel closes after the
// final snapshot.
func (m *Manager) Subscribe(id docscrape.RunID) (<-chan docscrape.ProgressSnapshot, func(), error) {
	r, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch, unsubscribe := r.progress.Subscribe()
	return ch, unsubscribe, nil
}

// Progress returns the latest progress snapshot of a run.
func (m *Manager) Progress(id docscrape.RunID) (docscrape.ProgressSnapshot, error) {
	r, err := m.lookup(id)
	if err != nil {
		return docscrape.ProgressSnapshot{}, err
	}
	snap := r.progress.Last()
	snap.RunID = id
	return snap, nil
}

// Wait blocks until the run ends and returns its summary.
func (m *Manager) Wait(ctx context.Context, id docscrape.RunID) (*docscrape.Summary, error) {
	r, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	select {
	case <-r.done:
		return r.summary, r.err
	case <-ctx.Done():
		return nil, docscrape.Wrap(docscrape.ECANCELED, ctx.Err(), "waiting for run %s", id)
	}
}

func (m *Manager) lookup(id docscrape.RunID) (*run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, docscrape.Errorf(docscrape.ENOTFOUND, "run %s not found", id)
	}
	return r, nil
}
