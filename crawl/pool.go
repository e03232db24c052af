package crawl

import (
	"context"
	"mime"
	"strings"

	"github.com/fwojciec/docscrape"
	"golang.org/x/sync/errgroup"
)

// Pool runs the fetch, process, discover loop over a Queue with a fixed
// number of workers.
type Pool struct {
	Queue     *Queue
	Limiter   docscrape.RateLimiter
	Fetcher   docscrape.Fetcher
	Processor docscrape.PageProcessor
	Store     docscrape.ContentStore // optional
	Tracker   *Tracker               // optional
	Scope     *Scope                 // optional
	RunID     docscrape.RunID
	Workers   int
}

// Run processes tasks until the queue drains or the run is stopped.
//
// Closing stop is a graceful stop: workers finish the task they hold
// and take no new ones. Canceling ctx is a forced stop: in-flight
// fetches are aborted and their tasks return to pending. Per-task
// failures are recorded in the queue and never end the run; Run returns
// an ECANCELED error only after a forced stop.
func (p *Pool) Run(ctx context.Context, stop <-chan struct{}) error {
	gctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-gctx.Done():
		}
	}()

	g := new(errgroup.Group)
	for range max(p.Workers, 1) {
		g.Go(func() error {
			p.work(ctx, gctx, stop)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return docscrape.Wrap(docscrape.ECANCELED, err, "run aborted")
	}
	return nil
}

// work pops tasks until the queue drains. gctx ends on graceful or
// forced stop and guards waiting; ctx ends only on forced stop and
// guards the task itself.
func (p *Pool) work(ctx, gctx context.Context, stop <-chan struct{}) {
	for !stopped(gctx, stop) {
		t, ok, err := p.Queue.Pop(gctx)
		if err != nil || !ok {
			return
		}
		p.handle(ctx, gctx, t)
	}
}

func (p *Pool) handle(ctx, gctx context.Context, t docscrape.FetchTask) {
	if err := p.Limiter.Acquire(gctx, docscrape.Host(t.URL), 1); err != nil {
		_ = p.Queue.Release(t.URL)
		return
	}

	outcome := p.execute(ctx, t)
	if ctx.Err() != nil || docscrape.ErrorCode(outcome.Err) == docscrape.ECANCELED {
		_ = p.Queue.Release(t.URL)
		return
	}

	if err := p.Queue.Complete(t.URL, outcome); err != nil {
		return
	}
	if p.Tracker != nil {
		p.Tracker.Observe(outcome)
	}
}

// execute fetches, processes, and stores one task and pushes the links
// it discovers.
func (p *Pool) execute(ctx context.Context, t docscrape.FetchTask) docscrape.Outcome {
	resp, err := p.Fetcher.Fetch(ctx, t.URL)
	if err != nil {
		return docscrape.Outcome{Attempts: docscrape.FetchAttempts(err), Err: err}
	}
	outcome := docscrape.Outcome{Attempts: resp.Attempts, Bytes: len(resp.Body)}

	if !isHTML(resp.Header.Get("Content-Type")) {
		outcome.Status = docscrape.StatusSkipped
		return outcome
	}

	pageURL := resp.URL
	if pageURL == "" {
		pageURL = t.URL
	}
	result, err := p.process(ctx, pageURL, resp.Body)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Status = docscrape.StatusSkipped
	if result.Page != nil && p.Store != nil {
		ref, err := p.Store.SavePage(ctx, p.RunID, result.Page)
		if err != nil {
			outcome.Err = docscrape.Wrap(docscrape.EINTERNAL, err, "saving page")
			return outcome
		}
		outcome.Status = docscrape.StatusSuccess
		outcome.ContentRef = ref
	} else if result.Page != nil {
		outcome.Status = docscrape.StatusSuccess
	}

	p.enqueue(t, result.Links)
	return outcome
}

// process runs the page processor, converting a panic into an
// EPROCESSOR error.
func (p *Pool) process(ctx context.Context, pageURL string, body []byte) (result *docscrape.ProcessResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, docscrape.Errorf(docscrape.EPROCESSOR, "processor panic: %v", r)
		}
	}()

	result, err = p.Processor.Process(ctx, pageURL, body)
	if err != nil {
		if code := docscrape.ErrorCode(err); code != docscrape.ECANCELED && code != docscrape.EPROCESSOR {
			err = docscrape.Wrap(docscrape.EPROCESSOR, err, "processing page")
		}
		return nil, err
	}
	if result == nil {
		result = &docscrape.ProcessResult{}
	}
	return result, nil
}

// enqueue pushes in-scope links one level deeper than parent. Links never
// outrank seeds.
func (p *Pool) enqueue(parent docscrape.FetchTask, links []docscrape.DiscoveredLink) {
	depth := parent.Depth + 1
	for _, l := range links {
		u, err := docscrape.NormalizeURL(l.URL)
		if err != nil {
			continue
		}
		if p.Scope != nil && !p.Scope.Allows(u, depth) {
			continue
		}
		p.Queue.Push(docscrape.FetchTask{
			URL:      u,
			Priority: max(l.Priority, docscrape.PriorityHigh),
			Depth:    depth,
			Origin:   parent.URL,
		})
	}
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return ctx.Err() != nil
	}
}

// isHTML reports whether a Content-Type denotes an HTML document. A
// missing header is treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}
