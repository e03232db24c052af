package crawl_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/crawl"
	"github.com/fwojciec/docscrape/mock"
)

// memCheckpoints is an in-memory docscrape.CheckpointStore.
type memCheckpoints struct {
	mu      sync.Mutex
	snaps   map[docscrape.RunID]*docscrape.CheckpointSnapshot
	saves   int
	deletes int
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{snaps: make(map[docscrape.RunID]*docscrape.CheckpointSnapshot)}
}

func (s *memCheckpoints) Save(_ context.Context, snap *docscrape.CheckpointSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.RunID] = snap
	s.saves++
	return nil
}

func (s *memCheckpoints) Load(_ context.Context, id docscrape.RunID) (*docscrape.CheckpointSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return nil, docscrape.Errorf(docscrape.ENOTFOUND, "no checkpoint")
	}
	return snap, nil
}

func (s *memCheckpoints) Delete(_ context.Context, id docscrape.RunID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	s.deletes++
	return nil
}

func (s *memCheckpoints) get(id docscrape.RunID) *docscrape.CheckpointSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snaps[id]
}

// site is a fake documentation site: each page lists the paths it links to.
// Unknown pages fail permanently like a 404.
type site map[string][]string

func (s site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*docscrape.Response, error) {
			path := strings.TrimPrefix(url, "https://example.com")
			links, ok := s[path]
			if !ok {
				return nil, &docscrape.FetchError{
					Attempts: 1,
					Err:      docscrape.Errorf(docscrape.EPERMANENT, "HTTP 404"),
				}
			}
			var b strings.Builder
			for _, l := range links {
				b.WriteString(`<a href="` + l + `">x</a>`)
			}
			return &docscrape.Response{
				URL:        url,
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
				Body:       []byte(b.String()),
				Attempts:   1,
			}, nil
		},
	}
}

// hrefProcessor returns a page for every URL and the hrefs in its body.
func hrefProcessor() *mock.PageProcessor {
	return &mock.PageProcessor{
		ProcessFn: func(_ context.Context, url string, body []byte) (*docscrape.ProcessResult, error) {
			var links []docscrape.DiscoveredLink
			for _, part := range strings.Split(string(body), `href="`)[1:] {
				href := part[:strings.Index(part, `"`)]
				links = append(links, docscrape.DiscoveredLink{
					URL:      "https://example.com" + href,
					Priority: docscrape.PriorityNormal,
				})
			}
			return &docscrape.ProcessResult{
				Page:  &docscrape.Page{URL: url, Title: url, Content: string(body)},
				Links: links,
			}, nil
		},
	}
}

// pageRecorder is a ContentStore that remembers saved URLs.
type pageRecorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *pageRecorder) SavePage(_ context.Context, _ docscrape.RunID, p *docscrape.Page) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, p.URL)
	return "ref:" + p.URL, nil
}

func (r *pageRecorder) saved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

func testConfig() docscrape.Config {
	cfg := docscrape.DefaultConfig()
	cfg.RateLimit = 1000
	cfg.Burst = 100
	cfg.MaxWorkers = 3
	cfg.ProgressInterval = 5 * time.Millisecond
	return cfg
}

func newTestCrawler(t *testing.T, s site) (*crawl.Crawler, *memCheckpoints, *pageRecorder) {
	t.Helper()
	cfg := testConfig()
	store := newMemCheckpoints()
	pages := &pageRecorder{}
	return &crawl.Crawler{
		Config:      cfg,
		Fetcher:     s.fetcher(),
		Limiter:     crawl.NewLimiter(cfg.RateLimit, cfg.Burst),
		Processor:   hrefProcessor(),
		Store:       pages,
		Checkpoints: store,
	}, store, pages
}
