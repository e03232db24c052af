package mock

import (
	"context"
	"time"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of docscrape.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*docscrape.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*docscrape.Response, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ docscrape.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of docscrape.RateLimiter.
type RateLimiter struct {
	AcquireFn  func(ctx context.Context, host string, cost int) error
	SlowdownFn func(host string, period time.Duration)
}

func (l *RateLimiter) Acquire(ctx context.Context, host string, cost int) error {
	return l.AcquireFn(ctx, host, cost)
}

func (l *RateLimiter) Slowdown(host string, period time.Duration) {
	l.SlowdownFn(host, period)
}
