package docscrape

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte

	// Attempts is the number of requests made to obtain this response.
	Attempts int
}

// Fetcher retrieves pages over HTTP.
type Fetcher interface {
	// Fetch retrieves the URL, retrying transient failures internally.
	// Errors are coded ETRANSIENT only while retries remain inside the
	// implementation; a returned error is EPERMANENT, ECANCELED, or
	// EINVALID.
	// The context controls cancellation; each attempt has its own timeout.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases pooled connections.
	Close() error
}

// FetchStats are cumulative client counters.
type FetchStats struct {
	Requests int64 `json:"requests"`
	Attempts int64 `json:"attempts"`
	Retries  int64 `json:"retries"`
	Errors   int64 `json:"errors"`
	Bytes    int64 `json:"bytes"`
}

// StatsReporter is implemented by fetchers that track FetchStats.
type StatsReporter interface {
	Stats() FetchStats
}

// RateLimiter paces outbound requests.
type RateLimiter interface {
	// Acquire blocks until cost tokens are available for a request to
	// host, then debits them. Returns an error only if the context is
	// canceled or cost can never be satisfied.
	Acquire(ctx context.Context, host string, cost int) error

	// Slowdown reduces the effective rate for host for the given period.
	Slowdown(host string, period time.Duration)
}

// FetchError records how many attempts a failed fetch made.
type FetchError struct {
	Attempts int
	Err      error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// FetchAttempts returns the attempts recorded in err's chain, or 1 if
// none are recorded.
func FetchAttempts(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Attempts
	}
	return 1
}
