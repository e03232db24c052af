// Package slog decorates docscrape services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docscrape"
)

var (
	_ docscrape.Fetcher       = (*LoggingFetcher)(nil)
	_ docscrape.StatsReporter = (*LoggingFetcher)(nil)
)

// LoggingFetcher wraps a Fetcher with debug logging of every fetch.
// Failures are logged at warn level.
type LoggingFetcher struct {
	next   docscrape.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next docscrape.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the result.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (resp *docscrape.Response, err error) {
	defer func(begin time.Time) {
		if err != nil {
			f.logger.Warn("fetch",
				"url", url,
				"attempts", docscrape.FetchAttempts(err),
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		f.logger.Debug("fetch",
			"url", url,
			"status", resp.StatusCode,
			"bytes", len(resp.Body),
			"attempts", resp.Attempts,
			"duration", time.Since(begin),
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Stats reports the wrapped fetcher's stats, if it tracks any.
func (f *LoggingFetcher) Stats() docscrape.FetchStats {
	if sr, ok := f.next.(docscrape.StatsReporter); ok {
		return sr.Stats()
	}
	return docscrape.FetchStats{}
}
