package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService logs each seed expansion. A failed discovery is
// logged at warn level with its error class since the crawl carries on
// with the plain seed.
type LoggingSitemapService struct {
	next   docscrape.SitemapService
	logger *slog.Logger
}

func NewLoggingSitemapService(next docscrape.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, seed string, filter *docscrape.URLFilter) ([]string, error) {
	begin := time.Now()
	urls, err := s.next.DiscoverURLs(ctx, seed, filter)
	if err != nil {
		s.logger.Warn("sitemap expansion failed",
			"seed", seed,
			"class", docscrape.ErrorCode(err),
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}
	s.logger.Info("sitemap expansion",
		"seed", seed,
		"urls", len(urls),
		"filtered", filter != nil,
		"duration", time.Since(begin),
	)
	return urls, nil
}
