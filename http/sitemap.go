package http

import (
	"bufio"
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/docscrape"
)

// Ensure SitemapService implements docscrape.SitemapService.
var _ docscrape.SitemapService = (*SitemapService)(nil)

// maxSitemaps bounds how many sitemap documents one discovery reads.
const maxSitemaps = 200

// SitemapService discovers URLs from website sitemaps.
type SitemapService struct {
	fetcher docscrape.Fetcher
}

// NewSitemapService creates a SitemapService that fetches through f.
func NewSitemapService(f docscrape.Fetcher) *SitemapService {
	return &SitemapService{fetcher: f}
}

// DiscoverURLs finds all URLs from a site's sitemap.
// Returns an empty slice (not nil) if no sitemaps are found.
//
// When baseURL has a non-root path (e.g., https://example.com/docs/),
// only URLs with paths under that prefix are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *docscrape.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, docscrape.Wrap(docscrape.ECANCELED, err, "sitemap discovery canceled")
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, docscrape.Errorf(docscrape.EINVALID, "invalid base URL %q", baseURL)
	}
	prefix := base.Path
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	root := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	sitemaps, err := s.findSitemaps(ctx, root)
	if err != nil {
		return nil, err
	}

	w := &sitemapWalker{fetcher: s.fetcher, seen: make(map[string]bool)}
	for _, sm := range sitemaps {
		if err := w.walk(ctx, sm); err != nil {
			return nil, err
		}
	}

	urls := []string{}
	seen := make(map[string]bool)
	for _, u := range w.urls {
		if seen[u] || !underPrefix(u, prefix) || !filter.Match(u) {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls, nil
}

// findSitemaps reads Sitemap: directives from robots.txt, falling back
// to /sitemap.xml.
func (s *SitemapService) findSitemaps(ctx context.Context, root *url.URL) ([]string, error) {
	resp, err := s.fetcher.Fetch(ctx, root.JoinPath("robots.txt").String())
	if err != nil {
		if docscrape.ErrorCode(err) == docscrape.ECANCELED {
			return nil, err
		}
		return []string{root.JoinPath("sitemap.xml").String()}, nil
	}

	var sitemaps []string
	scanner := bufio.NewScanner(bytes.NewReader(resp.Body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 8 && strings.EqualFold(line[:8], "sitemap:") {
			if sm := strings.TrimSpace(line[8:]); sm != "" {
				sitemaps = append(sitemaps, sm)
			}
		}
	}
	if len(sitemaps) == 0 {
		sitemaps = []string{root.JoinPath("sitemap.xml").String()}
	}
	return sitemaps, nil
}

type sitemapWalker struct {
	fetcher docscrape.Fetcher
	seen    map[string]bool
	urls    []string
}

// walk collects page URLs from a urlset, recursing into sitemap indexes.
// Unreachable or malformed sitemaps are skipped.
func (w *sitemapWalker) walk(ctx context.Context, sitemapURL string) error {
	if w.seen[sitemapURL] || len(w.seen) >= maxSitemaps {
		return nil
	}
	w.seen[sitemapURL] = true

	resp, err := w.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		if docscrape.ErrorCode(err) == docscrape.ECANCELED {
			return err
		}
		return nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp.Body); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}

	if root.Tag == "sitemapindex" {
		for _, sm := range root.SelectElements("sitemap") {
			if loc := locText(sm); loc != "" {
				if err := w.walk(ctx, loc); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, el := range root.SelectElements("url") {
		if loc := locText(el); loc != "" {
			w.urls = append(w.urls, loc)
		}
	}
	return nil
}

func locText(el *etree.Element) string {
	loc := el.SelectElement("loc")
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(loc.Text())
}

// underPrefix reports whether rawURL's path lies under prefix, which is
// empty or ends with a slash. "/docs/" matches "/docs" and "/docs/intro"
// but not "/documentation".
func underPrefix(rawURL, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, prefix) || u.Path == strings.TrimSuffix(prefix, "/")
}
