package crawl

import (
	"net/url"
	"strings"

	"github.com/fwojciec/docscrape"
)

// Scope decides which discovered links a run follows.
type Scope struct {
	// prefixes maps each seed host to the path prefixes allowed on it.
	// Nil means any host is allowed.
	prefixes map[string][]string
	filter   *docscrape.URLFilter
	maxDepth int
}

// NewScope builds the scope of a run from its seeds and configuration.
// With SameHost set, links must stay on a seed's host and under the
// directory of that seed's path.
func NewScope(seeds []string, cfg docscrape.Config) *Scope {
	s := &Scope{filter: cfg.Filter, maxDepth: cfg.MaxDepth}
	if !cfg.SameHost {
		return s
	}

	s.prefixes = make(map[string][]string)
	for _, seed := range seeds {
		n, err := docscrape.NormalizeURL(seed)
		if err != nil {
			continue
		}
		u, _ := url.Parse(n)
		s.prefixes[u.Host] = append(s.prefixes[u.Host], pathDir(u.Path))
	}
	return s
}

// Allows reports whether a normalized URL discovered at depth is in scope.
func (s *Scope) Allows(rawURL string, depth int) bool {
	if s.maxDepth >= 0 && depth > s.maxDepth {
		return false
	}
	if !s.filter.Match(rawURL) {
		return false
	}
	if s.prefixes == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, p := range s.prefixes[u.Host] {
		if strings.HasPrefix(u.Path, p) || u.Path == strings.TrimSuffix(p, "/") {
			return true
		}
	}
	return false
}

// pathDir returns the directory part of p, always ending in a slash.
func pathDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "/"
	}
	return p[:i+1]
}
