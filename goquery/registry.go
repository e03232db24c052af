package goquery

import (
	"sync"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.LinkSelectorRegistry = (*Registry)(nil)

// Registry picks a framework-specific link selector for a page, falling
// back to a generic selector when the framework is unknown or has no
// registered selector. It is safe for concurrent use.
type Registry struct {
	detector docscrape.FrameworkDetector
	fallback docscrape.LinkSelector

	mu        sync.RWMutex
	selectors map[docscrape.Framework]docscrape.LinkSelector
}

// NewRegistry creates a new Registry with the given detector and fallback selector.
func NewRegistry(detector docscrape.FrameworkDetector, fallback docscrape.LinkSelector) *Registry {
	return &Registry{
		detector:  detector,
		fallback:  fallback,
		selectors: make(map[docscrape.Framework]docscrape.LinkSelector),
	}
}

// NewDefaultRegistry returns a registry with every built-in selector.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(NewDetector(), NewGenericSelector())
	r.Register(docscrape.FrameworkDocusaurus, NewDocusaurusSelector())
	r.Register(docscrape.FrameworkMkDocs, NewMkDocsSelector())
	r.Register(docscrape.FrameworkSphinx, NewSphinxSelector())
	r.Register(docscrape.FrameworkVuePress, NewVuePressSelector())
	r.Register(docscrape.FrameworkAntora, NewAntoraSelector())
	return r
}

// GetForHTML detects the framework from HTML and returns the appropriate selector.
func (r *Registry) GetForHTML(html []byte) docscrape.LinkSelector {
	framework := r.detector.Detect(html)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if selector, ok := r.selectors[framework]; ok {
		return selector
	}
	return r.fallback
}

// Register adds a selector for a framework, replacing any existing one.
func (r *Registry) Register(framework docscrape.Framework, selector docscrape.LinkSelector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectors[framework] = selector
}
