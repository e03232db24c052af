package mock

import "github.com/fwojciec/docscrape"

var _ docscrape.LinkSelector = (*LinkSelector)(nil)

// LinkSelector is a mock implementation of docscrape.LinkSelector.
type LinkSelector struct {
	ExtractLinksFn func(html []byte, baseURL string) ([]docscrape.DiscoveredLink, error)
	NameFn         func() string
}

func (s *LinkSelector) ExtractLinks(html []byte, baseURL string) ([]docscrape.DiscoveredLink, error) {
	return s.ExtractLinksFn(html, baseURL)
}

func (s *LinkSelector) Name() string {
	return s.NameFn()
}

var _ docscrape.FrameworkDetector = (*FrameworkDetector)(nil)

// FrameworkDetector is a mock implementation of docscrape.FrameworkDetector.
type FrameworkDetector struct {
	DetectFn func(html []byte) docscrape.Framework
}

func (d *FrameworkDetector) Detect(html []byte) docscrape.Framework {
	return d.DetectFn(html)
}

var _ docscrape.LinkSelectorRegistry = (*LinkSelectorRegistry)(nil)

// LinkSelectorRegistry is a mock implementation of docscrape.LinkSelectorRegistry.
type LinkSelectorRegistry struct {
	GetForHTMLFn func(html []byte) docscrape.LinkSelector
	RegisterFn   func(framework docscrape.Framework, selector docscrape.LinkSelector)
}

func (r *LinkSelectorRegistry) GetForHTML(html []byte) docscrape.LinkSelector {
	return r.GetForHTMLFn(html)
}

func (r *LinkSelectorRegistry) Register(framework docscrape.Framework, selector docscrape.LinkSelector) {
	r.RegisterFn(framework, selector)
}
