package goquery

import "github.com/fwojciec/docscrape"

var _ docscrape.LinkSelector = (*Selector)(nil)

// Selector extracts links from a page by region.
type Selector struct {
	name    string
	regions []Region
}

// NewSelector returns a selector that scans regions in order and then
// picks up any remaining anchors at low priority.
func NewSelector(name string, regions ...Region) *Selector {
	return &Selector{
		name:    name,
		regions: append(regions, fallbackRegion),
	}
}

// Name returns the selector's identifier.
func (s *Selector) Name() string {
	return s.name
}

// ExtractLinks parses HTML and returns discovered links with priority.
func (s *Selector) ExtractLinks(html []byte, baseURL string) ([]docscrape.DiscoveredLink, error) {
	return extractLinks(html, baseURL, s.regions)
}

// NewGenericSelector returns a selector based on common HTML landmarks.
func NewGenericSelector() *Selector {
	return NewSelector("generic",
		Region{".toc a[href], .table-of-contents a[href], .sidebar a[href], aside a[href]", docscrape.PriorityHigh, "toc"},
		Region{`nav a[href], [role="navigation"] a[href], .nav a[href], .menu a[href], .navbar a[href]`, docscrape.PriorityHigh, "nav"},
		Region{"main a[href], article a[href], .content a[href], .doc-content a[href]", docscrape.PriorityNormal, "content"},
		Region{"footer a[href], .footer a[href]", docscrape.PriorityLow, "footer"},
	)
}

// NewDocusaurusSelector targets Docusaurus v2 and v3 sites.
func NewDocusaurusSelector() *Selector {
	return NewSelector(string(docscrape.FrameworkDocusaurus),
		Region{".theme-doc-sidebar-container a[href], .table-of-contents a[href]", docscrape.PriorityHigh, "toc"},
		Region{"nav.navbar a[href], .pagination-nav a[href]", docscrape.PriorityHigh, "nav"},
		Region{"article a[href], main a[href]", docscrape.PriorityNormal, "content"},
		Region{"footer a[href]", docscrape.PriorityLow, "footer"},
	)
}

// NewMkDocsSelector targets MkDocs, including the Material theme.
func NewMkDocsSelector() *Selector {
	return NewSelector(string(docscrape.FrameworkMkDocs),
		Region{".md-nav--primary a[href], [data-md-component='navigation'] a[href], .wy-menu-vertical a[href]", docscrape.PriorityHigh, "toc"},
		Region{".md-sidebar--secondary a[href], [data-md-component='toc'] a[href], .md-tabs a[href]", docscrape.PriorityHigh, "nav"},
		Region{".md-content a[href], article a[href], [role='main'] a[href]", docscrape.PriorityNormal, "content"},
		Region{"footer a[href]", docscrape.PriorityLow, "footer"},
	)
}

// NewSphinxSelector targets Sphinx, including the Read the Docs theme.
func NewSphinxSelector() *Selector {
	return NewSelector(string(docscrape.FrameworkSphinx),
		Region{".toctree-wrapper a[href], .wy-menu-vertical a[href], .sphinxsidebarwrapper a[href], .bd-sidebar a[href]", docscrape.PriorityHigh, "toc"},
		Region{".rst-versions a[href], .related a[href], nav a[href]", docscrape.PriorityHigh, "nav"},
		Region{"[role='main'] a[href], .body a[href], .document a[href]", docscrape.PriorityNormal, "content"},
		Region{"footer a[href], .footer a[href]", docscrape.PriorityLow, "footer"},
	)
}

// NewVuePressSelector targets VuePress and VitePress sites.
func NewVuePressSelector() *Selector {
	return NewSelector(string(docscrape.FrameworkVuePress),
		Region{".sidebar a[href], .VPSidebar a[href], .sidebar-links a[href]", docscrape.PriorityHigh, "toc"},
		Region{".navbar a[href], .VPNav a[href], .VPDocAsideOutline a[href]", docscrape.PriorityHigh, "nav"},
		Region{".theme-default-content a[href], .VPDoc a[href], main a[href]", docscrape.PriorityNormal, "content"},
		Region{"footer a[href], .page-nav a[href]", docscrape.PriorityLow, "footer"},
	)
}

// NewAntoraSelector targets Antora sites.
func NewAntoraSelector() *Selector {
	return NewSelector(string(docscrape.FrameworkAntora),
		Region{".nav-menu a[href], .toc a[href]", docscrape.PriorityHigh, "toc"},
		Region{".navbar a[href], .breadcrumbs a[href]", docscrape.PriorityHigh, "nav"},
		Region{"article.doc a[href], main a[href]", docscrape.PriorityNormal, "content"},
		Region{"footer a[href]", docscrape.PriorityLow, "footer"},
	)
}
