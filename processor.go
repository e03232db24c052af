package docscrape

import "context"

// DiscoveredLink is a link found on a page.
type DiscoveredLink struct {
	URL      string
	Priority Priority
	Text     string
	Source   string // "toc", "nav", "content", "footer", "fallback"
}

// Page is the extracted content of a fetched documentation page.
type Page struct {
	URL     string
	Title   string
	Content string // Markdown
}

// ProcessResult is what a PageProcessor returns for one page.
// Page is nil for processors that only discover links.
type ProcessResult struct {
	Page  *Page
	Links []DiscoveredLink
}

// PageProcessor turns a fetched page into content and discovered links.
// Implementations must not have side effects; persistence is the
// caller's responsibility.
type PageProcessor interface {
	Process(ctx context.Context, url string, body []byte) (*ProcessResult, error)
}

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML fetched from pageURL.
	Extract(html []byte, pageURL string) (*ExtractResult, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms clean HTML (e.g., from an Extractor) into Markdown.
	Convert(html string) (string, error)
}

// Framework identifies a documentation framework.
type Framework string

// Documentation frameworks with dedicated link selectors.
const (
	FrameworkUnknown    Framework = ""
	FrameworkDocusaurus Framework = "docusaurus"
	FrameworkMkDocs     Framework = "mkdocs"
	FrameworkSphinx     Framework = "sphinx"
	FrameworkVuePress   Framework = "vuepress"
	FrameworkAntora     Framework = "antora"
)

// LinkSelector extracts prioritized links from HTML.
type LinkSelector interface {
	// ExtractLinks parses HTML and returns discovered links with priority.
	// The baseURL is used to resolve relative URLs.
	ExtractLinks(html []byte, baseURL string) ([]DiscoveredLink, error)

	// Name returns the selector's identifier (e.g., "docusaurus", "generic").
	Name() string
}

// FrameworkDetector identifies documentation frameworks from HTML.
type FrameworkDetector interface {
	// Detect returns FrameworkUnknown if the framework cannot be determined.
	Detect(html []byte) Framework
}

// LinkSelectorRegistry picks a link selector for a page.
type LinkSelectorRegistry interface {
	// GetForHTML detects the framework from HTML and returns the appropriate selector.
	// Falls back to a generic selector if the framework is unknown.
	GetForHTML(html []byte) LinkSelector

	// Register adds a selector for a framework.
	Register(framework Framework, selector LinkSelector)
}

// ContentStore persists extracted pages.
type ContentStore interface {
	// SavePage stores the page for the run and returns an opaque
	// reference to it. Saving the same URL twice within a run replaces
	// the earlier content.
	SavePage(ctx context.Context, runID RunID, page *Page) (ref string, err error)
}
