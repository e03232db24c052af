// Package readability extracts the main content of pages with
// go-readability.
package readability

import (
	"bytes"
	"net/url"

	"github.com/fwojciec/docscrape"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements docscrape.Extractor at compile time.
var _ docscrape.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. Relative
// links in the content are resolved against pageURL.
func (e *Extractor) Extract(rawHTML []byte, pageURL string) (*docscrape.ExtractResult, error) {
	if len(bytes.TrimSpace(rawHTML)) == 0 {
		return nil, docscrape.Errorf(docscrape.EINVALID, "empty HTML input")
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, docscrape.Errorf(docscrape.EINVALID, "invalid page URL %q", pageURL)
	}

	article, err := readability.FromReader(bytes.NewReader(rawHTML), u)
	if err != nil {
		return nil, docscrape.Wrap(docscrape.EPROCESSOR, err, "content extraction failed")
	}

	return &docscrape.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
