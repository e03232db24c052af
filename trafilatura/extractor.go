// Package trafilatura extracts the main content of documentation pages
// with go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"

	"github.com/fwojciec/docscrape"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements docscrape.Extractor at compile time.
var _ docscrape.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML []byte, pageURL string) (*docscrape.ExtractResult, error) {
	if len(bytes.TrimSpace(rawHTML)) == 0 {
		return nil, docscrape.Errorf(docscrape.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		IncludeLinks:    true,
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(bytes.NewReader(rawHTML), opts)
	if err != nil {
		return nil, docscrape.Wrap(docscrape.EPROCESSOR, err, "content extraction failed")
	}

	var buf bytes.Buffer
	if result.ContentNode != nil {
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, docscrape.Wrap(docscrape.EPROCESSOR, err, "rendering extracted content")
		}
	}

	return &docscrape.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: buf.String(),
	}, nil
}
