package crawl

import (
	"context"
	"strings"

	"github.com/fwojciec/docscrape"
)

var (
	_ docscrape.PageProcessor = (*DocProcessor)(nil)
	_ docscrape.PageProcessor = (*LinkProcessor)(nil)
)

// DocProcessor extracts a page's main content as Markdown and discovers
// its links.
type DocProcessor struct {
	Extractor docscrape.Extractor
	Converter docscrape.Converter
	Links     docscrape.LinkSelectorRegistry
}

// Process returns the page and its links. A page whose extracted
// content is empty yields only links.
func (p *DocProcessor) Process(ctx context.Context, pageURL string, body []byte) (*docscrape.ProcessResult, error) {
	links, err := discoverLinks(p.Links, pageURL, body)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, docscrape.Wrap(docscrape.ECANCELED, err, "processing canceled")
	}

	extracted, err := p.Extractor.Extract(body, pageURL)
	if err != nil {
		return nil, docscrape.Wrap(docscrape.EPROCESSOR, err, "extracting content")
	}
	if strings.TrimSpace(extracted.ContentHTML) == "" {
		return &docscrape.ProcessResult{Links: links}, nil
	}

	md, err := p.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		return nil, docscrape.Wrap(docscrape.EPROCESSOR, err, "converting to markdown")
	}

	return &docscrape.ProcessResult{
		Page: &docscrape.Page{
			URL:     pageURL,
			Title:   extracted.Title,
			Content: md,
		},
		Links: links,
	}, nil
}

// LinkProcessor only discovers links; it never produces a page.
type LinkProcessor struct {
	Links docscrape.LinkSelectorRegistry
}

// Process returns the links found in body.
func (p *LinkProcessor) Process(_ context.Context, pageURL string, body []byte) (*docscrape.ProcessResult, error) {
	links, err := discoverLinks(p.Links, pageURL, body)
	if err != nil {
		return nil, err
	}
	return &docscrape.ProcessResult{Links: links}, nil
}

func discoverLinks(r docscrape.LinkSelectorRegistry, pageURL string, body []byte) ([]docscrape.DiscoveredLink, error) {
	if r == nil {
		return nil, nil
	}
	links, err := r.GetForHTML(body).ExtractLinks(body, pageURL)
	if err != nil {
		return nil, docscrape.Wrap(docscrape.EPROCESSOR, err, "extracting links")
	}
	return links, nil
}
