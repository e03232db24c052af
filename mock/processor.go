package mock

import (
	"context"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.PageProcessor = (*PageProcessor)(nil)

// PageProcessor is a mock implementation of docscrape.PageProcessor.
type PageProcessor struct {
	ProcessFn func(ctx context.Context, url string, body []byte) (*docscrape.ProcessResult, error)
}

func (p *PageProcessor) Process(ctx context.Context, url string, body []byte) (*docscrape.ProcessResult, error) {
	return p.ProcessFn(ctx, url, body)
}

var _ docscrape.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of docscrape.Extractor.
type Extractor struct {
	ExtractFn func(html []byte, pageURL string) (*docscrape.ExtractResult, error)
}

func (e *Extractor) Extract(html []byte, pageURL string) (*docscrape.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}

var _ docscrape.Converter = (*Converter)(nil)

// Converter is a mock implementation of docscrape.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ docscrape.ContentStore = (*ContentStore)(nil)

// ContentStore is a mock implementation of docscrape.ContentStore.
type ContentStore struct {
	SavePageFn func(ctx context.Context, runID docscrape.RunID, page *docscrape.Page) (string, error)
}

func (s *ContentStore) SavePage(ctx context.Context, runID docscrape.RunID, page *docscrape.Page) (string, error) {
	return s.SavePageFn(ctx, runID, page)
}
