package crawl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/crawl"
	"github.com/fwojciec/docscrape/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLinks(links ...docscrape.DiscoveredLink) *mock.LinkSelectorRegistry {
	sel := &mock.LinkSelector{
		ExtractLinksFn: func([]byte, string) ([]docscrape.DiscoveredLink, error) { return links, nil },
		NameFn:         func() string { return "static" },
	}
	return &mock.LinkSelectorRegistry{
		GetForHTMLFn: func([]byte) docscrape.LinkSelector { return sel },
	}
}

func TestDocProcessor_Process(t *testing.T) {
	t.Parallel()

	link := docscrape.DiscoveredLink{URL: "https://example.com/next", Priority: docscrape.PriorityHigh}

	t.Run("returns markdown page and links", func(t *testing.T) {
		t.Parallel()

		p := &crawl.DocProcessor{
			Extractor: &mock.Extractor{
				ExtractFn: func(html []byte, pageURL string) (*docscrape.ExtractResult, error) {
					assert.Equal(t, "https://example.com/", pageURL)
					return &docscrape.ExtractResult{Title: "Home", ContentHTML: "<p>hi</p>"}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(html string) (string, error) { return "hi", nil },
			},
			Links: staticLinks(link),
		}

		res, err := p.Process(context.Background(), "https://example.com/", []byte("<html></html>"))

		require.NoError(t, err)
		assert.Equal(t, &docscrape.Page{URL: "https://example.com/", Title: "Home", Content: "hi"}, res.Page)
		assert.Equal(t, []docscrape.DiscoveredLink{link}, res.Links)
	})

	t.Run("returns only links when content is empty", func(t *testing.T) {
		t.Parallel()

		p := &crawl.DocProcessor{
			Extractor: &mock.Extractor{
				ExtractFn: func([]byte, string) (*docscrape.ExtractResult, error) {
					return &docscrape.ExtractResult{Title: "Index"}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(string) (string, error) { panic("not called") },
			},
			Links: staticLinks(link),
		}

		res, err := p.Process(context.Background(), "https://example.com/", nil)

		require.NoError(t, err)
		assert.Nil(t, res.Page)
		assert.Len(t, res.Links, 1)
	})

	t.Run("classifies extraction failures as processor errors", func(t *testing.T) {
		t.Parallel()

		p := &crawl.DocProcessor{
			Extractor: &mock.Extractor{
				ExtractFn: func([]byte, string) (*docscrape.ExtractResult, error) {
					return nil, errors.New("boom")
				},
			},
			Links: staticLinks(),
		}

		_, err := p.Process(context.Background(), "https://example.com/", nil)

		assert.Equal(t, docscrape.EPROCESSOR, docscrape.ErrorCode(err))
	})
}

func TestLinkProcessor_Process(t *testing.T) {
	t.Parallel()

	link := docscrape.DiscoveredLink{URL: "https://example.com/a", Priority: docscrape.PriorityNormal}
	p := &crawl.LinkProcessor{Links: staticLinks(link)}

	res, err := p.Process(context.Background(), "https://example.com/", []byte("<a href='/a'>a</a>"))

	require.NoError(t, err)
	assert.Nil(t, res.Page)
	assert.Equal(t, []docscrape.DiscoveredLink{link}, res.Links)
}
