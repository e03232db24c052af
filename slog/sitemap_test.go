package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/mock"
	dsslog "github.com/fwojciec/docscrape/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService(t *testing.T) {
	t.Parallel()

	t.Run("logs the number of discovered seeds", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		var gotFilter *docscrape.URLFilter
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(_ context.Context, seed string, filter *docscrape.URLFilter) ([]string, error) {
				gotFilter = filter
				return []string{seed + "a", seed + "b", seed + "c"}, nil
			},
		}
		filter, err := docscrape.CompileFilter([]string{"/docs/"}, nil)
		require.NoError(t, err)

		urls, err := dsslog.NewLoggingSitemapService(inner, slog.New(slog.NewTextHandler(&buf, nil))).
			DiscoverURLs(context.Background(), "https://example.com/docs/", filter)

		require.NoError(t, err)
		assert.Len(t, urls, 3)
		assert.Same(t, filter, gotFilter)
		out := buf.String()
		assert.Contains(t, out, "level=INFO")
		assert.Contains(t, out, "seed=https://example.com/docs/")
		assert.Contains(t, out, "urls=3")
		assert.Contains(t, out, "filtered=true")
	})

	t.Run("logs failures with their class", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(context.Context, string, *docscrape.URLFilter) ([]string, error) {
				return nil, docscrape.Errorf(docscrape.EINVALID, "invalid base URL")
			},
		}

		_, err := dsslog.NewLoggingSitemapService(inner, slog.New(slog.NewTextHandler(&buf, nil))).
			DiscoverURLs(context.Background(), "::", nil)

		require.Error(t, err)
		out := buf.String()
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, "class=invalid")
		assert.Contains(t, out, `err="invalid base URL"`)
	})
}
