package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageService_SavePage(t *testing.T) {
	t.Parallel()

	t.Run("stores page with id and content hash", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(setupTestDB(t))
		ctx := context.Background()

		ref, err := svc.SavePage(ctx, "run-1", &docscrape.Page{
			URL:     "https://example.com/docs/intro",
			Title:   "Intro",
			Content: "# Intro",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, ref)

		pages, err := svc.FindPages(ctx, docscrape.PageFilter{RunID: "run-1"})
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, ref, pages[0].ID)
		assert.Equal(t, docscrape.RunID("run-1"), pages[0].RunID)
		assert.Equal(t, "Intro", pages[0].Title)
		assert.Len(t, pages[0].ContentHash, 16)
		assert.False(t, pages[0].FetchedAt.IsZero())
	})

	t.Run("saving the same url twice replaces content", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(setupTestDB(t))
		ctx := context.Background()
		page := &docscrape.Page{URL: "https://example.com/a", Content: "old"}

		first, err := svc.SavePage(ctx, "run-1", page)
		require.NoError(t, err)
		page.Content = "new"
		second, err := svc.SavePage(ctx, "run-1", page)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		pages, err := svc.FindPages(ctx, docscrape.PageFilter{RunID: "run-1"})
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, "new", pages[0].Content)
	})

	t.Run("runs keep separate copies", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(setupTestDB(t))
		ctx := context.Background()
		page := &docscrape.Page{URL: "https://example.com/a", Content: "x"}

		a, err := svc.SavePage(ctx, "run-1", page)
		require.NoError(t, err)
		b, err := svc.SavePage(ctx, "run-2", page)
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})

	t.Run("identical content hashes identically", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(setupTestDB(t))
		ctx := context.Background()
		_, err := svc.SavePage(ctx, "run-1", &docscrape.Page{URL: "https://example.com/a", Content: "same"})
		require.NoError(t, err)
		_, err = svc.SavePage(ctx, "run-1", &docscrape.Page{URL: "https://example.com/b", Content: "same"})
		require.NoError(t, err)

		pages, err := svc.FindPages(ctx, docscrape.PageFilter{RunID: "run-1"})
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, pages[0].ContentHash, pages[1].ContentHash)
	})

	t.Run("concurrent saves do not fail", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(setupTestDB(t))
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.SavePage(ctx, "run-1", &docscrape.Page{URL: fmt.Sprintf("https://example.com/%d", i)})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		pages, err := svc.FindPages(ctx, docscrape.PageFilter{RunID: "run-1"})
		require.NoError(t, err)
		assert.Len(t, pages, 20)
	})

	t.Run("rejects missing run or url", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(setupTestDB(t))
		ctx := context.Background()

		_, err := svc.SavePage(ctx, "", &docscrape.Page{URL: "https://example.com/"})
		assert.Equal(t, docscrape.EINVALID, docscrape.ErrorCode(err))
		_, err = svc.SavePage(ctx, "run-1", &docscrape.Page{})
		assert.Equal(t, docscrape.EINVALID, docscrape.ErrorCode(err))
	})
}

func TestPageService_FindPages(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := sqlite.NewPageService(db)
	ctx := context.Background()
	for _, u := range []string{"https://example.com/c", "https://example.com/a", "https://example.com/b"} {
		_, err := svc.SavePage(ctx, "run-1", &docscrape.Page{URL: u})
		require.NoError(t, err)
	}
	_, err := svc.SavePage(ctx, "run-2", &docscrape.Page{URL: "https://example.com/z"})
	require.NoError(t, err)

	urls := func(pages []*docscrape.StoredPage) []string {
		var out []string
		for _, p := range pages {
			out = append(out, p.URL)
		}
		return out
	}

	t.Run("orders by url within a run", func(t *testing.T) {
		t.Parallel()

		pages, err := svc.FindPages(ctx, docscrape.PageFilter{RunID: "run-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}, urls(pages))
	})

	t.Run("filters by url", func(t *testing.T) {
		t.Parallel()

		pages, err := svc.FindPages(ctx, docscrape.PageFilter{URL: "https://example.com/z"})
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, docscrape.RunID("run-2"), pages[0].RunID)
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		pages, err := svc.FindPages(ctx, docscrape.PageFilter{RunID: "run-1", Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/b"}, urls(pages))

		pages, err = svc.FindPages(ctx, docscrape.PageFilter{RunID: "run-1", Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/c"}, urls(pages))
	})
}

func TestPageService_DeletePages(t *testing.T) {
	t.Parallel()

	svc := sqlite.NewPageService(setupTestDB(t))
	ctx := context.Background()
	_, err := svc.SavePage(ctx, "run-1", &docscrape.Page{URL: "https://example.com/a"})
	require.NoError(t, err)
	_, err = svc.SavePage(ctx, "run-2", &docscrape.Page{URL: "https://example.com/a"})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePages(ctx, "run-1"))

	pages, err := svc.FindPages(ctx, docscrape.PageFilter{})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, docscrape.RunID("run-2"), pages[0].RunID)
}
