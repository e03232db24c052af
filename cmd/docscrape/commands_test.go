package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/fs"
	"github.com/fwojciec/docscrape/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	// Given: a checkpoint with pending work and two failures
	dir := t.TempDir()
	store := fs.NewCheckpointStore(dir)
	require.NoError(t, store.Save(context.Background(), &docscrape.CheckpointSnapshot{
		RunID:     "nightly",
		Seeds:     []string{"https://example.com/docs/"},
		Pending:   []docscrape.FetchTask{{URL: "https://example.com/docs/c"}},
		InFlight:  []docscrape.FetchTask{{URL: "https://example.com/docs/d"}},
		Processed: []docscrape.ProcessedRecord{{URL: "https://example.com/docs/"}},
		Failed: []docscrape.FailedRecord{
			{URL: "https://example.com/docs/z", Class: docscrape.EPERMANENT, Attempts: 1},
			{URL: "https://example.com/docs/b", Class: docscrape.ETRANSIENT, Attempts: 3},
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}))

	t.Run("summarizes the checkpoint file", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer

		// When: inspecting it
		err := newMain().Run(context.Background(), []string{"inspect", store.Path("nightly")}, &stdout, &stderr)

		// Then: counts and failure classes are shown
		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "Run:        nightly")
		assert.Contains(t, out, "Seed:       https://example.com/docs/")
		assert.Contains(t, out, "Pending:    2")
		assert.Contains(t, out, "Processed:  1")
		assert.Contains(t, out, "Failed:     2")
		assert.Contains(t, out, "Failures by class: permanent 1, transient 1")
		assert.NotContains(t, out, "attempts")
	})

	t.Run("lists failures sorted by URL", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer

		err := newMain().Run(context.Background(), []string{"inspect", "--failures", store.Path("nightly")}, &stdout, &stderr)

		require.NoError(t, err)
		out := stdout.String()
		b := bytes.Index([]byte(out), []byte("docs/b (3 attempts)"))
		z := bytes.Index([]byte(out), []byte("docs/z (1 attempts)"))
		require.NotEqual(t, -1, b)
		require.NotEqual(t, -1, z)
		assert.Less(t, b, z)
	})

	t.Run("missing checkpoint is an error", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer

		err := newMain().Run(context.Background(), []string{"inspect", filepath.Join(dir, "nope.json")}, &stdout, &stderr)

		require.Error(t, err)
		assert.Equal(t, docscrape.ENOTFOUND, docscrape.ErrorCode(err))
	})
}

func TestPages(t *testing.T) {
	t.Parallel()

	// Given: a database with pages from two runs
	path := filepath.Join(t.TempDir(), "pages.db")
	db := sqlite.NewDB(path)
	require.NoError(t, db.Open())
	pages := sqlite.NewPageService(db)
	ctx := context.Background()
	_, err := pages.SavePage(ctx, "one", &docscrape.Page{URL: "https://example.com/a", Title: "A", Content: "# Alpha"})
	require.NoError(t, err)
	_, err = pages.SavePage(ctx, "one", &docscrape.Page{URL: "https://example.com/b", Title: "B", Content: "# Beta"})
	require.NoError(t, err)
	_, err = pages.SavePage(ctx, "two", &docscrape.Page{URL: "https://example.com/c", Title: "C", Content: "# Gamma"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	t.Run("lists pages of one run", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer

		err := newMain().Run(ctx, []string{"pages", "--db", path, "one"}, &stdout, &stderr)

		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "https://example.com/a")
		assert.Contains(t, out, "https://example.com/b")
		assert.NotContains(t, out, "https://example.com/c")
		assert.NotContains(t, out, "# Alpha")
	})

	t.Run("prints content with --full", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer

		err := newMain().Run(ctx, []string{"pages", "--db", path, "--full", "--limit", "1", "two"}, &stdout, &stderr)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "# Gamma")
	})

	t.Run("reports an empty result", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer

		err := newMain().Run(ctx, []string{"pages", "--db", path, "three"}, &stdout, &stderr)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No pages found")
	})
}
