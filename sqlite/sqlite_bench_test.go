package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/sqlite"
	"github.com/stretchr/testify/require"
)

// BenchmarkSavePage measures page writes from concurrent workers, the
// shape of a crawl with several workers sharing one database.
func BenchmarkSavePage(b *testing.B) {
	b.Run("memory", func(b *testing.B) {
		benchmarkSavePage(b, ":memory:")
	})

	b.Run("wal_file", func(b *testing.B) {
		benchmarkSavePage(b, filepath.Join(b.TempDir(), "bench.db"))
	})
}

func benchmarkSavePage(b *testing.B, path string) {
	db := sqlite.NewDB(path)
	require.NoError(b, db.Open())
	defer db.Close()

	svc := sqlite.NewPageService(db)
	ctx := context.Background()
	var n atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := n.Add(1)
			page := &docscrape.Page{
				URL:     fmt.Sprintf("https://example.com/docs/page%d", i),
				Title:   fmt.Sprintf("Page %d", i),
				Content: fmt.Sprintf("# Page %d\n\nContent for page %d. Lorem ipsum dolor sit amet.", i, i),
			}
			if _, err := svc.SavePage(ctx, "bench", page); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkResavePage measures the upsert path taken when an
// interrupted task is fetched again after a resume.
func BenchmarkResavePage(b *testing.B) {
	db := sqlite.NewDB(":memory:")
	require.NoError(b, db.Open())
	defer db.Close()

	svc := sqlite.NewPageService(db)
	ctx := context.Background()
	page := &docscrape.Page{URL: "https://example.com/docs/page", Content: "# Page"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.SavePage(ctx, "bench", page); err != nil {
			b.Fatal(err)
		}
	}
}
