package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	main "github.com/fwojciec/docscrape/cmd/docscrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMain returns a Main that reads no config files.
func newMain() *main.Main {
	m := main.NewMain()
	m.ConfigPaths = nil
	return m
}

// docsSite serves /docs/ linking to two pages, one of which is missing.
func docsSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, "<html><head><title>t</title></head><body>%s</body></html>", body)
		}
	}
	mux.HandleFunc("/docs/{$}", page(`<a href="/docs/a">A</a> <a href="/docs/missing">M</a> <a href="/blog/">B</a>`))
	mux.HandleFunc("/docs/a", page(`<a href="/docs/">Home</a>`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// syncBuffer is a bytes.Buffer safe for the logger and the command to
// write concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func crawlArgs(dir string, extra ...string) []string {
	args := []string{
		"crawl",
		"--quiet",
		"--rate", "1000",
		"--burst", "100",
		"--retries", "1",
		"--timeout", "5s",
		"--checkpoint-dir", filepath.Join(dir, "checkpoints"),
		"--out", filepath.Join(dir, "out"),
		"--db", filepath.Join(dir, "docscrape.db"),
	}
	return append(args, extra...)
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	err := newMain().Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	for _, cmd := range []string{"crawl", "inspect", "pages"} {
		assert.Contains(t, stdout.String(), cmd)
	}
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	err := newMain().Run(context.Background(), nil, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("crawls in-scope links and reports failures", func(t *testing.T) {
		t.Parallel()

		srv := docsSite(t)
		dir := t.TempDir()
		var stdout bytes.Buffer
		var stderr syncBuffer

		err := newMain().Run(context.Background(),
			crawlArgs(dir, "--processor", "links", srv.URL+"/docs/"), &stdout, &stderr)

		require.NoError(t, err, stderr.String())
		out := stdout.String()
		assert.Contains(t, out, "Processed 0, skipped 2, failed 1, pending 0")
		assert.Contains(t, out, "Failures by class: permanent 1")
		assert.Contains(t, out, "/docs/missing")
		assert.NotContains(t, out, "Resume with")

		entries, err := os.ReadDir(filepath.Join(dir, "checkpoints"))
		if err == nil {
			assert.Empty(t, entries, "checkpoint removed after a complete run")
		}
	})

	t.Run("keeps the checkpoint when asked", func(t *testing.T) {
		t.Parallel()

		srv := docsSite(t)
		dir := t.TempDir()
		var stdout bytes.Buffer
		var stderr syncBuffer

		err := newMain().Run(context.Background(),
			crawlArgs(dir, "--processor", "links", "--run-id", "kept", "--keep-checkpoint", srv.URL+"/docs/"), &stdout, &stderr)

		require.NoError(t, err, stderr.String())
		_, err = os.Stat(filepath.Join(dir, "checkpoints", "kept.json"))
		assert.NoError(t, err)

		stdout.Reset()
		err = newMain().Run(context.Background(),
			[]string{"inspect", filepath.Join(dir, "checkpoints", "kept.json")}, &stdout, &stderr)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Run:        kept")
		assert.Contains(t, stdout.String(), "Processed:  2")
	})

	t.Run("stores checkpoints in sqlite", func(t *testing.T) {
		t.Parallel()

		srv := docsSite(t)
		dir := t.TempDir()
		var stdout bytes.Buffer
		var stderr syncBuffer

		err := newMain().Run(context.Background(),
			crawlArgs(dir, "--processor", "links", "--checkpoints", "sqlite", "--run-id", "db-run", "--keep-checkpoint", srv.URL+"/docs/"),
			&stdout, &stderr)
		require.NoError(t, err, stderr.String())

		stdout.Reset()
		err = newMain().Run(context.Background(),
			[]string{"inspect", "--checkpoints", "sqlite", "--db", filepath.Join(dir, "docscrape.db"), "db-run"}, &stdout, &stderr)
		require.NoError(t, err, stderr.String())
		assert.Contains(t, stdout.String(), "Failed:     1")
	})

	t.Run("serves metrics during the crawl", func(t *testing.T) {
		t.Parallel()

		srv := docsSite(t)
		dir := t.TempDir()
		var stdout bytes.Buffer
		var stderr syncBuffer

		err := newMain().Run(context.Background(),
			crawlArgs(dir, "--processor", "links", "--metrics-addr", "127.0.0.1:0", srv.URL+"/docs/"), &stdout, &stderr)

		require.NoError(t, err, stderr.String())
		assert.Contains(t, stderr.String(), "serving metrics")
	})

	t.Run("requires seeds unless resuming", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		var stderr syncBuffer

		err := newMain().Run(context.Background(), crawlArgs(t.TempDir()), &stdout, &stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "at least one seed URL is required")
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		var stderr syncBuffer

		err := newMain().Run(context.Background(),
			crawlArgs(t.TempDir(), "--max-per-host", "50", "https://example.com/"), &stdout, &stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "exceeds max connections")
	})

	t.Run("reads flags from a JSON config file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		config := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(config, []byte(`{"workers": 0}`), 0644))
		var stdout bytes.Buffer
		var stderr syncBuffer

		err := newMain().Run(context.Background(),
			append([]string{"--config", config}, crawlArgs(dir, "https://example.com/")...), &stdout, &stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "max workers must be positive")
	})

	t.Run("interrupts stop gracefully then abort", func(t *testing.T) {
		t.Parallel()

		hit := make(chan struct{})
		var once sync.Once
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			once.Do(func() { close(hit) })
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)

		interrupts := make(chan os.Signal, 2)
		m := newMain()
		m.Interrupts = interrupts
		dir := t.TempDir()
		var stdout bytes.Buffer
		var stderr syncBuffer

		done := make(chan error, 1)
		go func() {
			done <- m.Run(context.Background(),
				crawlArgs(dir, "--processor", "links", "--run-id", "stopped", srv.URL+"/docs/"), &stdout, &stderr)
		}()

		select {
		case <-hit:
		case <-time.After(5 * time.Second):
			t.Fatal("no request received")
		}
		interrupts <- os.Interrupt
		interrupts <- os.Interrupt

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("crawl did not stop")
		}
		assert.Contains(t, stdout.String(), "pending 1")
		assert.Contains(t, stdout.String(), "Resume with: docscrape crawl --resume --run-id stopped")
		assert.Contains(t, stderr.String(), "Aborting")
		_, err := os.Stat(filepath.Join(dir, "checkpoints", "stopped.json"))
		assert.NoError(t, err, "interrupted runs keep their checkpoint")
	})
}
