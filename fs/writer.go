// Package fs stores scraped pages as markdown files and run checkpoints
// as JSON files.
package fs

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docscrape"
)

// URLToPath converts a documentation URL to a relative file path.
// Example: https://example.com/docs/api/users → docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	p := strings.TrimPrefix(u.Path, "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", docscrape.Errorf(docscrape.EINVALID, "path traversal in %q", rawURL)
		}
	}

	switch {
	case p == "":
		return "index.md", nil
	case strings.HasSuffix(p, "/"):
		return p + "index.md", nil
	default:
		return p + ".md", nil
	}
}

// FormatPage renders a page as markdown with YAML frontmatter.
func FormatPage(runID docscrape.RunID, page *docscrape.Page, crawled time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(page.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(page.Title)
	b.WriteString("\nrun: ")
	b.WriteString(string(runID))
	b.WriteString("\nhash: ")
	b.WriteString(contentHash(page.Content))
	b.WriteString("\ncrawled: ")
	b.WriteString(crawled.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(page.Content)
	return b.String()
}

func contentHash(content string) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(content))
	return hex.EncodeToString(b[:])
}

var _ docscrape.ContentStore = (*PageWriter)(nil)

// PageWriter writes pages as markdown files under baseDir, one
// directory per host. Saving a URL again overwrites its file.
type PageWriter struct {
	baseDir string

	// Now returns the crawl date written to frontmatter.
	Now func() time.Time
}

// NewPageWriter creates a PageWriter rooted at baseDir.
func NewPageWriter(baseDir string) *PageWriter {
	return &PageWriter{baseDir: baseDir, Now: time.Now}
}

// SavePage writes the page and returns its path relative to baseDir.
func (w *PageWriter) SavePage(ctx context.Context, runID docscrape.RunID, page *docscrape.Page) (string, error) {
	if page == nil || page.URL == "" {
		return "", docscrape.Errorf(docscrape.EINVALID, "page url required")
	}
	u, err := url.Parse(page.URL)
	if err != nil {
		return "", docscrape.Wrap(docscrape.EINVALID, err, "invalid page url")
	}
	rel, err := URLToPath(page.URL)
	if err != nil {
		return "", err
	}
	rel = u.Hostname() + "/" + rel

	content := FormatPage(runID, page, w.Now())
	if err := writeFile(filepath.Join(w.baseDir, filepath.FromSlash(rel)), []byte(content), 0644); err != nil {
		return "", err
	}
	return rel, nil
}
