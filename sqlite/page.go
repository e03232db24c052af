package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/docscrape"
	"github.com/google/uuid"
)

var _ docscrape.PageService = (*PageService)(nil)

// PageService implements docscrape.PageService using SQLite.
type PageService struct {
	db *DB
}

// NewPageService creates a new PageService.
func NewPageService(db *DB) *PageService {
	return &PageService{db: db}
}

// SavePage upserts the page by (run, url) and returns the row id.
// Re-saving a URL keeps its id and replaces the content.
func (s *PageService) SavePage(ctx context.Context, runID docscrape.RunID, page *docscrape.Page) (string, error) {
	if runID == "" {
		return "", docscrape.Errorf(docscrape.EINVALID, "run id required")
	}
	if page == nil || page.URL == "" {
		return "", docscrape.Errorf(docscrape.EINVALID, "page url required")
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pages (id, run_id, url, title, content, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, url) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at
		RETURNING id
	`, uuid.NewString(), string(runID), page.URL, page.Title, page.Content,
		hashContent(page.Content), time.Now().UTC().Format(time.RFC3339)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindPages retrieves pages matching the filter, ordered by URL.
func (s *PageService) FindPages(ctx context.Context, filter docscrape.PageFilter) ([]*docscrape.StoredPage, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, run_id, url, title, content, content_hash, fetched_at FROM pages WHERE 1=1")
	if filter.RunID != "" {
		query.WriteString(" AND run_id = ?")
		args = append(args, string(filter.RunID))
	}
	if filter.URL != "" {
		query.WriteString(" AND url = ?")
		args = append(args, filter.URL)
	}
	query.WriteString(" ORDER BY url ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*docscrape.StoredPage
	for rows.Next() {
		var p docscrape.StoredPage
		var runID, fetchedAt string
		if err := rows.Scan(&p.ID, &runID, &p.URL, &p.Title, &p.Content, &p.ContentHash, &fetchedAt); err != nil {
			return nil, err
		}
		p.RunID = docscrape.RunID(runID)
		if p.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at"); err != nil {
			return nil, err
		}
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

// DeletePages removes every page of a run.
func (s *PageService) DeletePages(ctx context.Context, runID docscrape.RunID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE run_id = ?", string(runID))
	return err
}
