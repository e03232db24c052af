package docscrape

import (
	"context"
	"time"
)

// StoredPage is a page as persisted for a run.
type StoredPage struct {
	ID          string
	RunID       RunID
	URL         string
	Title       string
	Content     string
	ContentHash string
	FetchedAt   time.Time
}

// PageFilter narrows a page listing. Zero values match everything.
type PageFilter struct {
	RunID  RunID
	URL    string
	Limit  int
	Offset int
}

// PageService stores pages and reads them back.
type PageService interface {
	ContentStore

	// FindPages returns pages matching the filter, ordered by URL.
	FindPages(ctx context.Context, filter PageFilter) ([]*StoredPage, error)

	// DeletePages removes every page of a run.
	DeletePages(ctx context.Context, runID RunID) error
}
