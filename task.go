package docscrape

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Priority orders pending tasks. Lower values are dispatched sooner.
type Priority int

// Priority levels for crawl ordering.
const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 1
	PriorityNormal   Priority = 2
	PriorityLow      Priority = 3
)

// FetchTask is a unit of work: one URL to fetch and process.
// URL is always normalized and serves as the task's identity.
type FetchTask struct {
	URL      string   `json:"url"`
	Priority Priority `json:"priority"`
	Depth    int      `json:"depth"`
	Origin   string   `json:"origin,omitempty"`
	Attempts int      `json:"attempts"`
}

// Status is the terminal state of a processed URL.
type Status string

// Terminal statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ProcessedRecord describes a URL that reached a terminal non-failure state.
type ProcessedRecord struct {
	URL        string    `json:"url"`
	Status     Status    `json:"status"`
	ContentRef string    `json:"contentRef,omitempty"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// FailedRecord describes a URL that failed permanently within a run.
// Class is an error code (EPERMANENT, EPROCESSOR, ...); Reason is a short
// description safe to show to users.
type FailedRecord struct {
	URL      string `json:"url"`
	Class    string `json:"class"`
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts"`
}

// Outcome is what a worker reports when it completes a task.
// A nil Err with Status StatusSkipped marks pages that were fetched but
// deliberately not stored.
type Outcome struct {
	Status     Status
	ContentRef string
	Attempts   int
	Bytes      int
	Err        error
}

// NormalizeURL returns the canonical form of rawURL used for deduplication:
// lowercase scheme and host, default ports dropped, empty path replaced
// by "/", query parameters sorted, fragment removed.
// Only absolute http and https URLs are accepted.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q", rawURL)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", Errorf(EINVALID, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", Errorf(EINVALID, "URL %q has no host", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)

	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(sortedQuery(u.Query()))
	}
	return b.String(), nil
}

// sortedQuery encodes query values with keys sorted and, within a key,
// values sorted, so that parameter order does not affect identity.
func sortedQuery(q url.Values) string {
	for _, vs := range q {
		sort.Strings(vs)
	}
	return q.Encode()
}

// Host returns the host component of a normalized URL, or "" if it
// cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
