package docscrape

// RunID identifies a scraping run.
type RunID string

// Failure is a user-facing description of a failed URL.
type Failure struct {
	URL   string `json:"url"`
	Class string `json:"class"`
}

// Summary is the final report of a run.
type Summary struct {
	RunID           RunID          `json:"runId"`
	Processed       int            `json:"processed"`
	Skipped         int            `json:"skipped"`
	Failed          int            `json:"failed"`
	Pending         int            `json:"pending"`
	FailuresByClass map[string]int `json:"failuresByClass"`
	Failures        []Failure      `json:"failures"`

	// Interrupted is true when the run stopped before draining.
	Interrupted bool `json:"interrupted"`
}
