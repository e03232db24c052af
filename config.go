package docscrape

import (
	"regexp"
	"time"
)

// Processor names recognized by Config.Processor.
const (
	ProcessorMarkdown    = "markdown"
	ProcessorReadability = "readability"
	ProcessorLinks       = "links"
)

// Config holds the tunables of a scraping run.
type Config struct {
	// RunID names the run. Empty means a fresh id is generated. With
	// Resume set, the run continues from RunID's checkpoint.
	RunID RunID `json:"runId"`

	// Connection pool.
	MaxConnections int `json:"maxConnections"`
	MaxPerHost     int `json:"maxPerHost"`

	// Token bucket: RateLimit tokens per second, Burst capacity.
	RateLimit float64 `json:"rateLimit"`
	Burst     int     `json:"burst"`

	MaxWorkers     int           `json:"maxWorkers"`
	RequestTimeout time.Duration `json:"requestTimeout"`

	// MaxRetries is the maximum number of fetch attempts per URL,
	// including the first one.
	MaxRetries  int           `json:"maxRetries"`
	BackoffBase time.Duration `json:"backoffBase"`
	MaxBackoff  time.Duration `json:"maxBackoff"`

	// CooldownPeriod is how long a host stays slowed down after a 429.
	CooldownPeriod time.Duration `json:"cooldownPeriod"`

	CheckpointInterval time.Duration `json:"checkpointInterval"`
	Resume             bool          `json:"resume"`
	KeepCheckpoint     bool          `json:"keepCheckpoint"`

	ProgressInterval time.Duration `json:"progressInterval"`

	// Scope. MaxDepth < 0 means unlimited; MaxPages <= 0 means unlimited.
	MaxDepth int  `json:"maxDepth"`
	MaxPages int  `json:"maxPages"`
	SameHost bool `json:"sameHost"`

	MaxBodyBytes int64  `json:"maxBodyBytes"`
	UserAgent    string `json:"userAgent"`
	Processor    string `json:"processor"`

	Filter *URLFilter `json:"-"`
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		MaxConnections:     10,
		MaxPerHost:         5,
		RateLimit:          3,
		Burst:              6,
		MaxWorkers:         5,
		RequestTimeout:     30 * time.Second,
		MaxRetries:         3,
		BackoffBase:        time.Second,
		MaxBackoff:         30 * time.Second,
		CooldownPeriod:     time.Minute,
		CheckpointInterval: 30 * time.Second,
		ProgressInterval:   250 * time.Millisecond,
		MaxDepth:           -1,
		SameHost:           true,
		MaxBodyBytes:       10 << 20,
		UserAgent:          "Mozilla/5.0 (compatible; docscrape)",
		Processor:          ProcessorMarkdown,
	}
}

// Validate returns an EINVALID error describing the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Resume && c.RunID == "":
		return Errorf(EINVALID, "resume requires a run id")
	case c.MaxConnections <= 0:
		return Errorf(EINVALID, "max connections must be positive")
	case c.MaxPerHost <= 0:
		return Errorf(EINVALID, "max connections per host must be positive")
	case c.MaxPerHost > c.MaxConnections:
		return Errorf(EINVALID, "max connections per host (%d) exceeds max connections (%d)", c.MaxPerHost, c.MaxConnections)
	case c.RateLimit <= 0:
		return Errorf(EINVALID, "rate limit must be positive")
	case c.Burst <= 0:
		return Errorf(EINVALID, "burst must be positive")
	case c.MaxWorkers <= 0:
		return Errorf(EINVALID, "max workers must be positive")
	case c.RequestTimeout <= 0:
		return Errorf(EINVALID, "request timeout must be positive")
	case c.MaxRetries <= 0:
		return Errorf(EINVALID, "max retries must be at least 1")
	case c.BackoffBase < 0 || c.MaxBackoff < 0:
		return Errorf(EINVALID, "backoff durations must not be negative")
	case c.CheckpointInterval < 0:
		return Errorf(EINVALID, "checkpoint interval must not be negative")
	case c.ProgressInterval <= 0:
		return Errorf(EINVALID, "progress interval must be positive")
	case c.MaxBodyBytes <= 0:
		return Errorf(EINVALID, "max body size must be positive")
	}
	switch c.Processor {
	case ProcessorMarkdown, ProcessorReadability, ProcessorLinks:
	default:
		return Errorf(EINVALID, "unknown processor %q", c.Processor)
	}
	return nil
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// CompileFilter builds a URLFilter from include and exclude patterns.
// Returns nil when both lists are empty.
func CompileFilter(include, exclude []string) (*URLFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	f := &URLFilter{}
	for _, p := range include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", p, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, p := range exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}
	return true
}
