package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Interrupts delivers Ctrl+C presses. The first stops a crawl
	// gracefully, the second aborts it.
	Interrupts <-chan os.Signal

	Manager     *crawl.Manager
	Checkpoints docscrape.CheckpointStore
	Pages       docscrape.PageService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  kong.ConfigFlag `help:"Load flag values from a JSON file (keys are flag names in snake_case)" placeholder:"FILE"`
	Verbose bool            `short:"v" env:"DOCSCRAPE_VERBOSE" help:"Log debug output to stderr"`

	Crawl   CrawlCmd   `cmd:"" help:"Crawl documentation sites starting from seed URLs"`
	Inspect InspectCmd `cmd:"" help:"Summarize a stored checkpoint"`
	Pages   PagesCmd   `cmd:"" help:"List pages stored in a SQLite database"`
}

// StoreFlags select where pages and checkpoints are kept.
type StoreFlags struct {
	Store         string `enum:"files,sqlite" default:"files" env:"DOCSCRAPE_STORE" help:"Page store: files or sqlite"`
	Out           string `short:"o" default:"docs" env:"DOCSCRAPE_OUT" help:"Output directory for markdown files"`
	DB            string `default:"docscrape.db" env:"DOCSCRAPE_DB" help:"SQLite database path"`
	Checkpoints   string `enum:"files,sqlite,redis" default:"files" env:"DOCSCRAPE_CHECKPOINTS" help:"Checkpoint store: files, sqlite, or redis"`
	CheckpointDir string `default:".docscrape" env:"DOCSCRAPE_CHECKPOINT_DIR" help:"Directory for checkpoint files"`
	Redis         string `default:"localhost:6379" env:"DOCSCRAPE_REDIS" help:"Redis address for the redis checkpoint store"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Seeds []string `arg:"" optional:"" help:"Seed URLs (may be omitted with --resume)"`

	RunID          string `name:"run-id" env:"DOCSCRAPE_RUN_ID" help:"Run id; generated if empty"`
	Resume         bool   `help:"Continue the run named by --run-id from its checkpoint"`
	KeepCheckpoint bool   `help:"Keep the checkpoint after a complete run"`

	Workers        int           `short:"w" default:"5" env:"DOCSCRAPE_WORKERS" help:"Concurrent workers"`
	MaxConnections int           `default:"10" env:"DOCSCRAPE_MAX_CONNECTIONS" help:"Maximum open connections"`
	MaxPerHost     int           `default:"5" env:"DOCSCRAPE_MAX_PER_HOST" help:"Maximum open connections per host"`
	Rate           float64       `default:"3" env:"DOCSCRAPE_RATE" help:"Requests per second"`
	Burst          int           `default:"6" env:"DOCSCRAPE_BURST" help:"Request burst size"`
	Timeout        time.Duration `short:"t" default:"30s" env:"DOCSCRAPE_TIMEOUT" help:"Timeout per request attempt"`
	Retries        int           `default:"3" env:"DOCSCRAPE_RETRIES" help:"Attempts per URL, including the first"`
	BackoffBase    time.Duration `default:"1s" help:"Initial retry backoff"`
	MaxBackoff     time.Duration `default:"30s" help:"Maximum retry backoff"`
	Cooldown       time.Duration `default:"1m" help:"Slowdown period after HTTP 429"`

	CheckpointInterval time.Duration `default:"30s" env:"DOCSCRAPE_CHECKPOINT_INTERVAL" help:"Time between checkpoints (0 disables periodic saves)"`

	MaxDepth     int      `default:"-1" help:"Maximum link depth from the seeds (-1 for unlimited)"`
	MaxPages     int      `default:"0" help:"Stop queueing new URLs after this many (0 for unlimited)"`
	AllHosts     bool     `help:"Follow links to other hosts and outside the seed path"`
	Include      []string `short:"I" help:"Only crawl URLs matching this regex (repeatable)"`
	Exclude      []string `short:"X" help:"Skip URLs matching this regex (repeatable)"`
	Sitemap      bool     `help:"Also queue URLs from the seeds' sitemaps"`
	MaxBodyBytes int64    `default:"10485760" help:"Maximum response body size"`
	UserAgent    string   `default:"Mozilla/5.0 (compatible; docscrape)" env:"DOCSCRAPE_USER_AGENT" help:"User-Agent header"`
	Processor    string   `enum:"markdown,readability,links" default:"markdown" help:"Page processor: markdown, readability, or links"`

	MetricsAddr string `env:"DOCSCRAPE_METRICS_ADDR" help:"Serve Prometheus metrics on this address during the crawl"`
	Quiet       bool   `short:"q" help:"Do not print progress"`

	StoreFlags `embed:""`
}

// Config maps the flags onto a run configuration.
func (c *CrawlCmd) Config() (docscrape.Config, error) {
	filter, err := docscrape.CompileFilter(c.Include, c.Exclude)
	if err != nil {
		return docscrape.Config{}, err
	}
	cfg := docscrape.Config{
		RunID:              docscrape.RunID(c.RunID),
		MaxConnections:     c.MaxConnections,
		MaxPerHost:         c.MaxPerHost,
		RateLimit:          c.Rate,
		Burst:              c.Burst,
		MaxWorkers:         c.Workers,
		RequestTimeout:     c.Timeout,
		MaxRetries:         c.Retries,
		BackoffBase:        c.BackoffBase,
		MaxBackoff:         c.MaxBackoff,
		CooldownPeriod:     c.Cooldown,
		CheckpointInterval: c.CheckpointInterval,
		Resume:             c.Resume,
		KeepCheckpoint:     c.KeepCheckpoint,
		ProgressInterval:   docscrape.DefaultConfig().ProgressInterval,
		MaxDepth:           c.MaxDepth,
		MaxPages:           c.MaxPages,
		SameHost:           !c.AllHosts,
		MaxBodyBytes:       c.MaxBodyBytes,
		UserAgent:          c.UserAgent,
		Processor:          c.Processor,
		Filter:             filter,
	}
	if err := cfg.Validate(); err != nil {
		return docscrape.Config{}, err
	}
	return cfg, nil
}

// InspectCmd is the "inspect" subcommand.
type InspectCmd struct {
	Checkpoint string `arg:"" help:"Checkpoint file, or run id with --checkpoints=sqlite|redis"`
	Failures   bool   `help:"List every failed URL"`

	StoreFlags `embed:""`
}

// PagesCmd is the "pages" subcommand.
type PagesCmd struct {
	RunID  string `arg:"" optional:"" help:"Only list pages of this run"`
	Limit  int    `default:"0" help:"Maximum pages to list (0 for all)"`
	Offset int    `default:"0" help:"Pages to skip"`
	Full   bool   `help:"Print pages as one markdown document"`

	StoreFlags `embed:""`
}
