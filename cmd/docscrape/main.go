package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/crawl"
	"github.com/fwojciec/docscrape/fs"
	"github.com/fwojciec/docscrape/goquery"
	"github.com/fwojciec/docscrape/htmltomarkdown"
	dshttp "github.com/fwojciec/docscrape/http"
	dsprom "github.com/fwojciec/docscrape/prometheus"
	"github.com/fwojciec/docscrape/readability"
	dsredis "github.com/fwojciec/docscrape/redis"
	dsslog "github.com/fwojciec/docscrape/slog"
	"github.com/fwojciec/docscrape/sqlite"
	"github.com/fwojciec/docscrape/trafilatura"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	m := NewMain()
	m.Interrupts = sigs

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, docscrape.ErrorMessage(err))
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// JSON files read for flag defaults, in order. Missing files are
	// ignored.
	ConfigPaths []string

	// Interrupts is wired to SIGINT and SIGTERM by main.
	Interrupts <-chan os.Signal

	DB    *sqlite.DB
	Redis *redis.Client

	metrics *http.Server
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{"~/.config/docscrape/config.json", "docscrape.json"},
	}
}

// Close releases the stores and stops the metrics server.
func (m *Main) Close() error {
	var errs []error
	if m.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, m.metrics.Shutdown(ctx))
		cancel()
	}
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}
	if m.Redis != nil {
		errs = append(errs, m.Redis.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:        ctx,
		Stdout:     stdout,
		Stderr:     stderr,
		Interrupts: m.Interrupts,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docscrape"),
		kong.Description("Scrape documentation sites into local markdown"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(kong.JSON, m.ConfigPaths...),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docscrape --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	defer m.Close()

	switch kongCtx.Selected().Name {
	case "crawl":
		if err := m.wireCrawl(ctx, &cli.Crawl, deps); err != nil {
			return err
		}
	case "inspect":
		store, err := m.checkpointStore(ctx, &cli.Inspect.StoreFlags)
		if err != nil {
			return err
		}
		deps.Checkpoints = store
	case "pages":
		db, err := m.openDB(cli.Pages.DB)
		if err != nil {
			return err
		}
		deps.Pages = sqlite.NewPageService(db)
	}

	return kongCtx.Run(deps)
}

// wireCrawl sets up the stores, optional metrics, and the run manager.
func (m *Main) wireCrawl(ctx context.Context, cmd *CrawlCmd, deps *Dependencies) error {
	logger := deps.Logger

	checkpoints, err := m.checkpointStore(ctx, &cmd.StoreFlags)
	if err != nil {
		return err
	}
	checkpoints = dsslog.NewLoggingCheckpointStore(checkpoints, logger)

	var store docscrape.ContentStore
	if cmd.Store == "sqlite" {
		db, err := m.openDB(cmd.DB)
		if err != nil {
			return err
		}
		store = sqlite.NewPageService(db)
	} else {
		store = fs.NewPageWriter(cmd.Out)
	}

	var observer docscrape.ProgressObserver
	if cmd.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		obs, err := dsprom.NewObserver(reg)
		if err != nil {
			return err
		}
		if err := m.serveMetrics(cmd.MetricsAddr, reg, logger); err != nil {
			return err
		}
		observer = obs
	}

	links := dsslog.NewLoggingRegistry(goquery.NewDefaultRegistry(), goquery.NewDetector(), logger)

	deps.Manager = crawl.NewManager(func(cfg docscrape.Config) (*crawl.Crawler, error) {
		limiter := crawl.NewLimiter(cfg.RateLimit, cfg.Burst)
		fetcher := dsslog.NewLoggingFetcher(dshttp.NewClient(
			dshttp.WithTimeout(cfg.RequestTimeout),
			dshttp.WithConnectionLimits(cfg.MaxConnections, cfg.MaxPerHost),
			dshttp.WithMaxAttempts(cfg.MaxRetries),
			dshttp.WithBackoff(cfg.BackoffBase, cfg.MaxBackoff),
			dshttp.WithRateLimiter(limiter, cfg.CooldownPeriod),
			dshttp.WithMaxBodyBytes(cfg.MaxBodyBytes),
			dshttp.WithUserAgent(cfg.UserAgent),
		), logger)

		c := &crawl.Crawler{
			Config:      cfg,
			Fetcher:     fetcher,
			Limiter:     limiter,
			Processor:   dsslog.NewLoggingProcessor(newProcessor(cfg.Processor, links), logger),
			Store:       store,
			Checkpoints: checkpoints,
			Observer:    observer,
			Logger:      logger,
		}
		if cmd.Sitemap {
			c.Sitemaps = dsslog.NewLoggingSitemapService(dshttp.NewSitemapService(fetcher), logger)
		}
		return c, nil
	})
	return nil
}

// newProcessor returns the page processor registered under name.
func newProcessor(name string, links docscrape.LinkSelectorRegistry) docscrape.PageProcessor {
	switch name {
	case docscrape.ProcessorReadability:
		return &crawl.DocProcessor{
			Extractor: readability.NewExtractor(),
			Converter: htmltomarkdown.NewConverter(),
			Links:     links,
		}
	case docscrape.ProcessorLinks:
		return &crawl.LinkProcessor{Links: links}
	default:
		return &crawl.DocProcessor{
			Extractor: trafilatura.NewExtractor(),
			Converter: htmltomarkdown.NewConverter(),
			Links:     links,
		}
	}
}

func (m *Main) checkpointStore(ctx context.Context, f *StoreFlags) (docscrape.CheckpointStore, error) {
	switch f.Checkpoints {
	case "sqlite":
		db, err := m.openDB(f.DB)
		if err != nil {
			return nil, err
		}
		return sqlite.NewCheckpointStore(db), nil
	case "redis":
		if m.Redis == nil {
			rdb, err := dsredis.Dial(ctx, f.Redis)
			if err != nil {
				return nil, err
			}
			m.Redis = rdb
		}
		return dsredis.NewCheckpointStore(m.Redis), nil
	default:
		return fs.NewCheckpointStore(f.CheckpointDir), nil
	}
}

func (m *Main) openDB(path string) (*sqlite.DB, error) {
	if m.DB != nil {
		return m.DB, nil
	}
	db := sqlite.NewDB(path)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	m.DB = db
	return db, nil
}

func (m *Main) serveMetrics(addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}
	m.metrics = &http.Server{Handler: dsprom.NewRouter(g), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := m.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}
