package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.PageProcessor = (*LoggingProcessor)(nil)

// LoggingProcessor wraps a PageProcessor with debug logging.
type LoggingProcessor struct {
	next   docscrape.PageProcessor
	logger *slog.Logger
}

// NewLoggingProcessor creates a new LoggingProcessor.
func NewLoggingProcessor(next docscrape.PageProcessor, logger *slog.Logger) *LoggingProcessor {
	return &LoggingProcessor{next: next, logger: logger}
}

// Process delegates to the wrapped processor and logs the result.
func (p *LoggingProcessor) Process(ctx context.Context, url string, body []byte) (res *docscrape.ProcessResult, err error) {
	defer func(begin time.Time) {
		var links, chars int
		if res != nil {
			links = len(res.Links)
			if res.Page != nil {
				chars = len(res.Page.Content)
			}
		}
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		p.logger.Log(ctx, level, "process",
			"url", url,
			"bytes", len(body),
			"links", links,
			"content", chars,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Process(ctx, url, body)
}

var _ docscrape.LinkSelectorRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps a LinkSelectorRegistry with debug logging for
// framework detection.
type LoggingRegistry struct {
	next     docscrape.LinkSelectorRegistry
	detector docscrape.FrameworkDetector
	logger   *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next docscrape.LinkSelectorRegistry, detector docscrape.FrameworkDetector, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, detector: detector, logger: logger}
}

// GetForHTML detects the framework, logs it, and returns the wrapped
// registry's selector.
func (r *LoggingRegistry) GetForHTML(html []byte) docscrape.LinkSelector {
	framework := r.detector.Detect(html)
	name := string(framework)
	if framework == docscrape.FrameworkUnknown {
		name = "(unknown)"
	}
	sel := r.next.GetForHTML(html)
	r.logger.Debug("framework detection",
		"framework", name,
		"selector", sel.Name(),
	)
	return sel
}

// Register delegates to the wrapped registry.
func (r *LoggingRegistry) Register(framework docscrape.Framework, selector docscrape.LinkSelector) {
	r.next.Register(framework, selector)
}
