package main

import (
	"fmt"

	"github.com/fwojciec/docscrape"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	cfg, err := c.Config()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docscrape.ErrorMessage(err))
		return err
	}
	if len(c.Seeds) == 0 && !cfg.Resume {
		err := docscrape.Errorf(docscrape.EINVALID, "at least one seed URL is required")
		fmt.Fprintf(deps.Stderr, "error: %s\n", docscrape.ErrorMessage(err))
		return err
	}

	id, err := deps.Manager.Begin(deps.Ctx, c.Seeds, cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docscrape.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Run %s\n", id)

	updates, unsubscribe, err := deps.Manager.Subscribe(id)
	if err != nil {
		return err
	}
	defer unsubscribe()

	line := &progressLine{w: deps.Stdout, quiet: c.Quiet}
	interrupts := 0
	for updates != nil {
		select {
		case snap, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			line.print(snap)
		case <-deps.Interrupts:
			interrupts++
			_ = deps.Manager.Cancel(id)
			if interrupts == 1 {
				fmt.Fprintln(deps.Stderr, "\nStopping after pages in progress. Press Ctrl+C again to abort.")
			} else {
				fmt.Fprintln(deps.Stderr, "\nAborting.")
			}
		}
	}
	line.clear()

	summary, err := deps.Manager.Wait(deps.Ctx, id)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docscrape.ErrorMessage(err))
		return err
	}
	printSummary(deps.Stdout, summary)
	if summary.Interrupted {
		fmt.Fprintf(deps.Stdout, "Resume with: docscrape crawl --resume --run-id %s\n", id)
	}
	return nil
}
