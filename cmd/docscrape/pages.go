package main

import (
	"fmt"

	"github.com/fwojciec/docscrape"
)

// Run executes the pages command.
func (c *PagesCmd) Run(deps *Dependencies) error {
	pages, err := deps.Pages.FindPages(deps.Ctx, docscrape.PageFilter{
		RunID:  docscrape.RunID(c.RunID),
		Limit:  c.Limit,
		Offset: c.Offset,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docscrape.ErrorMessage(err))
		return err
	}

	if len(pages) == 0 {
		fmt.Fprintln(deps.Stdout, "No pages found. Use 'docscrape crawl --store sqlite' to store some.")
		return nil
	}

	if c.Full {
		fmt.Fprintln(deps.Stdout, docscrape.FormatPages(pages))
		return nil
	}
	for _, p := range pages {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", p.RunID, p.ContentHash, p.URL, FormatBytes(int64(len(p.Content))))
	}
	return nil
}
