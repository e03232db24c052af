package main

import (
	"fmt"
	"sort"

	"github.com/fwojciec/docscrape"
	"github.com/fwojciec/docscrape/fs"
)

// Run executes the inspect command.
func (c *InspectCmd) Run(deps *Dependencies) error {
	var snap *docscrape.CheckpointSnapshot
	var err error
	if c.Checkpoints == "files" {
		snap, err = fs.ReadCheckpointFile(c.Checkpoint)
	} else {
		snap, err = deps.Checkpoints.Load(deps.Ctx, docscrape.RunID(c.Checkpoint))
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docscrape.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Run:        %s\n", snap.RunID)
	fmt.Fprintf(deps.Stdout, "Saved:      %s\n", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	for _, s := range snap.Seeds {
		fmt.Fprintf(deps.Stdout, "Seed:       %s\n", s)
	}
	fmt.Fprintf(deps.Stdout, "Pending:    %d\n", len(snap.Pending)+len(snap.InFlight))
	fmt.Fprintf(deps.Stdout, "Processed:  %d\n", len(snap.Processed))
	fmt.Fprintf(deps.Stdout, "Failed:     %d\n", len(snap.Failed))

	byClass := make(map[string]int)
	for _, f := range snap.Failed {
		byClass[f.Class]++
	}
	printClasses(deps.Stdout, byClass)

	if c.Failures {
		failed := append([]docscrape.FailedRecord(nil), snap.Failed...)
		sort.Slice(failed, func(i, j int) bool { return failed[i].URL < failed[j].URL })
		for _, f := range failed {
			fmt.Fprintf(deps.Stdout, "  %-10s %s (%d attempts)\n", f.Class, f.URL, f.Attempts)
		}
	}
	return nil
}
