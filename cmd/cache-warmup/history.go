package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/warmup"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if deps.Runs == nil {
		err := warmup.Errorf(warmup.EINVALID, "run history is disabled, set --history-db")
		fmt.Fprintf(deps.Stderr, "error: %s\n", warmup.ErrorMessage(err))
		return err
	}
	if c.ID != "" {
		return c.show(deps)
	}
	return c.list(deps)
}

func (c *HistoryCmd) list(deps *Dependencies) error {
	filter := warmup.RunFilter{Limit: c.Limit}
	if c.URL != "" {
		u, err := warmup.NormalizeURL(c.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", warmup.ErrorMessage(err))
			return err
		}
		filter.URL = &u
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", warmup.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded. Pass --history-db to 'cache-warmup warm' to record one.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %s  %d ok  %d failed  %d sitemaps (%d failed)\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Successful, r.Failed, r.Sitemaps, r.FailedSitemaps)
	}
	return nil
}

func (c *HistoryCmd) show(deps *Dependencies) error {
	run, err := deps.Runs.FindRunByID(deps.Ctx, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", warmup.ErrorMessage(err))
		return err
	}
	results, err := deps.Runs.FindRunResults(deps.Ctx, run.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", warmup.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Run %s started %s, took %s\n",
		run.ID, run.StartedAt.Local().Format(time.DateTime), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(deps.Stdout, "%d ok, %d failed, %d sitemaps (%d failed)\n",
		run.Successful, run.Failed, run.Sitemaps, run.FailedSitemaps)

	for _, r := range results {
		if r.Successful() {
			if !c.Failed {
				fmt.Fprintf(deps.Stdout, "  OK   %s %d %s\n", r.URL, r.StatusCode, r.Duration.Round(time.Millisecond))
			}
			continue
		}
		fmt.Fprintf(deps.Stdout, "  FAIL %s: %s\n", r.URL, warmup.ErrorMessage(r.Err))
	}
	return nil
}
