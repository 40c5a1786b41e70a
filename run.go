package warmup

import (
	"context"
	"time"
)

// Run is a recorded warmup run.
type Run struct {
	ID             string    `json:"id"`
	Sitemaps       int       `json:"sitemaps"`
	FailedSitemaps int       `json:"failedSitemaps"`
	Successful     int       `json:"successful"`
	Failed         int       `json:"failed"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.StartedAt.IsZero() {
		return Errorf(EINVALID, "run start time required")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return Errorf(EINVALID, "run cannot finish before it starts")
	}
	return nil
}

// RunService persists warmup runs and their per-URL results.
type RunService interface {
	// CreateRun stores the run and every result row. Sets run.ID.
	CreateRun(ctx context.Context, run *Run, result *Result) error

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)

	// FindRuns retrieves runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// FindRunResults retrieves the per-URL results of a run: successful
	// URLs first, then failed ones, each in crawl order.
	// Returns ENOTFOUND if run does not exist.
	FindRunResults(ctx context.Context, runID string) ([]CrawlingResult, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	// URL restricts runs to those that crawled the URL.
	URL *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
