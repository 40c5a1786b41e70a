package mock

import (
	"context"

	"github.com/fwojciec/warmup"
)

var _ warmup.RunService = (*RunService)(nil)

// RunService is a mock implementation of warmup.RunService.
type RunService struct {
	CreateRunFn      func(ctx context.Context, run *warmup.Run, result *warmup.Result) error
	FindRunByIDFn    func(ctx context.Context, id string) (*warmup.Run, error)
	FindRunsFn       func(ctx context.Context, filter warmup.RunFilter) ([]*warmup.Run, error)
	FindRunResultsFn func(ctx context.Context, runID string) ([]warmup.CrawlingResult, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *warmup.Run, result *warmup.Result) error {
	return s.CreateRunFn(ctx, run, result)
}

func (s *RunService) FindRunByID(ctx context.Context, id string) (*warmup.Run, error) {
	return s.FindRunByIDFn(ctx, id)
}

func (s *RunService) FindRuns(ctx context.Context, filter warmup.RunFilter) ([]*warmup.Run, error) {
	return s.FindRunsFn(ctx, filter)
}

func (s *RunService) FindRunResults(ctx context.Context, runID string) ([]warmup.CrawlingResult, error) {
	return s.FindRunResultsFn(ctx, runID)
}
