package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/fwojciec/warmup"
	"github.com/fwojciec/warmup/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(startedAt time.Time) *warmup.Run {
	return &warmup.Run{
		Sitemaps:       3,
		FailedSitemaps: 1,
		StartedAt:      startedAt,
		FinishedAt:     startedAt.Add(2 * time.Second),
	}
}

func newResult(urls ...string) *warmup.Result {
	res := warmup.NewResult()
	for _, u := range urls {
		res.Add(warmup.CrawlingResult{
			URL:        u,
			Outcome:    warmup.OutcomeSuccessful,
			StatusCode: http.StatusOK,
			Duration:   150 * time.Millisecond,
		})
	}
	return res
}

func TestRunService_CreateRun(t *testing.T) {
	t.Parallel()

	t.Run("creates run with generated ID and counts", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()

		result := newResult("https://example.org/", "https://example.org/foo")
		result.Add(warmup.CrawlingResult{
			URL:     "https://example.org/down",
			Outcome: warmup.OutcomeFailed,
			Err:     warmup.Errorf(warmup.ETRANSPORT, "connection refused"),
		})
		run := newRun(time.Now())

		require.NoError(t, svc.CreateRun(ctx, run, result))

		assert.NotEmpty(t, run.ID, "ID should be generated")
		assert.Equal(t, 2, run.Successful)
		assert.Equal(t, 1, run.Failed)
	})

	t.Run("stores a run without results", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()
		run := newRun(time.Now())

		require.NoError(t, svc.CreateRun(ctx, run, nil))

		results, err := svc.FindRunResults(ctx, run.ID)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("returns error for invalid run", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))

		err := svc.CreateRun(context.Background(), &warmup.Run{}, warmup.NewResult())

		require.Error(t, err)
		assert.Equal(t, warmup.EINVALID, warmup.ErrorCode(err))
	})
}

func TestRunService_FindRunByID(t *testing.T) {
	t.Parallel()

	t.Run("returns run when found", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()
		startedAt := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
		run := newRun(startedAt)
		require.NoError(t, svc.CreateRun(ctx, run, newResult("https://example.org/")))

		found, err := svc.FindRunByID(ctx, run.ID)

		require.NoError(t, err)
		assert.Equal(t, run.ID, found.ID)
		assert.Equal(t, 3, found.Sitemaps)
		assert.Equal(t, 1, found.FailedSitemaps)
		assert.Equal(t, 1, found.Successful)
		assert.Equal(t, 0, found.Failed)
		assert.True(t, startedAt.Equal(found.StartedAt))
		assert.True(t, startedAt.Add(2*time.Second).Equal(found.FinishedAt))
	})

	t.Run("returns ENOTFOUND when not found", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))

		_, err := svc.FindRunByID(context.Background(), "nonexistent-id")

		require.Error(t, err)
		assert.Equal(t, warmup.ENOTFOUND, warmup.ErrorCode(err))
	})
}

func TestRunService_FindRuns(t *testing.T) {
	t.Parallel()

	t.Run("returns runs newest first", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var ids []string
		for i := range 3 {
			run := newRun(base.Add(time.Duration(i) * time.Minute))
			require.NoError(t, svc.CreateRun(ctx, run, nil))
			ids = append(ids, run.ID)
		}

		runs, err := svc.FindRuns(ctx, warmup.RunFilter{})

		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, ids[2], runs[0].ID)
		assert.Equal(t, ids[0], runs[2].ID)
	})

	t.Run("filters by crawled URL", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()

		r1 := newRun(time.Now())
		require.NoError(t, svc.CreateRun(ctx, r1, newResult("https://example.org/a", "https://example.org/b")))
		r2 := newRun(time.Now())
		require.NoError(t, svc.CreateRun(ctx, r2, newResult("https://example.org/c")))

		url := "https://example.org/b"
		runs, err := svc.FindRuns(ctx, warmup.RunFilter{URL: &url})

		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, r1.ID, runs[0].ID)
	})

	t.Run("respects limit and offset", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		for i := range 5 {
			require.NoError(t, svc.CreateRun(ctx, newRun(base.Add(time.Duration(i)*time.Second)), nil))
		}

		runs, err := svc.FindRuns(ctx, warmup.RunFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, runs, 2)

		runs, err = svc.FindRuns(ctx, warmup.RunFilter{Offset: 3})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})
}

func TestRunService_FindRunResults(t *testing.T) {
	t.Parallel()

	t.Run("returns successful results first in crawl order", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()

		result := warmup.NewResult()
		result.Add(warmup.CrawlingResult{URL: "https://example.org/a", Outcome: warmup.OutcomeSuccessful, StatusCode: 200, Duration: time.Second})
		result.Add(warmup.CrawlingResult{URL: "https://example.org/b", Outcome: warmup.OutcomeFailed, Err: errors.New("connection refused")})
		result.Add(warmup.CrawlingResult{URL: "https://example.org/c", Outcome: warmup.OutcomeSuccessful, StatusCode: 404})
		run := newRun(time.Now())
		require.NoError(t, svc.CreateRun(ctx, run, result))

		results, err := svc.FindRunResults(ctx, run.ID)

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "https://example.org/a", results[0].URL)
		assert.Equal(t, time.Second, results[0].Duration)
		assert.Equal(t, "https://example.org/c", results[1].URL)
		assert.Equal(t, 404, results[1].StatusCode)
		assert.Equal(t, "https://example.org/b", results[2].URL)
		assert.Equal(t, warmup.OutcomeFailed, results[2].Outcome)
		assert.Equal(t, warmup.ETRANSPORT, warmup.ErrorCode(results[2].Err))
	})

	t.Run("keeps results of many runs apart", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		ctx := context.Background()

		var ids []string
		for i := range 3 {
			run := newRun(time.Now())
			require.NoError(t, svc.CreateRun(ctx, run, newResult(fmt.Sprintf("https://example.org/%d", i))))
			ids = append(ids, run.ID)
		}

		results, err := svc.FindRunResults(ctx, ids[1])
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "https://example.org/1", results[0].URL)
	})

	t.Run("returns ENOTFOUND for unknown runs", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))

		_, err := svc.FindRunResults(context.Background(), "nonexistent-id")

		assert.Equal(t, warmup.ENOTFOUND, warmup.ErrorCode(err))
	})
}
