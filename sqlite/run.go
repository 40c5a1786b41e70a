package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/warmup"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ warmup.RunService = (*RunService)(nil)

// RunService implements warmup.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun stores the run and its results in one transaction. Run counts
// of successful and failed URLs are taken from result.
func (s *RunService) CreateRun(ctx context.Context, run *warmup.Run, result *warmup.Result) error {
	if err := run.Validate(); err != nil {
		return err
	}
	if result == nil {
		result = warmup.NewResult()
	}

	successful, failed := result.Successful(), result.Failed()
	run.ID = uuid.New().String()
	run.Successful = len(successful)
	run.Failed = len(failed)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, sitemaps, failed_sitemaps, successful, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Sitemaps, run.FailedSitemaps, run.Successful, run.Failed,
		formatTime(run.StartedAt), formatTime(run.FinishedAt)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_results (run_id, position, url, url_hash, outcome, status_code, error, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range append(successful, failed...) {
		var errMsg string
		if r.Err != nil {
			errMsg = warmup.ErrorMessage(r.Err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.URL, urlHash(r.URL), r.Outcome.String(),
			r.StatusCode, errMsg, int64(r.Duration)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*warmup.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sitemaps, failed_sitemaps, successful, failed, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, warmup.Errorf(warmup.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// FindRuns retrieves runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter warmup.RunFilter) ([]*warmup.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, sitemaps, failed_sitemaps, successful, failed, started_at, finished_at FROM runs WHERE 1=1")

	if filter.URL != nil {
		query.WriteString(" AND id IN (SELECT run_id FROM run_results WHERE url_hash = ? AND url = ?)")
		args = append(args, urlHash(*filter.URL), *filter.URL)
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*warmup.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRunResults retrieves the results of a run: successful URLs first,
// then failed ones, each in crawl order.
func (s *RunService) FindRunResults(ctx context.Context, runID string) ([]warmup.CrawlingResult, error) {
	if _, err := s.FindRunByID(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, outcome, status_code, error, duration_ns
		FROM run_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []warmup.CrawlingResult
	for rows.Next() {
		var r warmup.CrawlingResult
		var outcome, errMsg string
		var duration int64
		if err := rows.Scan(&r.URL, &outcome, &r.StatusCode, &errMsg, &duration); err != nil {
			return nil, err
		}

		r.Duration = time.Duration(duration)
		if outcome == warmup.OutcomeFailed.String() {
			r.Outcome = warmup.OutcomeFailed
		}
		if errMsg != "" {
			r.Err = warmup.Errorf(warmup.ETRANSPORT, "%s", errMsg)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*warmup.Run, error) {
	var run warmup.Run
	var startedAt, finishedAt string

	if err := row.Scan(&run.ID, &run.Sitemaps, &run.FailedSitemaps, &run.Successful, &run.Failed,
		&startedAt, &finishedAt); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt, "finished_at"); err != nil {
		return nil, err
	}
	return &run, nil
}
