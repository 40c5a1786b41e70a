package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/warmup"
)

// settlement is the raw outcome of one request, produced by a worker.
type settlement struct {
	position   int
	url        string
	statusCode int
	err        error
	duration   time.Duration
}

// batchObserver is implemented by observers that need the batch size
// before the first settlement arrives.
type batchObserver interface {
	warmup.Observer
	begin(total int)
}

// collector classifies settlements and keeps them by submission position.
// Any response counts as successful; only transport failures fail.
type collector struct {
	slots  []warmup.CrawlingResult
	filled []bool
}

func newCollector(n int) *collector {
	return &collector{
		slots:  make([]warmup.CrawlingResult, n),
		filled: make([]bool, n),
	}
}

// settle records s and returns its classification.
func (c *collector) settle(s settlement) warmup.CrawlingResult {
	r := warmup.CrawlingResult{
		URL:        s.url,
		Outcome:    warmup.OutcomeSuccessful,
		StatusCode: s.statusCode,
		Duration:   s.duration,
	}
	if s.err != nil {
		r.Outcome = warmup.OutcomeFailed
		r.StatusCode = 0
		r.Err = s.err
		if warmup.ErrorCode(s.err) != warmup.ETRANSPORT {
			r.Err = warmup.WrapError(warmup.ETRANSPORT, s.err, "request to %s failed", s.url)
		}
	}
	c.slots[s.position] = r
	c.filled[s.position] = true
	return r
}

// result builds the Result in submission order.
func (c *collector) result() *warmup.Result {
	res := warmup.NewResult()
	for i, r := range c.slots {
		if c.filled[i] {
			res.Add(r)
		}
	}
	return res
}

// logObserver emits one record per settled request. Successes are logged
// at Info, failures at Warn; records below min are dropped.
type logObserver struct {
	logger *slog.Logger
	min    slog.Level
}

func (o *logObserver) Observe(r warmup.CrawlingResult) {
	level := slog.LevelInfo
	if !r.Successful() {
		level = slog.LevelWarn
	}
	if level < o.min {
		return
	}

	attrs := []any{
		"url", r.URL,
		"outcome", r.Outcome.String(),
		"duration", r.Duration,
	}
	if r.StatusCode != 0 {
		attrs = append(attrs, "status", r.StatusCode)
	}
	if r.Err != nil {
		attrs = append(attrs, "err", warmup.ErrorMessage(r.Err))
	}
	o.logger.Log(context.Background(), level, "crawl", attrs...)
}

// progressObserver reports one ProgressEvent per settled request.
type progressObserver struct {
	fn        warmup.ProgressFunc
	total     int
	completed int
}

func (o *progressObserver) begin(total int) {
	o.total = total
	o.completed = 0
}

func (o *progressObserver) Observe(r warmup.CrawlingResult) {
	o.completed++
	o.fn(warmup.ProgressEvent{
		URL:       r.URL,
		Completed: o.completed,
		Total:     o.total,
		Error:     r.Err,
	})
}
