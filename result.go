package warmup

import (
	"encoding/json"
	"sync"
	"time"
)

// Outcome classifies a crawled URL.
type Outcome int

const (
	// OutcomeSuccessful means the request reached the origin or cache layer,
	// whatever the status code.
	OutcomeSuccessful Outcome = iota
	// OutcomeFailed means the request failed at the transport level.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccessful:
		return "successful"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// CrawlingResult is the outcome of requesting one URL.
type CrawlingResult struct {
	URL        string
	Outcome    Outcome
	StatusCode int
	Err        error
	Duration   time.Duration
}

// Successful reports whether the request reached the origin.
func (r CrawlingResult) Successful() bool {
	return r.Outcome == OutcomeSuccessful
}

// Result partitions crawled URLs into successful and failed ones.
// It is filled while crawling and must be treated as read-only afterwards.
// Result is safe for concurrent use.
type Result struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	successful []CrawlingResult
	failed     []CrawlingResult
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{seen: make(map[string]struct{})}
}

// Add records r in the sequence matching its outcome.
// Returns false if the URL was already recorded.
func (res *Result) Add(r CrawlingResult) bool {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.seen == nil {
		res.seen = make(map[string]struct{})
	}
	if _, ok := res.seen[r.URL]; ok {
		return false
	}
	res.seen[r.URL] = struct{}{}

	if r.Outcome == OutcomeSuccessful {
		res.successful = append(res.successful, r)
	} else {
		res.failed = append(res.failed, r)
	}
	return true
}

// Successful returns the successfully crawled URLs.
func (res *Result) Successful() []CrawlingResult {
	res.mu.Lock()
	defer res.mu.Unlock()
	return append([]CrawlingResult(nil), res.successful...)
}

// Failed returns the URLs whose requests failed.
func (res *Result) Failed() []CrawlingResult {
	res.mu.Lock()
	defer res.mu.Unlock()
	return append([]CrawlingResult(nil), res.failed...)
}

// Len returns the number of recorded URLs.
func (res *Result) Len() int {
	res.mu.Lock()
	defer res.mu.Unlock()
	return len(res.successful) + len(res.failed)
}

// HasFailures reports whether any URL failed.
func (res *Result) HasFailures() bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	return len(res.failed) > 0
}

type jsonCrawlingResult struct {
	URL        string  `json:"url"`
	StatusCode int     `json:"statusCode,omitempty"`
	Error      string  `json:"error,omitempty"`
	Duration   float64 `json:"durationSeconds"`
}

// MarshalJSON encodes the result as {"successful": [...], "failed": [...]}.
func (res *Result) MarshalJSON() ([]byte, error) {
	convert := func(in []CrawlingResult) []jsonCrawlingResult {
		out := make([]jsonCrawlingResult, 0, len(in))
		for _, r := range in {
			jr := jsonCrawlingResult{
				URL:        r.URL,
				StatusCode: r.StatusCode,
				Duration:   r.Duration.Seconds(),
			}
			if r.Err != nil {
				jr.Error = ErrorMessage(r.Err)
			}
			out = append(out, jr)
		}
		return out
	}
	return json.Marshal(struct {
		Successful []jsonCrawlingResult `json:"successful"`
		Failed     []jsonCrawlingResult `json:"failed"`
	}{
		Successful: convert(res.Successful()),
		Failed:     convert(res.Failed()),
	})
}
