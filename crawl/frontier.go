package crawl

import (
	"sync"

	"github.com/fwojciec/warmup"
	"github.com/fwojciec/warmup/bloom"
)

// Compile-time interface verification.
var _ warmup.URLFrontier = (*Frontier)(nil)

// Bloom filter sizing for the frontier prefilter.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
)

// Frontier is an in-memory, insertion-ordered URL set bounded by a limit.
// A Bloom filter answers most "new URL" checks; possible duplicates are
// confirmed against an exact index.
// It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu    sync.Mutex
	limit int
	seen  *bloom.Filter
	index map[string]struct{}
	urls  []string
}

// NewFrontier creates a Frontier holding at most limit URLs.
// A limit of 0 means unlimited.
func NewFrontier(limit int) *Frontier {
	expected := uint(frontierExpectedURLs)
	if limit > 0 && limit < frontierExpectedURLs {
		expected = uint(limit)
	}
	return &Frontier{
		limit: max(limit, 0),
		seen:  bloom.NewFilter(expected, frontierFalsePositiveRate),
		index: make(map[string]struct{}),
	}
}

// Push adds a normalized URL.
// Returns false if the URL was already added or the limit is reached.
func (f *Frontier) Push(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.limit > 0 && len(f.urls) >= f.limit {
		return false
	}
	if f.seen.MaybeSeen(url) {
		if _, ok := f.index[url]; ok {
			return false
		}
	}
	f.index[url] = struct{}{}
	f.urls = append(f.urls, url)
	return true
}

// URLs returns a copy of the URLs in insertion order.
func (f *Frontier) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// Len returns the number of URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

// Seen returns true if the URL has been added.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.seen.Test(url) {
		return false
	}
	_, ok := f.index[url]
	return ok
}

// Full returns true once the limit is reached.
func (f *Frontier) Full() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limit > 0 && len(f.urls) >= f.limit
}

// Limit returns the configured limit, 0 meaning unlimited.
func (f *Frontier) Limit() int {
	return f.limit
}
