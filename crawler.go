package warmup

import (
	"context"
	"log/slog"
)

// Crawler requests every URL of a warmup run. It is the only capability
// a crawler must provide.
type Crawler interface {
	// Crawl requests all urls and blocks until every request has settled.
	// Per-URL failures are recorded in the Result, never returned.
	// A non-nil error means the crawler could not start at all.
	Crawl(ctx context.Context, urls []string) (*Result, error)
}

// ConfigurableCrawler accepts options merged over its defaults.
type ConfigurableCrawler interface {
	Crawler
	SetOptions(opts Options) error
}

// VerboseCrawler reports progress while crawling.
type VerboseCrawler interface {
	Crawler
	SetProgress(fn ProgressFunc) error
}

// LoggingCrawler emits one structured record per settled request.
// Records below level are dropped.
type LoggingCrawler interface {
	Crawler
	SetLogger(logger *slog.Logger, level slog.Level) error
}

// Observer is notified once per settled request.
// Observers of a crawler are called from a single goroutine.
type Observer interface {
	Observe(result CrawlingResult)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(result CrawlingResult)

// Observe calls f(result).
func (f ObserverFunc) Observe(result CrawlingResult) {
	f(result)
}

// ProgressEvent reports that one more request has settled.
type ProgressEvent struct {
	URL       string
	Completed int
	Total     int
	Error     error
}

// ProgressFunc is called as requests settle.
type ProgressFunc func(ProgressEvent)
