package mock

import (
	"context"
	"log/slog"

	"github.com/fwojciec/warmup"
)

var (
	_ warmup.Crawler             = (*Crawler)(nil)
	_ warmup.ConfigurableCrawler = (*ConfigurableCrawler)(nil)
	_ warmup.VerboseCrawler      = (*VerboseCrawler)(nil)
	_ warmup.LoggingCrawler      = (*LoggingCrawler)(nil)
)

// Crawler is a mock implementation of warmup.Crawler.
type Crawler struct {
	CrawlFn func(ctx context.Context, urls []string) (*warmup.Result, error)
}

func (c *Crawler) Crawl(ctx context.Context, urls []string) (*warmup.Result, error) {
	return c.CrawlFn(ctx, urls)
}

// ConfigurableCrawler is a mock implementation of warmup.ConfigurableCrawler.
type ConfigurableCrawler struct {
	Crawler
	SetOptionsFn func(opts warmup.Options) error
}

func (c *ConfigurableCrawler) SetOptions(opts warmup.Options) error {
	return c.SetOptionsFn(opts)
}

// VerboseCrawler is a mock implementation of warmup.VerboseCrawler.
type VerboseCrawler struct {
	Crawler
	SetProgressFn func(fn warmup.ProgressFunc) error
}

func (c *VerboseCrawler) SetProgress(fn warmup.ProgressFunc) error {
	return c.SetProgressFn(fn)
}

// LoggingCrawler is a mock implementation of warmup.LoggingCrawler.
type LoggingCrawler struct {
	Crawler
	SetLoggerFn func(logger *slog.Logger, level slog.Level) error
}

func (c *LoggingCrawler) SetLogger(logger *slog.Logger, level slog.Level) error {
	return c.SetLoggerFn(logger, level)
}
