package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/warmup"
	"github.com/fwojciec/warmup/crawl"
	warmprom "github.com/fwojciec/warmup/prometheus"
)

// crawlerBrowser renders pages in headless Chrome.
const crawlerBrowser = "browser"

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// NewClient builds the client used to fetch sitemaps and robots.txt.
	NewClient warmup.ClientFactory
	Crawlers  *crawl.Registry

	// Runs is nil when run history is disabled.
	Runs warmup.RunService
	// Metrics is nil unless a metrics file was requested.
	Metrics *warmprom.Metrics

	Now func() time.Time
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func (d *Dependencies) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    kong.ConfigFlag `help:"Load flag defaults from a JSON file keyed by flag name (log-level or log_level)"`
	LogLevel  string          `name:"log-level" default:"info" enum:"debug,info,warn,error" env:"CACHE_WARMUP_LOG_LEVEL" help:"Minimum log level (${enum})"`
	LogFormat string          `name:"log-format" default:"text" enum:"text,json" env:"CACHE_WARMUP_LOG_FORMAT" help:"Log record format (${enum})"`
	LogFile   string          `name:"log-file" env:"CACHE_WARMUP_LOG_FILE" help:"Append log records to this file instead of stderr"`
	HistoryDB string          `name:"history-db" env:"CACHE_WARMUP_HISTORY_DB" help:"SQLite database recording run history"`

	Warm    WarmCmd    `cmd:"" default:"withargs" help:"Warm the cache for sitemap URLs (default command)"`
	History HistoryCmd `cmd:"" help:"List recorded runs or show the results of one run"`
}

// WarmCmd is the "warm" subcommand.
type WarmCmd struct {
	Sitemaps       []string `arg:"" optional:"" help:"Sitemap URLs to warm"`
	URLs           []string `name:"url" short:"u" help:"Additional URL to warm (repeatable)"`
	Sites          []string `name:"site" help:"Site whose sitemaps are discovered from robots.txt (repeatable)"`
	Limit          int      `short:"l" default:"0" env:"CACHE_WARMUP_LIMIT" help:"Maximum number of URLs to warm, 0 for no limit"`
	Crawler        string   `short:"c" default:"concurrent" env:"CACHE_WARMUP_CRAWLER" help:"Crawler to use (concurrent, outputting, browser)"`
	CrawlerOptions string   `name:"crawler-options" short:"o" env:"CACHE_WARMUP_CRAWLER_OPTIONS" help:"Crawler options as a JSON object"`
	Progress       bool     `short:"p" help:"Show progress while crawling"`
	Format         string   `short:"f" default:"text" env:"CACHE_WARMUP_FORMAT" help:"Report format (text, json)"`
	Output         string   `help:"Write the report to this file instead of stdout"`
	AllowFailures  bool     `name:"allow-failures" help:"Exit successfully even if URLs or sitemaps failed"`
	Strict         bool     `help:"Abort at the first sitemap that cannot be resolved"`
	Verbose        bool     `short:"v" help:"Log every crawled URL and list successful URLs in the report"`
	MetricsFile    string   `name:"metrics-file" env:"CACHE_WARMUP_METRICS_FILE" help:"Write Prometheus metrics to this textfile"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	ID     string `arg:"" optional:"" help:"Run ID whose results to show"`
	URL    string `help:"Only list runs that warmed this URL"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of runs to list"`
	Failed bool   `help:"Only show failed URLs of the run"`
}
