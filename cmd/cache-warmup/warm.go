package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/fwojciec/warmup"
	"github.com/fwojciec/warmup/crawl"
	"github.com/fwojciec/warmup/fs"
	warmhttp "github.com/fwojciec/warmup/http"
	warmslog "github.com/fwojciec/warmup/slog"
)

// Run executes the warm command.
func (c *WarmCmd) Run(deps *Dependencies) error {
	if err := c.run(deps); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", warmup.ErrorMessage(err))
		return err
	}
	return nil
}

func (c *WarmCmd) run(deps *Dependencies) error {
	ctx := deps.Ctx
	logger := deps.logger()

	formatter, err := NewFormatter(c.Format, c.Verbose)
	if err != nil {
		return err
	}
	if len(c.Sitemaps) == 0 && len(c.URLs) == 0 && len(c.Sites) == 0 {
		return warmup.Errorf(warmup.EINVALID, "nothing to warm: pass sitemap URLs, --url or --site")
	}
	if c.Limit < 0 {
		return warmup.Errorf(warmup.EINVALID, "limit must not be negative")
	}

	opts, err := c.crawlerOptions()
	if err != nil {
		return err
	}
	clientConfig, err := opts.Map(crawl.OptionClientConfig)
	if err != nil {
		return err
	}
	client, err := deps.NewClient(clientConfig)
	if err != nil {
		return err
	}

	crawler, err := c.crawler(deps, opts)
	if err != nil {
		return err
	}

	resolver := warmslog.NewLoggingSitemapResolver(warmhttp.NewSitemapResolver(client), logger)
	warmer := crawl.NewWarmer(c.Limit, resolver, crawler, c.Strict)

	if len(c.Sites) > 0 {
		locator := warmslog.NewLoggingSitemapLocator(warmhttp.NewSitemapLocator(client), logger)
		for _, site := range c.Sites {
			sitemaps, err := locator.Locate(ctx, site)
			if err != nil {
				return err
			}
			if err := warmer.AddSitemaps(ctx, sitemaps); err != nil {
				return interrupted(err)
			}
		}
	}
	if err := warmer.AddSitemaps(ctx, c.Sitemaps); err != nil {
		return interrupted(err)
	}
	for _, u := range c.URLs {
		if err := warmer.AddURL(u); err != nil {
			return err
		}
	}

	startedAt := deps.now()
	result, err := warmer.Run(ctx)
	if err != nil {
		return err
	}
	finishedAt := deps.now()

	report := &warmup.Report{
		Sitemaps:       warmer.Sitemaps(),
		FailedSitemaps: warmer.FailedSitemaps(),
		URLs:           warmer.URLs(),
		Result:         result,
	}
	run := &warmup.Run{
		Sitemaps:       len(report.Sitemaps),
		FailedSitemaps: len(report.FailedSitemaps),
		Successful:     len(result.Successful()),
		Failed:         len(result.Failed()),
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
	}

	if deps.Runs != nil {
		// A canceled run is still worth recording.
		if err := deps.Runs.CreateRun(context.WithoutCancel(ctx), run, result); err != nil {
			logger.Error("recording run failed", "err", err)
		} else {
			report.Run = run
		}
	}

	if deps.Metrics != nil && c.MetricsFile != "" {
		deps.Metrics.ObserveRun(run)
		if err := deps.Metrics.WriteTextfile(c.MetricsFile); err != nil {
			return err
		}
	}

	if c.Output != "" {
		if err := fs.WriteReport(c.Output, formatter, report); err != nil {
			return err
		}
	} else if err := formatter.Format(deps.Stdout, report); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return interrupted(err)
	}
	if report.HasFailures() && !c.AllowFailures {
		return failures(report)
	}
	return nil
}

// crawlerOptions parses --crawler-options. The browser crawler defaults to
// GET because a page cannot be rendered from a HEAD response.
func (c *WarmCmd) crawlerOptions() (warmup.Options, error) {
	opts := warmup.Options{}
	if c.CrawlerOptions != "" {
		var err error
		if opts, err = warmup.ParseOptions([]byte(c.CrawlerOptions)); err != nil {
			return nil, err
		}
	}
	if c.Crawler == crawlerBrowser {
		if _, ok := opts[crawl.OptionRequestMethod]; !ok {
			opts = opts.Merge(warmup.Options{crawl.OptionRequestMethod: http.MethodGet})
		}
	}
	return opts, nil
}

// crawler builds and configures the selected crawler. Capabilities the
// crawler lacks are skipped with a warning.
func (c *WarmCmd) crawler(deps *Dependencies, opts warmup.Options) (warmup.Crawler, error) {
	logger := deps.logger()

	name := c.Crawler
	if c.Progress && name == crawl.CrawlerConcurrent {
		name = crawl.CrawlerOutputting
	}

	var observers []warmup.Observer
	if deps.Metrics != nil {
		observers = append(observers, deps.Metrics)
	}
	crawler, err := deps.Crawlers.New(name, observers...)
	if err != nil {
		return nil, err
	}

	if cc, ok := crawler.(warmup.ConfigurableCrawler); ok {
		if err := cc.SetOptions(opts); err != nil {
			return nil, err
		}
	} else if len(opts) > 0 {
		logger.Warn("crawler does not accept options", "crawler", name)
	}

	if lc, ok := crawler.(warmup.LoggingCrawler); ok {
		level := slog.LevelWarn
		if c.Verbose {
			level = slog.LevelInfo
		}
		if err := lc.SetLogger(logger, level); err != nil {
			return nil, err
		}
	}

	if c.Progress {
		if vc, ok := crawler.(warmup.VerboseCrawler); ok {
			if err := vc.SetProgress(progressPrinter(deps)); err != nil {
				return nil, err
			}
		} else {
			logger.Warn("crawler does not report progress", "crawler", name)
		}
	}
	return crawler, nil
}

// progressPrinter rewrites a single progress line on stderr.
func progressPrinter(deps *Dependencies) warmup.ProgressFunc {
	return func(p warmup.ProgressEvent) {
		if p.Error != nil {
			fmt.Fprintf(deps.Stderr, "\rfail %s: %s\n", p.URL, warmup.ErrorMessage(p.Error))
		}
		fmt.Fprintf(deps.Stderr, "\r[%d/%d] %s", p.Completed, p.Total, truncateURL(p.URL, 40))
		if p.Completed == p.Total {
			// Clear progress line
			fmt.Fprintf(deps.Stderr, "\r%80s\r", "")
		}
	}
}

// interrupted reports context cancellation as an application error.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return warmup.WrapError(warmup.EINTERNAL, err, "warmup interrupted")
	}
	return err
}

// failures summarizes a report with failures as an exit error.
func failures(report *warmup.Report) error {
	failed := 0
	if report.Result != nil {
		failed = len(report.Result.Failed())
	}
	if failed == 0 {
		return warmup.Errorf(warmup.ESITEMAP, "%d of %d sitemaps failed", len(report.FailedSitemaps), len(report.Sitemaps))
	}
	return warmup.Errorf(warmup.ETRANSPORT, "%d of %d URLs failed, %d sitemaps failed", failed, len(report.URLs), len(report.FailedSitemaps))
}

// truncateURL shortens a URL for display by showing only the path.
// Many URLs of a run share the same host prefix.
func truncateURL(rawURL string, maxLen int) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		if len(rawURL) <= maxLen {
			return rawURL
		}
		return rawURL[:maxLen-3] + "..."
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if len(path) <= maxLen {
		return path
	}

	// Truncate from the left to show the unique suffix
	return "..." + path[len(path)-maxLen+3:]
}
