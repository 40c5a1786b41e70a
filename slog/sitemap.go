// Package slog provides log/slog decorators for the warmup interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/warmup"
)

// Compile-time interface verification.
var (
	_ warmup.SitemapResolver = (*LoggingSitemapResolver)(nil)
	_ warmup.SitemapLocator  = (*LoggingSitemapLocator)(nil)
)

// LoggingSitemapResolver wraps a SitemapResolver with logging.
type LoggingSitemapResolver struct {
	next   warmup.SitemapResolver
	logger *slog.Logger
}

// NewLoggingSitemapResolver creates a new LoggingSitemapResolver.
func NewLoggingSitemapResolver(next warmup.SitemapResolver, logger *slog.Logger) *LoggingSitemapResolver {
	return &LoggingSitemapResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the operation.
func (r *LoggingSitemapResolver) Resolve(ctx context.Context, sitemap warmup.Sitemap) (res *warmup.Resolution, err error) {
	defer func(begin time.Time) {
		var urls, nested int
		if res != nil {
			urls, nested = len(res.URLs), len(res.Sitemaps)
		}
		r.logger.Info("sitemap resolve",
			"url", sitemap.URL,
			"urls", urls,
			"sitemaps", nested,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Resolve(ctx, sitemap)
}

// LoggingSitemapLocator wraps a SitemapLocator with logging.
type LoggingSitemapLocator struct {
	next   warmup.SitemapLocator
	logger *slog.Logger
}

// NewLoggingSitemapLocator creates a new LoggingSitemapLocator.
func NewLoggingSitemapLocator(next warmup.SitemapLocator, logger *slog.Logger) *LoggingSitemapLocator {
	return &LoggingSitemapLocator{next: next, logger: logger}
}

// Locate delegates to the wrapped locator and logs the operation.
func (l *LoggingSitemapLocator) Locate(ctx context.Context, siteURL string) (sitemaps []warmup.Sitemap, err error) {
	defer func(begin time.Time) {
		l.logger.Info("sitemap discovery",
			"url", siteURL,
			"count", len(sitemaps),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Locate(ctx, siteURL)
}
