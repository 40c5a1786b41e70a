package mock

import (
	"context"

	"github.com/fwojciec/warmup"
)

var (
	_ warmup.SitemapResolver = (*SitemapResolver)(nil)
	_ warmup.SitemapLocator  = (*SitemapLocator)(nil)
)

// SitemapResolver is a mock implementation of warmup.SitemapResolver.
type SitemapResolver struct {
	ResolveFn func(ctx context.Context, sitemap warmup.Sitemap) (*warmup.Resolution, error)
}

func (r *SitemapResolver) Resolve(ctx context.Context, sitemap warmup.Sitemap) (*warmup.Resolution, error) {
	return r.ResolveFn(ctx, sitemap)
}

// SitemapLocator is a mock implementation of warmup.SitemapLocator.
type SitemapLocator struct {
	LocateFn func(ctx context.Context, siteURL string) ([]warmup.Sitemap, error)
}

func (l *SitemapLocator) Locate(ctx context.Context, siteURL string) ([]warmup.Sitemap, error) {
	return l.LocateFn(ctx, siteURL)
}
