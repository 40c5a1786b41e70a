package http

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/fwojciec/warmup"
	"github.com/temoto/robotstxt"
)

// maxRobotsSize bounds how much of robots.txt is read.
const maxRobotsSize = 512 << 10

// Ensure SitemapLocator implements warmup.SitemapLocator.
var _ warmup.SitemapLocator = (*SitemapLocator)(nil)

// SitemapLocator finds the sitemaps a site declares in robots.txt.
type SitemapLocator struct {
	client warmup.Client
}

// NewSitemapLocator creates a SitemapLocator using client for all fetches.
func NewSitemapLocator(client warmup.Client) *SitemapLocator {
	return &SitemapLocator{client: client}
}

// Locate returns the sitemaps listed in robots.txt of siteURL's host.
// When robots.txt is missing or declares none, /sitemap.xml is returned if
// it exists. Returns an empty slice (not nil) if nothing is found.
func (l *SitemapLocator) Locate(ctx context.Context, siteURL string) ([]warmup.Sitemap, error) {
	normalized, err := warmup.NormalizeURL(siteURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(normalized)
	if err != nil {
		return nil, warmup.WrapError(warmup.EINVALID, err, "invalid site URL %q", siteURL)
	}
	base.Path, base.RawQuery = "", ""

	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})
	if sitemaps := l.fromRobots(ctx, robotsURL.String()); len(sitemaps) > 0 {
		return sitemaps, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sitemapURL := base.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	if l.exists(ctx, sitemapURL.String()) {
		return []warmup.Sitemap{{URL: sitemapURL.String()}}, nil
	}
	return []warmup.Sitemap{}, nil
}

// fromRobots returns the valid, deduplicated Sitemap directives of robots.txt.
func (l *SitemapLocator) fromRobots(ctx context.Context, robotsURL string) []warmup.Sitemap {
	resp, err := l.client.Do(ctx, &warmup.Request{Method: http.MethodGet, URL: robotsURL})
	if err != nil {
		return nil
	}
	rc := responseBody(resp)
	defer rc.Close()

	body, err := io.ReadAll(io.LimitReader(rc, maxRobotsSize))
	if err != nil {
		return nil
	}
	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var sitemaps []warmup.Sitemap
	for _, raw := range robots.Sitemaps {
		sm, err := warmup.NewSitemap(raw)
		if err != nil || seen[sm.URL] {
			continue
		}
		seen[sm.URL] = true
		sitemaps = append(sitemaps, sm)
	}
	return sitemaps
}

// exists checks if a URL answers HEAD with 200 OK.
func (l *SitemapLocator) exists(ctx context.Context, targetURL string) bool {
	resp, err := l.client.Do(ctx, &warmup.Request{Method: http.MethodHead, URL: targetURL})
	if err != nil {
		return false
	}
	_ = responseBody(resp).Close()
	return resp.StatusCode == http.StatusOK
}
