package crawl

import (
	"context"
	"sync"

	"github.com/fwojciec/warmup"
)

// MaxSitemapDepth bounds sitemap index nesting. Sitemaps nested deeper are
// recorded as failed instead of being fetched.
const MaxSitemapDepth = 10

// Warmer collects URLs from sitemaps and direct input into a bounded
// frontier, then hands them to a crawler.
type Warmer struct {
	resolver    warmup.SitemapResolver
	crawler     warmup.Crawler
	failOnError bool

	frontier *Frontier
	visited  *Frontier

	mu       sync.Mutex
	sitemaps []warmup.Sitemap
	failed   []warmup.FailedSitemap
}

// NewWarmer returns a Warmer keeping at most limit URLs, 0 meaning
// unlimited. With failOnError, AddSitemaps stops at the first sitemap that
// cannot be resolved and returns its error.
func NewWarmer(limit int, resolver warmup.SitemapResolver, crawler warmup.Crawler, failOnError bool) *Warmer {
	return &Warmer{
		resolver:    resolver,
		crawler:     crawler,
		failOnError: failOnError,
		frontier:    NewFrontier(limit),
		visited:     NewFrontier(0),
	}
}

type queuedSitemap struct {
	sitemap warmup.Sitemap
	depth   int
}

// AddSitemaps resolves the given sitemaps breadth-first, expanding sitemap
// indexes and adding every discovered URL to the frontier. Arguments may be
// of any type accepted by warmup.ToSitemaps; an argument of another type
// returns EINVALID before anything is fetched.
//
// Sitemaps that cannot be resolved are recorded in FailedSitemaps and the
// traversal continues, unless the Warmer was built with failOnError.
// Once the frontier is full the remaining queued sitemaps are not fetched.
func (w *Warmer) AddSitemaps(ctx context.Context, sitemaps ...any) error {
	var seeds []warmup.Sitemap
	for _, v := range sitemaps {
		s, err := warmup.ToSitemaps(v)
		if err != nil {
			return err
		}
		seeds = append(seeds, s...)
	}

	var queue []queuedSitemap
	for _, s := range seeds {
		if w.accept(s) {
			queue = append(queue, queuedSitemap{sitemap: s})
		}
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.frontier.Full() {
			return nil
		}

		item := queue[0]
		queue = queue[1:]

		if item.depth > MaxSitemapDepth {
			err := warmup.Errorf(warmup.ESITEMAP, "sitemap %s is nested deeper than %d levels", item.sitemap.URL, MaxSitemapDepth)
			if failed := w.fail(item.sitemap, err); failed != nil {
				return failed
			}
			continue
		}

		res, err := w.resolver.Resolve(ctx, item.sitemap)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if failed := w.fail(item.sitemap, err); failed != nil {
				return failed
			}
			continue
		}

		// Resolvers are not trusted to normalize. Entries that cannot be
		// normalized are dropped.
		for _, raw := range res.Sitemaps {
			nested, err := warmup.NewSitemap(raw.URL)
			if err != nil {
				continue
			}
			if w.accept(nested) {
				queue = append(queue, queuedSitemap{sitemap: nested, depth: item.depth + 1})
			}
		}
		for _, raw := range res.URLs {
			u, err := warmup.NormalizeURL(raw)
			if err != nil {
				continue
			}
			w.frontier.Push(u)
		}
	}
	return nil
}

// accept records s as part of the sitemap tree.
// Returns false if s was already accepted.
func (w *Warmer) accept(s warmup.Sitemap) bool {
	if !w.visited.Push(s.URL) {
		return false
	}
	w.mu.Lock()
	w.sitemaps = append(w.sitemaps, s)
	w.mu.Unlock()
	return true
}

// fail records a failed sitemap. It returns the error to abort with when
// the Warmer fails on errors, nil otherwise.
func (w *Warmer) fail(s warmup.Sitemap, err error) error {
	if warmup.ErrorCode(err) != warmup.ESITEMAP {
		err = warmup.WrapError(warmup.ESITEMAP, err, "sitemap %s could not be resolved", s.URL)
	}

	w.mu.Lock()
	w.failed = append(w.failed, warmup.FailedSitemap{Sitemap: s, Err: err})
	w.mu.Unlock()

	if w.failOnError {
		return err
	}
	return nil
}

// AddURL adds a URL to the frontier, bypassing sitemap resolution.
// Duplicates and URLs beyond the limit are ignored.
// Returns EINVALID if the URL cannot be normalized.
func (w *Warmer) AddURL(rawURL string) error {
	u, err := warmup.NormalizeURL(rawURL)
	if err != nil {
		return err
	}
	w.frontier.Push(u)
	return nil
}

// Sitemaps returns every sitemap accepted into the traversal in discovery
// order, including ones that later failed.
func (w *Warmer) Sitemaps() []warmup.Sitemap {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]warmup.Sitemap(nil), w.sitemaps...)
}

// FailedSitemaps returns the sitemaps that could not be resolved.
func (w *Warmer) FailedSitemaps() []warmup.FailedSitemap {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]warmup.FailedSitemap(nil), w.failed...)
}

// URLs returns the frontier in insertion order.
func (w *Warmer) URLs() []string {
	return w.frontier.URLs()
}

// Limit returns the URL limit, 0 meaning unlimited.
func (w *Warmer) Limit() int {
	return w.frontier.Limit()
}

// Run crawls the frontier. The error is non-nil only if the crawler could
// not start; per-URL failures are reported in the Result.
func (w *Warmer) Run(ctx context.Context) (*warmup.Result, error) {
	urls := w.URLs()
	if len(urls) == 0 {
		return warmup.NewResult(), nil
	}
	return w.crawler.Crawl(ctx, urls)
}
