package crawl_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/fwojciec/warmup"
	"github.com/fwojciec/warmup/crawl"
	"github.com/fwojciec/warmup/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sitemapTree resolves sitemaps from a fixed table. Missing entries fail.
func sitemapTree(tree map[string]*warmup.Resolution) *mock.SitemapResolver {
	return &mock.SitemapResolver{
		ResolveFn: func(_ context.Context, s warmup.Sitemap) (*warmup.Resolution, error) {
			res, ok := tree[s.URL]
			if !ok {
				return nil, warmup.Errorf(warmup.ESITEMAP, "malformed sitemap %s", s.URL)
			}
			return res, nil
		},
	}
}

func sitemaps(urls ...string) []warmup.Sitemap {
	out := make([]warmup.Sitemap, 0, len(urls))
	for _, u := range urls {
		out = append(out, warmup.Sitemap{URL: u})
	}
	return out
}

func alwaysSucceeds() *mock.Crawler {
	return &mock.Crawler{
		CrawlFn: func(_ context.Context, urls []string) (*warmup.Result, error) {
			res := warmup.NewResult()
			for _, u := range urls {
				res.Add(warmup.CrawlingResult{URL: u, Outcome: warmup.OutcomeSuccessful, StatusCode: 200})
			}
			return res, nil
		},
	}
}

func TestWarmer_AddSitemaps(t *testing.T) {
	t.Parallel()

	t.Run("expands a sitemap index breadth-first", func(t *testing.T) {
		t.Parallel()

		resolver := sitemapTree(map[string]*warmup.Resolution{
			"https://example.org/sitemap.xml": {
				Sitemaps: sitemaps("https://example.org/sitemap_en.xml", "https://example.org/sitemap_de.xml"),
			},
			"https://example.org/sitemap_en.xml": {
				URLs: []string{"https://example.org/", "https://example.org/foo"},
			},
			"https://example.org/sitemap_de.xml": {
				URLs: []string{"https://example.org/de"},
			},
		})
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "https://example.org/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, sitemaps(
			"https://example.org/sitemap.xml",
			"https://example.org/sitemap_en.xml",
			"https://example.org/sitemap_de.xml",
		), w.Sitemaps())
		assert.Equal(t, []string{
			"https://example.org/",
			"https://example.org/foo",
			"https://example.org/de",
		}, w.URLs())
		assert.Empty(t, w.FailedSitemaps())

		res, err := w.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, res.Successful(), 3)
		assert.Empty(t, res.Failed())
	})

	t.Run("accepts every supported argument type", func(t *testing.T) {
		t.Parallel()

		var resolved []string
		resolver := &mock.SitemapResolver{
			ResolveFn: func(_ context.Context, s warmup.Sitemap) (*warmup.Resolution, error) {
				resolved = append(resolved, s.URL)
				return &warmup.Resolution{}, nil
			},
		}
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)
		u, err := url.Parse("https://example.org/d.xml")
		require.NoError(t, err)

		err = w.AddSitemaps(context.Background(),
			"https://example.org/a.xml",
			warmup.Sitemap{URL: "https://example.org/b.xml"},
			&warmup.Sitemap{URL: "https://example.org/c.xml"},
			u,
			[]string{"https://example.org/e.xml"},
			sitemaps("https://example.org/f.xml"),
		)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.org/a.xml",
			"https://example.org/b.xml",
			"https://example.org/c.xml",
			"https://example.org/d.xml",
			"https://example.org/e.xml",
			"https://example.org/f.xml",
		}, resolved)
	})

	t.Run("rejects unsupported types before resolving anything", func(t *testing.T) {
		t.Parallel()

		resolver := &mock.SitemapResolver{
			ResolveFn: func(context.Context, warmup.Sitemap) (*warmup.Resolution, error) {
				t.Fatal("resolver must not be called")
				return nil, nil
			},
		}
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "https://example.org/sitemap.xml", 42)

		assert.Equal(t, warmup.EINVALID, warmup.ErrorCode(err))
		assert.Contains(t, warmup.ErrorMessage(err), "int given")
		assert.Empty(t, w.Sitemaps())
	})

	t.Run("rejects unparsable sitemap URLs", func(t *testing.T) {
		t.Parallel()

		w := crawl.NewWarmer(0, sitemapTree(nil), alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "ftp://example.org/sitemap.xml")

		assert.Equal(t, warmup.EINVALID, warmup.ErrorCode(err))
	})

	t.Run("records malformed sitemaps and continues with siblings", func(t *testing.T) {
		t.Parallel()

		resolver := sitemapTree(map[string]*warmup.Resolution{
			"https://example.org/sitemap.xml": {
				Sitemaps: sitemaps("https://example.org/broken.xml", "https://example.org/ok.xml"),
			},
			"https://example.org/ok.xml": {
				URLs: []string{"https://example.org/ok"},
			},
		})
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "https://example.org/sitemap.xml")

		require.NoError(t, err)
		failed := w.FailedSitemaps()
		require.Len(t, failed, 1)
		assert.Equal(t, "https://example.org/broken.xml", failed[0].Sitemap.URL)
		assert.Equal(t, warmup.ESITEMAP, warmup.ErrorCode(failed[0].Err))
		assert.Contains(t, failed[0].Reason(), "malformed")
		assert.Equal(t, []string{"https://example.org/ok"}, w.URLs())
	})

	t.Run("wraps resolver errors as ESITEMAP", func(t *testing.T) {
		t.Parallel()

		resolver := &mock.SitemapResolver{
			ResolveFn: func(context.Context, warmup.Sitemap) (*warmup.Resolution, error) {
				return nil, fmt.Errorf("boom")
			},
		}
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)

		require.NoError(t, w.AddSitemaps(context.Background(), "https://example.org/sitemap.xml"))

		failed := w.FailedSitemaps()
		require.Len(t, failed, 1)
		assert.Equal(t, warmup.ESITEMAP, warmup.ErrorCode(failed[0].Err))
	})

	t.Run("stops at the first failure when failing on errors", func(t *testing.T) {
		t.Parallel()

		resolver := sitemapTree(map[string]*warmup.Resolution{
			"https://example.org/sitemap.xml": {
				Sitemaps: sitemaps("https://example.org/broken.xml", "https://example.org/ok.xml"),
			},
			"https://example.org/ok.xml": {
				URLs: []string{"https://example.org/ok"},
			},
		})
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), true)

		err := w.AddSitemaps(context.Background(), "https://example.org/sitemap.xml")

		assert.Equal(t, warmup.ESITEMAP, warmup.ErrorCode(err))
		assert.Len(t, w.FailedSitemaps(), 1)
		assert.Empty(t, w.URLs())
	})

	t.Run("visits each sitemap once in a cycle", func(t *testing.T) {
		t.Parallel()

		var calls int
		resolver := &mock.SitemapResolver{
			ResolveFn: func(_ context.Context, s warmup.Sitemap) (*warmup.Resolution, error) {
				calls++
				return &warmup.Resolution{
					Sitemaps: sitemaps("https://example.org/a.xml", "https://example.org/b.xml"),
					URLs:     []string{"https://example.org/from-" + s.URL[len("https://example.org/"):]},
				}, nil
			},
		}
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "https://example.org/a.xml")

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, sitemaps("https://example.org/a.xml", "https://example.org/b.xml"), w.Sitemaps())
	})

	t.Run("fails sitemaps nested too deep", func(t *testing.T) {
		t.Parallel()

		resolver := &mock.SitemapResolver{
			ResolveFn: func(_ context.Context, s warmup.Sitemap) (*warmup.Resolution, error) {
				return &warmup.Resolution{Sitemaps: sitemaps(s.URL + "x")}, nil
			},
		}
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "https://example.org/s")

		require.NoError(t, err)
		failed := w.FailedSitemaps()
		require.Len(t, failed, 1)
		assert.Contains(t, failed[0].Reason(), "nested deeper")
		assert.Len(t, w.Sitemaps(), crawl.MaxSitemapDepth+2)
	})

	t.Run("honors the limit across sitemaps", func(t *testing.T) {
		t.Parallel()

		var resolved []string
		resolver := &mock.SitemapResolver{
			ResolveFn: func(_ context.Context, s warmup.Sitemap) (*warmup.Resolution, error) {
				resolved = append(resolved, s.URL)
				switch s.URL {
				case "https://example.org/index.xml":
					return &warmup.Resolution{
						Sitemaps: sitemaps("https://example.org/1.xml", "https://example.org/2.xml"),
					}, nil
				case "https://example.org/1.xml":
					return &warmup.Resolution{URLs: []string{
						"https://example.org/a",
						"https://example.org/b",
						"https://example.org/c",
					}}, nil
				}
				return &warmup.Resolution{URLs: []string{"https://example.org/d"}}, nil
			},
		}
		w := crawl.NewWarmer(2, resolver, alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "https://example.org/index.xml")

		require.NoError(t, err)
		assert.Equal(t, 2, w.Limit())
		assert.Equal(t, []string{"https://example.org/a", "https://example.org/b"}, w.URLs())
		assert.NotContains(t, resolved, "https://example.org/2.xml", "full frontier stops the traversal")
	})

	t.Run("deduplicates URLs across sitemaps", func(t *testing.T) {
		t.Parallel()

		resolver := sitemapTree(map[string]*warmup.Resolution{
			"https://example.org/1.xml": {URLs: []string{"https://example.org/a", "https://example.org/b"}},
			"https://example.org/2.xml": {URLs: []string{"https://example.org/b", "https://example.org/c"}},
		})
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)

		err := w.AddSitemaps(context.Background(), "https://example.org/1.xml", "https://example.org/2.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.org/a",
			"https://example.org/b",
			"https://example.org/c",
		}, w.URLs())
	})

	t.Run("normalizes resolver output before deduplicating", func(t *testing.T) {
		t.Parallel()

		var resolved []string
		resolver := &mock.SitemapResolver{
			ResolveFn: func(_ context.Context, s warmup.Sitemap) (*warmup.Resolution, error) {
				resolved = append(resolved, s.URL)
				if s.URL != "https://example.org/index.xml" {
					return &warmup.Resolution{}, nil
				}
				return &warmup.Resolution{
					Sitemaps: sitemaps("HTTPS://example.org/sitemap.xml", "https://example.org/sitemap.xml#top"),
					URLs: []string{
						"https://EXAMPLE.org",
						"https://example.org:443/#x",
						"ftp://example.org/file",
						"https://example.org/about",
					},
				}, nil
			},
		}
		w := crawl.NewWarmer(0, resolver, alwaysSucceeds(), false)
		require.NoError(t, w.AddURL("https://example.org/"))

		err := w.AddSitemaps(context.Background(), "https://example.org/index.xml", "https://example.org/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.org/", "https://example.org/about"}, w.URLs())
		assert.Equal(t, sitemaps("https://example.org/index.xml", "https://example.org/sitemap.xml"), w.Sitemaps())
		assert.Equal(t, []string{"https://example.org/index.xml", "https://example.org/sitemap.xml"}, resolved)
	})

	t.Run("returns the context error when canceled", func(t *testing.T) {
		t.Parallel()

		w := crawl.NewWarmer(0, sitemapTree(nil), alwaysSucceeds(), false)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := w.AddSitemaps(ctx, "https://example.org/sitemap.xml")

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, w.FailedSitemaps())
	})
}

func TestWarmer_AddURL(t *testing.T) {
	t.Parallel()

	t.Run("normalizes and deduplicates", func(t *testing.T) {
		t.Parallel()

		w := crawl.NewWarmer(0, sitemapTree(nil), alwaysSucceeds(), false)

		require.NoError(t, w.AddURL("HTTPS://Example.org:443/foo#top"))
		require.NoError(t, w.AddURL("https://example.org/foo"))

		assert.Equal(t, []string{"https://example.org/foo"}, w.URLs())
	})

	t.Run("ignores URLs beyond the limit", func(t *testing.T) {
		t.Parallel()

		w := crawl.NewWarmer(1, sitemapTree(nil), alwaysSucceeds(), false)

		require.NoError(t, w.AddURL("https://example.org/a"))
		require.NoError(t, w.AddURL("https://example.org/b"))

		assert.Equal(t, []string{"https://example.org/a"}, w.URLs())
	})

	t.Run("rejects invalid URLs", func(t *testing.T) {
		t.Parallel()

		w := crawl.NewWarmer(0, sitemapTree(nil), alwaysSucceeds(), false)

		err := w.AddURL("not a url")

		assert.Equal(t, warmup.EINVALID, warmup.ErrorCode(err))
	})
}

func TestWarmer_Run(t *testing.T) {
	t.Parallel()

	t.Run("returns an empty result for an empty frontier", func(t *testing.T) {
		t.Parallel()

		crawler := &mock.Crawler{
			CrawlFn: func(context.Context, []string) (*warmup.Result, error) {
				t.Fatal("crawler must not be called")
				return nil, nil
			},
		}
		w := crawl.NewWarmer(0, sitemapTree(nil), crawler, false)

		res, err := w.Run(context.Background())

		require.NoError(t, err)
		assert.Empty(t, res.Successful())
		assert.Empty(t, res.Failed())
	})

	t.Run("hands the frontier to the crawler", func(t *testing.T) {
		t.Parallel()

		var got []string
		crawler := &mock.Crawler{
			CrawlFn: func(_ context.Context, urls []string) (*warmup.Result, error) {
				got = urls
				return warmup.NewResult(), nil
			},
		}
		w := crawl.NewWarmer(0, sitemapTree(nil), crawler, false)
		require.NoError(t, w.AddURL("https://example.org/a"))
		require.NoError(t, w.AddURL("https://example.org/b"))

		_, err := w.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.org/a", "https://example.org/b"}, got)
	})

	t.Run("drives a real crawler end to end", func(t *testing.T) {
		t.Parallel()

		resolver := sitemapTree(map[string]*warmup.Resolution{
			"https://example.org/sitemap.xml": {
				URLs: []string{"https://example.org/", "https://example.org/foo", "https://example.org/bar"},
			},
		})
		c := crawl.NewConcurrentCrawler(okClient().Factory())
		require.NoError(t, c.SetOptions(warmup.Options{"concurrency": 1}))
		w := crawl.NewWarmer(0, resolver, c, false)
		require.NoError(t, w.AddSitemaps(context.Background(), "https://example.org/sitemap.xml"))

		res, err := w.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, len(w.URLs()), len(res.Successful())+len(res.Failed()))
		assert.Equal(t, w.URLs(), resultURLs(res.Successful()))
	})
}
