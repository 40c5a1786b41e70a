package crawl

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/fwojciec/warmup"
	"golang.org/x/sync/errgroup"
)

// Compile-time interface verification.
var (
	_ warmup.ConfigurableCrawler = (*ConcurrentCrawler)(nil)
	_ warmup.LoggingCrawler      = (*ConcurrentCrawler)(nil)
)

// ConcurrentCrawler requests URLs through a bounded sliding window of
// workers. A new request is admitted each time one settles, so at most
// "concurrency" requests are in flight.
//
// Options, logger and progress callback may be changed until the first
// Crawl. The first Crawl builds the client from the client_config option
// and fixes the observer chain; later setter calls return EINVALID.
type ConcurrentCrawler struct {
	mu        sync.Mutex
	sealed    bool
	newClient warmup.ClientFactory
	options   warmup.Options
	logger    *slog.Logger
	logLevel  slog.Level
	progress  warmup.ProgressFunc
	extra     []warmup.Observer

	// Set when sealed.
	settings  *settings
	client    warmup.Client
	limiter   warmup.DomainLimiter
	observers []warmup.Observer
}

// NewConcurrentCrawler returns a crawler building its client with
// newClient. Observers run after the built-in ones, in the given order.
func NewConcurrentCrawler(newClient warmup.ClientFactory, observers ...warmup.Observer) *ConcurrentCrawler {
	return &ConcurrentCrawler{
		newClient: newClient,
		options:   DefaultOptions(),
		extra:     observers,
	}
}

// Options returns a copy of the effective options.
func (c *ConcurrentCrawler) Options() warmup.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return warmup.Options{}.Merge(c.options)
}

// SetOptions merges opts over the defaults. Unrecognized keys are kept
// but ignored. Returns EOPTIONS if a recognized value is invalid.
func (c *ConcurrentCrawler) SetOptions(opts warmup.Options) error {
	merged := DefaultOptions().Merge(opts)
	if _, err := decodeSettings(merged); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return warmup.Errorf(warmup.EINVALID, "crawler options cannot change after crawling started")
	}
	c.options = merged
	return nil
}

// SetLogger makes the crawler log every settled request.
// Successes are logged at Info and failures at Warn.
func (c *ConcurrentCrawler) SetLogger(logger *slog.Logger, level slog.Level) error {
	if logger == nil {
		return warmup.Errorf(warmup.EINVALID, "logger required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return warmup.Errorf(warmup.EINVALID, "crawler logger cannot change after crawling started")
	}
	c.logger = logger
	c.logLevel = level
	return nil
}

func (c *ConcurrentCrawler) setProgress(fn warmup.ProgressFunc) error {
	if fn == nil {
		return warmup.Errorf(warmup.EINVALID, "progress function required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return warmup.Errorf(warmup.EINVALID, "crawler progress cannot change after crawling started")
	}
	c.progress = fn
	return nil
}

// seal builds the client and the observer chain on first use.
func (c *ConcurrentCrawler) seal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return nil
	}
	if c.newClient == nil {
		return warmup.Errorf(warmup.EINVALID, "crawler has no client factory")
	}

	s, err := decodeSettings(c.options)
	if err != nil {
		return err
	}
	client, err := c.newClient(s.clientConfig)
	if err != nil {
		return err
	}

	var observers []warmup.Observer
	if c.logger != nil {
		observers = append(observers, &logObserver{logger: c.logger, min: c.logLevel})
	}
	if c.progress != nil {
		observers = append(observers, &progressObserver{fn: c.progress})
	}
	observers = append(observers, c.extra...)

	c.settings = s
	c.client = client
	c.observers = observers
	if s.requestsPerSecond > 0 {
		c.limiter = NewDomainLimiter(s.requestsPerSecond)
	}
	c.sealed = true
	return nil
}

// Crawl requests every URL and waits until all requests settled.
// Observers are called one settlement at a time, in completion order;
// the returned Result lists URLs in submission order.
//
// Duplicate URLs are requested once, at their first position.
// Crawl must not be called concurrently on the same crawler.
func (c *ConcurrentCrawler) Crawl(ctx context.Context, urls []string) (*warmup.Result, error) {
	if err := c.seal(); err != nil {
		return nil, err
	}
	urls = uniqueURLs(urls)

	col := newCollector(len(urls))
	for _, o := range c.observers {
		if b, ok := o.(batchObserver); ok {
			b.begin(len(urls))
		}
	}

	settled := make(chan settlement, c.settings.concurrency)

	// Failures never cancel the remaining requests, so the group has no
	// shared context.
	var g errgroup.Group
	g.SetLimit(c.settings.concurrency)

	go func() {
		for i, u := range urls {
			g.Go(func() error {
				settled <- c.request(ctx, i, u)
				return nil
			})
		}
		_ = g.Wait()
		close(settled)
	}()

	for s := range settled {
		r := col.settle(s)
		for _, o := range c.observers {
			o.Observe(r)
		}
	}

	return col.result(), nil
}

// uniqueURLs returns urls without repeats, keeping first occurrences in
// order. The input is returned as is when it has no repeats.
func uniqueURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	for i, u := range urls {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			continue
		}
		out := append([]string(nil), urls[:i]...)
		for _, u := range urls[i+1:] {
			if _, ok := seen[u]; !ok {
				seen[u] = struct{}{}
				out = append(out, u)
			}
		}
		return out
	}
	return urls
}

// request sends one request and drains the response body.
func (c *ConcurrentCrawler) request(ctx context.Context, position int, rawURL string) settlement {
	s := settlement{position: position, url: rawURL}
	begin := time.Now()

	if c.limiter != nil {
		if u, err := url.Parse(rawURL); err == nil {
			if err := c.limiter.Wait(ctx, u.Host); err != nil {
				s.err = err
				s.duration = time.Since(begin)
				return s
			}
		}
	}

	resp, err := c.client.Do(ctx, c.settings.request(rawURL))
	if err != nil {
		s.err = err
		s.duration = time.Since(begin)
		return s
	}
	// The response already reached the cache layer; a broken body still
	// counts as a success.
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	s.statusCode = resp.StatusCode
	s.duration = time.Since(begin)
	return s
}
