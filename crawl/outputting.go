package crawl

import "github.com/fwojciec/warmup"

var _ warmup.VerboseCrawler = (*OutputtingCrawler)(nil)

// OutputtingCrawler is a ConcurrentCrawler that also reports progress
// once per settled request.
type OutputtingCrawler struct {
	*ConcurrentCrawler
}

// NewOutputtingCrawler returns an OutputtingCrawler. See NewConcurrentCrawler.
func NewOutputtingCrawler(newClient warmup.ClientFactory, observers ...warmup.Observer) *OutputtingCrawler {
	return &OutputtingCrawler{ConcurrentCrawler: NewConcurrentCrawler(newClient, observers...)}
}

// SetProgress sets the function receiving progress events. Events are
// delivered from a single goroutine, after the logger has seen the
// settlement.
func (c *OutputtingCrawler) SetProgress(fn warmup.ProgressFunc) error {
	return c.setProgress(fn)
}
