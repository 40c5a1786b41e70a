package crawl

import (
	"context"
	"sync"

	"github.com/fwojciec/warmup"
	"golang.org/x/time/rate"
)

var _ warmup.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces requests per host using token buckets, so a warmup
// spanning several hosts runs at full concurrency while each origin sees
// at most rps requests per second.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// per host. Requests to one host are spaced evenly, without bursts.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    1,
	}
}

// Wait blocks until the rate limit allows a request to the host.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	return d.limiter(host).Wait(ctx)
}

func (d *DomainLimiter) limiter(host string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.limiters[host]
	if !ok {
		l = rate.NewLimiter(d.rps, d.burst)
		d.limiters[host] = l
	}
	return l
}
