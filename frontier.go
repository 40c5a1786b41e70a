package warmup

import "context"

// URLFrontier holds the deduplicated, limit-bounded set of target URLs of
// a warmup run in insertion order.
type URLFrontier interface {
	// Push adds a normalized URL.
	// Returns false if the URL was already added or the limit is reached.
	Push(url string) bool

	// URLs returns the URLs in insertion order.
	URLs() []string

	// Len returns the number of URLs.
	Len() int

	// Seen returns true if the URL has been added.
	Seen(url string) bool

	// Full returns true once the limit is reached. Never true when unlimited.
	Full() bool
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
