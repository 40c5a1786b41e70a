package crawl

import (
	"slices"
	"strings"

	"github.com/fwojciec/warmup"
)

// Built-in crawler names.
const (
	CrawlerConcurrent = "concurrent"
	CrawlerOutputting = "outputting"
)

// CrawlerFactory constructs a crawler. Observers are appended to the
// crawler's chain.
type CrawlerFactory func(observers ...warmup.Observer) warmup.Crawler

// Registry maps crawler names to factories.
type Registry struct {
	factories map[string]CrawlerFactory
}

// NewRegistry returns a registry holding the built-in crawlers, each
// building its client with newClient.
func NewRegistry(newClient warmup.ClientFactory) *Registry {
	r := &Registry{factories: make(map[string]CrawlerFactory)}
	r.factories[CrawlerConcurrent] = func(observers ...warmup.Observer) warmup.Crawler {
		return NewConcurrentCrawler(newClient, observers...)
	}
	r.factories[CrawlerOutputting] = func(observers ...warmup.Observer) warmup.Crawler {
		return NewOutputtingCrawler(newClient, observers...)
	}
	return r
}

// Register adds a factory under name.
// Returns EINVALID if the name is empty or already taken.
func (r *Registry) Register(name string, f CrawlerFactory) error {
	if name == "" {
		return warmup.Errorf(warmup.EINVALID, "crawler name required")
	}
	if f == nil {
		return warmup.Errorf(warmup.EINVALID, "crawler %q needs a factory", name)
	}
	if _, ok := r.factories[name]; ok {
		return warmup.Errorf(warmup.EINVALID, "crawler %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// New constructs the crawler registered under name.
// Returns ENOTFOUND for unknown names.
func (r *Registry) New(name string, observers ...warmup.Observer) (warmup.Crawler, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, warmup.Errorf(warmup.ENOTFOUND, "unknown crawler %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f(observers...), nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
