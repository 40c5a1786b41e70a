package warmup

import (
	"context"
	"net/url"
)

// Sitemap references an XML sitemap by its normalized URL.
type Sitemap struct {
	URL string `json:"url"`
}

// NewSitemap builds a Sitemap from a raw URL.
// Returns EINVALID if the URL cannot be normalized.
func NewSitemap(rawURL string) (Sitemap, error) {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return Sitemap{}, err
	}
	return Sitemap{URL: u}, nil
}

// String returns the sitemap URL.
func (s Sitemap) String() string {
	return s.URL
}

// FailedSitemap is a sitemap that could not be resolved, together with the
// reason. Failures are recorded instead of aborting the run.
type FailedSitemap struct {
	Sitemap Sitemap `json:"sitemap"`
	Err     error   `json:"-"`
}

// Reason returns a human-readable failure reason.
func (f FailedSitemap) Reason() string {
	return ErrorMessage(f.Err)
}

// Resolution is the outcome of resolving one sitemap. A URL set yields URLs;
// a sitemap index yields nested Sitemaps.
type Resolution struct {
	URLs     []string
	Sitemaps []Sitemap
}

// SitemapResolver fetches and parses a single sitemap.
type SitemapResolver interface {
	// Resolve fetches the sitemap and classifies it as a URL set or an index.
	// Transport failures, non-2xx responses, malformed XML and unknown root
	// elements are returned as ESITEMAP errors.
	Resolve(ctx context.Context, sitemap Sitemap) (*Resolution, error)
}

// SitemapLocator discovers the sitemaps a site advertises.
type SitemapLocator interface {
	// Locate returns the sitemaps declared in the site's robots.txt,
	// falling back to /sitemap.xml when none are declared.
	Locate(ctx context.Context, siteURL string) ([]Sitemap, error)
}

// ToSitemaps converts a loosely typed sitemap argument into sitemaps.
// Accepted types are Sitemap, *Sitemap, string, *url.URL, []string and
// []Sitemap. Any other type returns EINVALID naming the type.
func ToSitemaps(v any) ([]Sitemap, error) {
	switch s := v.(type) {
	case Sitemap:
		sm, err := NewSitemap(s.URL)
		if err != nil {
			return nil, err
		}
		return []Sitemap{sm}, nil
	case *Sitemap:
		if s == nil {
			return nil, Errorf(EINVALID, "nil sitemap")
		}
		return ToSitemaps(*s)
	case string:
		sm, err := NewSitemap(s)
		if err != nil {
			return nil, err
		}
		return []Sitemap{sm}, nil
	case *url.URL:
		if s == nil {
			return nil, Errorf(EINVALID, "nil sitemap URL")
		}
		return ToSitemaps(s.String())
	case []string:
		var out []Sitemap
		for _, raw := range s {
			sm, err := NewSitemap(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, sm)
		}
		return out, nil
	case []Sitemap:
		var out []Sitemap
		for _, sm := range s {
			converted, err := ToSitemaps(sm)
			if err != nil {
				return nil, err
			}
			out = append(out, converted...)
		}
		return out, nil
	default:
		return nil, Errorf(EINVALID, "sitemaps must be of type string, *url.URL or warmup.Sitemap, %T given", v)
	}
}
