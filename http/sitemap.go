package http

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/warmup"
)

// maxSitemapSize is the uncompressed size limit of the sitemap protocol.
const maxSitemapSize = 50 << 20

// Ensure SitemapResolver implements warmup.SitemapResolver.
var _ warmup.SitemapResolver = (*SitemapResolver)(nil)

// SitemapResolver fetches sitemaps through a warmup.Client and parses them
// with etree.
type SitemapResolver struct {
	client warmup.Client
}

// NewSitemapResolver creates a SitemapResolver using client for all fetches.
func NewSitemapResolver(client warmup.Client) *SitemapResolver {
	return &SitemapResolver{client: client}
}

// Resolve fetches and parses one sitemap. A <urlset> yields its <url><loc>
// entries, a <sitemapindex> yields its <sitemap><loc> entries. Relative
// locations are resolved against the sitemap URL; locations that are not
// valid http(s) URLs are skipped.
func (s *SitemapResolver) Resolve(ctx context.Context, sitemap warmup.Sitemap) (*warmup.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, warmup.WrapError(warmup.ESITEMAP, err, "resolving sitemap %s", sitemap.URL)
	}

	body, err := s.fetch(ctx, sitemap.URL)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, warmup.WrapError(warmup.ESITEMAP, err, "parsing sitemap %s", sitemap.URL)
	}

	root := doc.Root()
	if root == nil {
		return nil, warmup.Errorf(warmup.ESITEMAP, "sitemap %s contains no XML document", sitemap.URL)
	}

	switch root.Tag {
	case "urlset":
		return &warmup.Resolution{URLs: locations(root, "url", sitemap.URL)}, nil
	case "sitemapindex":
		var nested []warmup.Sitemap
		for _, loc := range locations(root, "sitemap", sitemap.URL) {
			nested = append(nested, warmup.Sitemap{URL: loc})
		}
		return &warmup.Resolution{Sitemaps: nested}, nil
	default:
		return nil, warmup.Errorf(warmup.ESITEMAP, "sitemap %s has unsupported root element <%s>", sitemap.URL, root.Tag)
	}
}

// locations extracts the normalized <loc> of every entry element under root.
func locations(root *etree.Element, entry, base string) []string {
	var locs []string
	for _, el := range root.SelectElements(entry) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		raw := strings.TrimSpace(loc.Text())
		if raw == "" {
			continue
		}
		u, err := warmup.ResolveURL(base, raw)
		if err != nil {
			continue
		}
		locs = append(locs, u)
	}
	return locs
}

// responseBody returns the body of resp, or an empty body when the client
// left it nil.
func responseBody(resp *warmup.Response) io.ReadCloser {
	if resp.Body == nil {
		return http.NoBody
	}
	return resp.Body
}

// fetch retrieves the sitemap body, decompressing gzip content.
func (s *SitemapResolver) fetch(ctx context.Context, sitemapURL string) ([]byte, error) {
	resp, err := s.client.Do(ctx, &warmup.Request{
		Method: http.MethodGet,
		URL:    sitemapURL,
		Header: http.Header{"Accept": {"application/xml, text/xml;q=0.9, */*;q=0.8"}},
	})
	if err != nil {
		return nil, warmup.WrapError(warmup.ESITEMAP, err, "fetching sitemap %s", sitemapURL)
	}
	rc := responseBody(resp)
	defer rc.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, warmup.Errorf(warmup.ESITEMAP, "HTTP %d for sitemap %s", resp.StatusCode, sitemapURL)
	}

	r := bufio.NewReader(rc)
	var src io.Reader = r
	if magic, err := r.Peek(2); err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, warmup.WrapError(warmup.ESITEMAP, err, "decompressing sitemap %s", sitemapURL)
		}
		defer gz.Close()
		src = gz
	}

	body, err := io.ReadAll(io.LimitReader(src, maxSitemapSize+1))
	if err != nil {
		return nil, warmup.WrapError(warmup.ESITEMAP, err, "reading sitemap %s", sitemapURL)
	}
	if len(body) > maxSitemapSize {
		return nil, warmup.Errorf(warmup.ESITEMAP, "sitemap %s exceeds %d bytes", sitemapURL, maxSitemapSize)
	}
	return body, nil
}
