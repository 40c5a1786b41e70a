// Package http provides net/http based implementations of warmup.Client,
// warmup.SitemapResolver and warmup.SitemapLocator.
package http

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/fwojciec/warmup"
	"golang.org/x/net/publicsuffix"
)

// Client defaults.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
	DefaultUserAgent    = "cache-warmup"
)

// Ensure Client implements warmup.Client at compile time.
var _ warmup.Client = (*Client)(nil)

// ClientConfig configures a Client. It is applied once, when the client is built.
type ClientConfig struct {
	Timeout            time.Duration
	MaxRedirects       int
	UserAgent          string
	Cookies            bool
	InsecureSkipVerify bool
	Proxy              string
}

// ClientConfigFromOptions decodes a client_config mapping.
// Returns EOPTIONS for values of the wrong type.
func ClientConfigFromOptions(opts warmup.Options) (ClientConfig, error) {
	var cfg ClientConfig
	var err error
	if cfg.Timeout, err = opts.Duration("timeout", DefaultTimeout); err != nil {
		return cfg, err
	}
	if cfg.MaxRedirects, err = opts.Int("max_redirects", DefaultMaxRedirects); err != nil {
		return cfg, err
	}
	if cfg.UserAgent, err = opts.String("user_agent", DefaultUserAgent); err != nil {
		return cfg, err
	}
	if cfg.Cookies, err = opts.Bool("cookies", false); err != nil {
		return cfg, err
	}
	if cfg.InsecureSkipVerify, err = opts.Bool("insecure_skip_verify", false); err != nil {
		return cfg, err
	}
	if cfg.Proxy, err = opts.String("proxy", ""); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Client sends warmup requests over net/http.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	client       *http.Client
	userAgent    string
	maxRedirects int
}

// NewClient builds a Client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for staging hosts
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, warmup.WrapError(warmup.EOPTIONS, err, "invalid proxy URL %q", cfg.Proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	c := &Client{
		userAgent:    cfg.UserAgent,
		maxRedirects: cfg.MaxRedirects,
	}
	c.client = &http.Client{
		Transport:     transport,
		Timeout:       cfg.Timeout,
		CheckRedirect: c.checkRedirect,
	}

	if cfg.Cookies {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		c.client.Jar = jar
	}

	return c, nil
}

// NewClientFromOptions builds a Client from a client_config mapping.
// It satisfies warmup.ClientFactory.
func NewClientFromOptions(opts warmup.Options) (warmup.Client, error) {
	cfg, err := ClientConfigFromOptions(opts)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg)
}

type followRedirectsKey struct{}

// Do sends req. Any response is returned as is, whatever its status code.
// Transport failures are returned as ETRANSPORT errors.
func (c *Client) Do(ctx context.Context, req *warmup.Request) (*warmup.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	cancel := context.CancelFunc(func() {})
	if req.Options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Options.Timeout)
	}
	if req.Options.FollowRedirects != nil {
		ctx = context.WithValue(ctx, followRedirectsKey{}, *req.Options.FollowRedirects)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		cancel()
		return nil, warmup.WrapError(warmup.EINVALID, err, "creating request for %s", req.URL)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, warmup.WrapError(warmup.ETRANSPORT, err, "%s %s", method, req.URL)
	}

	return &warmup.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       &cancelBody{ReadCloser: resp.Body, cancel: cancel},
	}, nil
}

// checkRedirect stops following redirects when the request disabled them
// or the redirect limit is reached. In both cases the last response is
// returned instead of an error since it already reached the origin.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if follow, ok := req.Context().Value(followRedirectsKey{}).(bool); ok && !follow {
		return http.ErrUseLastResponse
	}
	if len(via) >= c.maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

// cancelBody releases the per-request timeout when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
