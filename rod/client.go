// Package rod provides a headless-browser warmup.Client using go-rod.
// Pages are rendered in Chrome, so every asset the page loads is warmed
// along with the document.
package rod

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/warmup"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Client implements warmup.Client at compile time.
var _ warmup.Client = (*Client)(nil)

// DefaultTimeout bounds one page render.
const DefaultTimeout = 60 * time.Second

// ClientConfig configures a browser client.
type ClientConfig struct {
	Timeout            time.Duration
	UserAgent          string
	Proxy              string
	InsecureSkipVerify bool
	MaxPages           int64
}

// ClientConfigFromOptions decodes a client_config mapping.
// Returns EOPTIONS for values of the wrong type.
func ClientConfigFromOptions(opts warmup.Options) (ClientConfig, error) {
	cfg := ClientConfig{Timeout: DefaultTimeout, MaxPages: DefaultMaxPages}
	var err error

	if cfg.Timeout, err = opts.Duration("timeout", DefaultTimeout); err != nil {
		return cfg, err
	}
	if cfg.UserAgent, err = opts.String("user_agent", ""); err != nil {
		return cfg, err
	}
	if cfg.Proxy, err = opts.String("proxy", ""); err != nil {
		return cfg, err
	}
	if cfg.InsecureSkipVerify, err = opts.Bool("insecure_skip_verify", false); err != nil {
		return cfg, err
	}
	maxPages, err := opts.Int("max_pages", DefaultMaxPages)
	if err != nil {
		return cfg, err
	}
	cfg.MaxPages = int64(maxPages)
	return cfg, nil
}

// Client renders each requested URL in a headless browser. The browser is
// launched on the first request and recycled every MaxPages pages.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	config ClientConfig

	mu      sync.Mutex
	manager *BrowserManager
	closed  bool
}

// NewClient creates a Client. No browser is started until the first request.
// Close must be called when the Client is no longer needed.
func NewClient(config ClientConfig) *Client {
	return &Client{config: config}
}

// Do navigates to req.URL and waits until the page loaded.
// Only GET is supported. The response reports the status code and headers
// of the main document; the body is always empty.
func (c *Client) Do(ctx context.Context, req *warmup.Request) (*warmup.Response, error) {
	if req.Method != http.MethodGet {
		return nil, warmup.Errorf(warmup.EINVALID, "browser client only supports GET, got %s", req.Method)
	}
	if err := ctx.Err(); err != nil {
		return nil, warmup.WrapError(warmup.ETRANSPORT, err, "request to %s canceled", req.URL)
	}

	manager, err := c.browserManager()
	if err != nil {
		return nil, warmup.WrapError(warmup.ETRANSPORT, err, "browser unavailable")
	}
	browser, err := manager.Browser()
	if err != nil {
		return nil, warmup.WrapError(warmup.ETRANSPORT, err, "browser unavailable")
	}

	timeout := c.config.Timeout
	if req.Options.Timeout > 0 {
		timeout = req.Options.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, warmup.WrapError(warmup.ETRANSPORT, err, "opening page for %s", req.URL)
	}
	defer page.Close()
	defer manager.IncrementPageCount()

	page = page.Context(ctx)

	if c.config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: c.config.UserAgent}); err != nil {
			return nil, warmup.WrapError(warmup.ETRANSPORT, err, "setting user agent")
		}
	}
	if len(req.Header) > 0 {
		var dict []string
		for k := range req.Header {
			dict = append(dict, k, req.Header.Get(k))
		}
		cleanup, err := page.SetExtraHeaders(dict)
		if err != nil {
			return nil, warmup.WrapError(warmup.ETRANSPORT, err, "setting request headers")
		}
		defer cleanup()
	}

	// Subscribe before navigating so the document response is not missed.
	var document *proto.NetworkResponse
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		document = e.Response
		return true
	})

	if err := page.Navigate(req.URL); err != nil {
		return nil, warmup.WrapError(warmup.ETRANSPORT, err, "navigating to %s", req.URL)
	}
	wait()
	if err := page.WaitLoad(); err != nil {
		return nil, warmup.WrapError(warmup.ETRANSPORT, err, "loading %s", req.URL)
	}
	if document == nil {
		return nil, warmup.WrapError(warmup.ETRANSPORT, ctx.Err(), "no document response from %s", req.URL)
	}

	header := http.Header{}
	for k, v := range document.Headers {
		header.Set(k, v.String())
	}
	return &warmup.Response{StatusCode: document.Status, Header: header, Body: http.NoBody}, nil
}

// browserManager launches the browser on first use.
func (c *Client) browserManager() (*BrowserManager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errManagerClosed
	}
	if c.manager != nil {
		return c.manager, nil
	}

	opts := []ManagerOption{WithMaxPages(c.config.MaxPages), WithInsecureSkipVerify(c.config.InsecureSkipVerify)}
	if c.config.Proxy != "" {
		opts = append(opts, WithProxy(c.config.Proxy))
	}
	manager, err := NewBrowserManager(opts...)
	if err != nil {
		return nil, err
	}
	c.manager = manager
	return manager, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.manager == nil {
		return nil
	}
	return c.manager.Close()
}

// Factory builds browser clients from client_config and closes them all
// together. The zero value is ready to use.
type Factory struct {
	mu      sync.Mutex
	clients []*Client
}

// NewClient implements warmup.ClientFactory.
func (f *Factory) NewClient(config warmup.Options) (warmup.Client, error) {
	cfg, err := ClientConfigFromOptions(config)
	if err != nil {
		return nil, err
	}
	client := NewClient(cfg)

	f.mu.Lock()
	f.clients = append(f.clients, client)
	f.mu.Unlock()
	return client, nil
}

// Close closes every client built by the factory.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, c := range f.clients {
		errs = append(errs, c.Close())
	}
	f.clients = nil
	return errors.Join(errs...)
}
