package rod

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

var errManagerClosed = errors.New("browser manager closed")

// chromeFlags keep background tabs from being throttled while pages of a
// warmup render in parallel.
var chromeFlags = []flags.Flag{
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-renderer-backgrounding",
	"disable-dev-shm-usage",
	"disable-hang-monitor",
}

// instance is one running Chrome process.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (i *instance) close() error {
	err := i.browser.Close()
	i.launcher.Kill()
	return err
}

// BrowserManager owns one headless Chrome process and replaces it after
// maxPages rendered pages. A long warmup renders thousands of pages and
// Chrome's memory baseline keeps growing even when every page is closed.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	maxPages int64
	proxy    string
	insecure bool

	mu      sync.Mutex
	current *instance
	pages   int64
	closed  bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of pages after which the browser is
// replaced. Zero or less disables recycling.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithProxy routes all browser traffic through the proxy server.
func WithProxy(proxy string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.proxy = proxy
	}
}

// WithInsecureSkipVerify makes the browser accept invalid TLS certificates.
func WithInsecureSkipVerify(insecure bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.insecure = insecure
	}
}

// NewBrowserManager launches headless Chrome.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(bm)
	}

	inst, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = inst
	return bm, nil
}

// Browser returns the running browser, replacing it first if it rendered
// maxPages pages. If a replacement cannot be launched the old browser keeps
// serving. Returns an error once the manager is closed.
func (bm *BrowserManager) Browser() (*rod.Browser, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed || bm.current == nil {
		return nil, errManagerClosed
	}
	if bm.maxPages > 0 && bm.pages >= bm.maxPages {
		if next, err := bm.launch(); err == nil {
			_ = bm.current.close()
			bm.current = next
			bm.pages = 0
		}
	}
	return bm.current.browser, nil
}

// IncrementPageCount records one rendered page.
func (bm *BrowserManager) IncrementPageCount() {
	bm.mu.Lock()
	bm.pages++
	bm.mu.Unlock()
}

// Close stops the browser. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	if bm.current == nil {
		return nil
	}
	err := bm.current.close()
	bm.current = nil
	return err
}

// LauncherPID returns the process ID of the browser launcher, 0 once closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return 0
	}
	return bm.current.launcher.PID()
}

func (bm *BrowserManager) launch() (*instance, error) {
	l := launcher.New().Leakless(true).Headless(true)
	for _, flag := range chromeFlags {
		l = l.Set(flag)
	}
	if bm.proxy != "" {
		l = l.Proxy(bm.proxy)
	}
	if bm.insecure {
		l = l.Set("ignore-certificate-errors")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &instance{browser: browser, launcher: l}, nil
}
