package warmup

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Request describes one outgoing request.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Options RequestOptions
}

// RequestOptions are per-request transport options.
type RequestOptions struct {
	// Timeout bounds the whole request including reading the body.
	// Zero means no per-request timeout.
	Timeout time.Duration

	// FollowRedirects controls whether redirects are followed.
	// Nil means the client default.
	FollowRedirects *bool
}

// Response is the part of an HTTP response the warmer cares about.
// Body may be nil when there is nothing to read; otherwise callers must
// close it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Client sends requests. Any round trip that reaches the origin returns a
// Response regardless of status code; connection, DNS, TLS and timeout
// failures are returned as errors.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ClientFactory builds a Client from a client configuration mapping.
// It is called once per crawler.
type ClientFactory func(config Options) (Client, error)
