package mock

import (
	"context"

	"github.com/fwojciec/warmup"
)

var _ warmup.Client = (*Client)(nil)

// Client is a mock implementation of warmup.Client.
type Client struct {
	DoFn func(ctx context.Context, req *warmup.Request) (*warmup.Response, error)
}

func (c *Client) Do(ctx context.Context, req *warmup.Request) (*warmup.Response, error) {
	return c.DoFn(ctx, req)
}

// Factory returns a ClientFactory always returning c.
func (c *Client) Factory() warmup.ClientFactory {
	return func(warmup.Options) (warmup.Client, error) {
		return c, nil
	}
}
