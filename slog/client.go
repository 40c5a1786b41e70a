package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/warmup"
)

var _ warmup.Client = (*LoggingClient)(nil)

// LoggingClient wraps a Client with debug logging of every round trip.
type LoggingClient struct {
	next   warmup.Client
	logger *slog.Logger
}

// NewLoggingClient creates a new LoggingClient.
func NewLoggingClient(next warmup.Client, logger *slog.Logger) *LoggingClient {
	return &LoggingClient{next: next, logger: logger}
}

// Do delegates to the wrapped client and logs the request.
func (c *LoggingClient) Do(ctx context.Context, req *warmup.Request) (resp *warmup.Response, err error) {
	defer func(begin time.Time) {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.logger.Debug("request",
			"method", req.Method,
			"url", req.URL,
			"status", status,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Do(ctx, req)
}

// WrapClientFactory returns a factory whose clients log through logger.
func WrapClientFactory(next warmup.ClientFactory, logger *slog.Logger) warmup.ClientFactory {
	return func(config warmup.Options) (warmup.Client, error) {
		client, err := next(config)
		if err != nil {
			return nil, err
		}
		return NewLoggingClient(client, logger), nil
	}
}
