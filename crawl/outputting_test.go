package crawl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/warmup"
	"github.com/fwojciec/warmup/crawl"
	"github.com/fwojciec/warmup/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputtingCrawler_SetProgress(t *testing.T) {
	t.Parallel()

	t.Run("reports one event per settled request", func(t *testing.T) {
		t.Parallel()

		client := &mock.Client{
			DoFn: func(_ context.Context, req *warmup.Request) (*warmup.Response, error) {
				if req.URL == "https://example.org/b" {
					return nil, errors.New("connection reset")
				}
				return okResponse(), nil
			},
		}
		c := crawl.NewOutputtingCrawler(client.Factory())
		var events []warmup.ProgressEvent
		require.NoError(t, c.SetProgress(func(e warmup.ProgressEvent) {
			events = append(events, e)
		}))

		res, err := c.Crawl(context.Background(), []string{
			"https://example.org/a",
			"https://example.org/b",
			"https://example.org/c",
		})

		require.NoError(t, err)
		assert.Equal(t, 3, res.Len())
		require.Len(t, events, 3)
		for i, e := range events {
			assert.Equal(t, i+1, e.Completed)
			assert.Equal(t, 3, e.Total)
		}

		var failed int
		for _, e := range events {
			if e.Error != nil {
				failed++
				assert.Equal(t, "https://example.org/b", e.URL)
			}
		}
		assert.Equal(t, 1, failed)
	})

	t.Run("restarts the count for every crawl", func(t *testing.T) {
		t.Parallel()

		c := crawl.NewOutputtingCrawler(okClient().Factory())
		var last warmup.ProgressEvent
		require.NoError(t, c.SetProgress(func(e warmup.ProgressEvent) { last = e }))

		_, err := c.Crawl(context.Background(), []string{"https://example.org/a", "https://example.org/b"})
		require.NoError(t, err)
		_, err = c.Crawl(context.Background(), []string{"https://example.org/c"})
		require.NoError(t, err)

		assert.Equal(t, 1, last.Completed)
		assert.Equal(t, 1, last.Total)
	})

	t.Run("cannot change after crawling started", func(t *testing.T) {
		t.Parallel()

		c := crawl.NewOutputtingCrawler(okClient().Factory())
		_, err := c.Crawl(context.Background(), []string{"https://example.org/"})
		require.NoError(t, err)

		err = c.SetProgress(func(warmup.ProgressEvent) {})
		assert.Equal(t, warmup.EINVALID, warmup.ErrorCode(err))
	})

	t.Run("requires a function", func(t *testing.T) {
		t.Parallel()

		err := crawl.NewOutputtingCrawler(okClient().Factory()).SetProgress(nil)
		assert.Equal(t, warmup.EINVALID, warmup.ErrorCode(err))
	})
}
