package sources

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Options configures the HTTP side of an adapter.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// newClient builds the HTTP client shared by the adapters. It never retries:
// a failed fetch is retried by the next scheduled run.
func newClient(opts Options) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	c := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0)
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	return c
}

func fetch(ctx context.Context, c *resty.Client, source, url, accept string) ([]byte, error) {
	resp, err := c.R().
		SetContext(ctx).
		SetHeader("Accept", accept).
		Get(url)
	if err != nil {
		return nil, &NetworkError{Source: source, URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &NetworkError{Source: source, URL: url, StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}
