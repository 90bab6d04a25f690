package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      logrus.FieldLogger
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// Do sends the request built by buildReq, retrying transport errors, 5xx and
// 429 responses with exponential backoff. buildReq receives ctx and is called
// on every attempt so bodies can be replayed. A 429 Retry-After (seconds) is
// honored up to MaxDelay. Cancelling ctx stops both the in-flight attempt and
// the wait between attempts.
func Do(ctx context.Context, client *http.Client, cfg RetryConfig, buildReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetry.MaxAttempts
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultRetry.MaxDelay
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		req, err := buildReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		wait := delay
		resp, err := client.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		case retryable(resp.StatusCode):
			if d, ok := retryAfter(resp); ok {
				wait = d
			}
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		default:
			return resp, nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		if wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}

		log.WithFields(logrus.Fields{
			"url":     req.URL.Redacted(),
			"attempt": attempt,
			"max":     cfg.MaxAttempts,
			"delay":   wait,
		}).WithError(lastErr).Warn("Request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxAttempts, lastErr)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
