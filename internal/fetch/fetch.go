// Package fetch wraps outbound HTTP calls with per-attempt timeouts, retry,
// and exponential backoff. Every provider adapter routes its network calls
// through a Client so the retry discipline lives in exactly one place.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig bounds one call class. MaxRetries counts retries after the
// first attempt, so a call makes at most MaxRetries+1 attempts. Timeout is a
// hard per-attempt budget; an attempt that exceeds it is aborted and counts
// as a retryable failure.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

// Per-call-class defaults. A token claim is a single tiny exchange and fails
// fast; a bulk account pull tolerates a slow upstream; price quotes are
// cheap and best-effort.
var (
	ClaimConfig = RetryConfig{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, Timeout: 10 * time.Second}
	BulkConfig  = RetryConfig{MaxRetries: 3, BaseDelay: time.Second, Timeout: 30 * time.Second}
	PriceConfig = RetryConfig{MaxRetries: 2, BaseDelay: 250 * time.Millisecond, Timeout: 5 * time.Second}
)

// Client issues HTTP requests with retry and backoff. The zero value is not
// usable; construct with NewClient.
type Client struct {
	http  *http.Client
	sleep func(time.Duration)
}

// NewClient creates a Client on top of the given http.Client. Pass nil to use
// http.DefaultClient. The http.Client's own Timeout should be zero; per-attempt
// deadlines come from RetryConfig.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, sleep: time.Sleep}
}

// NewClientWithSleep creates a Client with an injected sleep function.
// This constructor is intended for testing, making backoff deterministic.
func NewClientWithSleep(httpClient *http.Client, sleep func(time.Duration)) *Client {
	c := NewClient(httpClient)
	c.sleep = sleep
	return c
}

// Do executes the request under cfg's retry budget.
//
// Outcome classification: 2xx/3xx and any 4xx except 429 are returned to the
// caller as-is (a 4xx is a terminal application error, not retried). 429 and
// 5xx are retryable, as are network-level failures including the per-attempt
// timeout. When retries exhaust, the last HTTP response is returned for HTTP
// failures, or the last error for network failures.
//
// On a retryable HTTP response a server-supplied Retry-After (seconds form)
// takes precedence over the computed BaseDelay * 2^attempt backoff.
//
// Requests with a body must have GetBody set so the body can be replayed on
// retry; http.NewRequest does this for the common buffer types.
func (c *Client) Do(ctx context.Context, req *http.Request, cfg RetryConfig) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return nil, errors.New("fetch: request body is not replayable (GetBody is nil)")
	}

	attempts := cfg.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := c.attempt(ctx, req, cfg.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt == attempts-1 {
				break
			}
			c.sleep(backoffDelay(cfg.BaseDelay, attempt))
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt == attempts-1 {
			return resp, nil
		}

		delay := retryAfter(resp)
		if delay <= 0 {
			delay = backoffDelay(cfg.BaseDelay, attempt)
		}
		drainAndClose(resp)
		c.sleep(delay)
	}

	return nil, fmt.Errorf("%s %s failed after %d attempts: %w", req.Method, req.URL.Redacted(), attempts, lastErr)
}

// attempt runs one request under its own deadline. The returned response's
// Body is wrapped so closing it also releases the attempt context.
func (c *Client) attempt(ctx context.Context, req *http.Request, timeout time.Duration) (*http.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)

	r := req.Clone(attemptCtx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			cancel()
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		r.Body = body
	}

	resp, err := c.http.Do(r)
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelBody ties the attempt context's lifetime to the response body.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// backoffDelay computes base * 2^attempt.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt)
}

// retryAfter parses the seconds form of a Retry-After header. Returns 0 when
// the header is absent or not a plain integer.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// drainAndClose consumes a bounded amount of the body before closing so the
// underlying connection can be reused for the retry.
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
