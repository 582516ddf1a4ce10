// Package fetch wraps outbound HTTP calls with a bounded timeout and
// exponential-backoff retry. Every wizard step and API client in this
// repository goes through it; nothing issues a raw http call directly.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

// Error carries the HTTP status of a failed call so callers can branch
// on outcome without string matching.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// IsTimeout reports whether the error represents a request timeout.
func IsTimeout(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Status == http.StatusRequestTimeout
}

// Options tunes a single call. Zero values fall back to the client defaults.
type Options struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Client issues JSON HTTP requests with retry. The zero value is not
// usable; construct with NewClient.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	retryDelay time.Duration

	// sleep is swapped out in tests so retries do not stall the suite.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client with the default timeout and retry budget.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		sleep:      sleepWithContext,
	}
}

// NewClientWithSleep is NewClient with an injected backoff sleeper, for tests.
func NewClientWithSleep(sleep func(ctx context.Context, d time.Duration) error) *Client {
	c := NewClient()
	if sleep != nil {
		c.sleep = sleep
	}
	return c
}

// SetHTTPClient replaces the underlying transport client (tests, proxies).
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// GetJSON issues a GET and decodes the JSON response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any, opts Options) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, out, opts)
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body any, out any, opts Options) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("fetch: encode request body: %w", err)
		}
	}
	return c.doJSON(ctx, http.MethodPost, url, payload, out, opts)
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload []byte, out any, opts Options) error {
	body, err := c.doWithRetry(ctx, method, url, payload, opts)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Message: "invalid JSON response"}
	}
	return nil
}

// doWithRetry runs the request up to 1+retries times. Only timeouts (408),
// rate limiting (429) and server errors (5xx) are retried; other client
// errors surface immediately.
func (c *Client) doWithRetry(ctx context.Context, method, url string, payload []byte, opts Options) ([]byte, error) {
	retries := c.retries
	if opts.Retries > 0 {
		retries = opts.Retries
	}
	delay := c.retryDelay
	if opts.RetryDelay > 0 {
		delay = opts.RetryDelay
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Message: "request canceled"}
		}

		body, err := c.doOnce(ctx, method, url, payload, opts)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var fe *Error
		if !errors.As(err, &fe) || !retryableStatus(fe.Status) || attempt == retries {
			return nil, err
		}

		backoff := delay << attempt
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, &Error{Message: "request canceled"}
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload []byte, opts Options) ([]byte, error) {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(callCtx, method, url, reader)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, &Error{Status: http.StatusRequestTimeout, Message: "request timeout"}
		}
		return nil, &Error{Message: "network error: unable to reach server"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: "read response: " + err.Error()}
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}
	return body, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500 ||
		status == 0
}

// errorMessage pulls the {"error": ...} field servers in this repo return,
// falling back to the HTTP status text.
func errorMessage(body []byte, statusText string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return statusText
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
