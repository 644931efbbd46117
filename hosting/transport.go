package hosting

import (
	"net/http"
	"strconv"
	"time"
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultRetryWait  = 1 * time.Second
)

// RetryTransport retries idempotent requests that fail with a network error,
// a rate limit or a server error. Waits grow exponentially unless the server
// sends Retry-After.
type RetryTransport struct {
	// Base performs the requests. Nil means http.DefaultTransport.
	Base http.RoundTripper

	MaxRetries int
	RetryWait  time.Duration
}

// NewRetryTransport wraps base with the default retry policy.
func NewRetryTransport(base http.RoundTripper) *RetryTransport {
	return &RetryTransport{Base: base, MaxRetries: DefaultMaxRetries, RetryWait: DefaultRetryWait}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.MaxRetries
	if attempts <= 0 || !idempotent(req.Method) {
		attempts = 1
	}

	for attempt := 0; ; attempt++ {
		resp, err := base.RoundTrip(req)
		if attempt == attempts-1 || !shouldRetry(err, resp) {
			return resp, err
		}

		wait := t.wait(resp, attempt)
		if resp != nil {
			resp.Body.Close()
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// wait calculates the pause before the next attempt.
func (t *RetryTransport) wait(resp *http.Response, attempt int) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return t.RetryWait * time.Duration(1<<attempt)
}

func shouldRetry(err error, resp *http.Response) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
