package retry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Policy configures the retry behavior for one endpoint class.
type Policy struct {
	MaxAttempts int           // total attempts, not additional retries
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap on the exponential backoff
}

// DefaultPolicy matches the dashboard request class: two attempts,
// 1s base delay doubling up to 5s.
var DefaultPolicy = Policy{
	MaxAttempts: 2,
	BaseDelay:   time.Second,
	MaxDelay:    5 * time.Second,
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	return p
}

// Backoff returns the delay applied after the given failed attempt
// (1-based): BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// StatusError reports a response that counted as a failed attempt.
// RetryAfter carries the Retry-After header when the upstream sent one.
type StatusError struct {
	Status     int
	URL        string
	RetryAfter string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}

// Do executes the request built by build, retrying on transport errors and
// responses with status >= 400. The request is rebuilt for every attempt
// so bodies are safe to consume. After MaxAttempts total attempts the last
// attempt's error is returned as-is; a run that would have succeeded on a
// later attempt still fails. Failed statuses surface as *StatusError.
func Do(ctx context.Context, client *http.Client, build func() (*http.Request, error), p Policy) (*http.Response, error) {
	p = p.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req.WithContext(ctx))
		if err == nil && resp.StatusCode < 400 {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = &StatusError{
				Status:     resp.StatusCode,
				URL:        req.URL.Path,
				RetryAfter: resp.Header.Get("Retry-After"),
			}
		}

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}
