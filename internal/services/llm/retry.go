package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRetryAttempts  = 4
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// retryPolicy decides whether a failed attempt is repeated and how long to
// wait first. Requests are retried on 408, 429 and 5xx responses, network
// timeouts, and empty completions.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	sleeper   func(time.Duration)
}

func newRetryPolicy(attempts int) retryPolicy {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	return retryPolicy{
		attempts:  attempts,
		baseDelay: defaultRetryBaseDelay,
		maxDelay:  defaultRetryMaxDelay,
	}
}

func (p retryPolicy) maxAttempts() int {
	if p.attempts <= 0 {
		return 1
	}
	return p.attempts
}

// next reports the delay before attempt+1, or false when err is final.
func (p retryPolicy) next(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= p.maxAttempts() || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.Is(err, ErrEmptyContent) {
		return p.backoff(attempt), true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if !retryableStatus(statusErr.StatusCode) {
			return 0, false
		}
		if statusErr.RetryAfter.ok {
			return p.clamp(statusErr.RetryAfter.delay), true
		}
		return p.backoff(attempt), true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}
	return 0, false
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// backoff doubles the base delay per attempt up to the max.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.baseDelay <= 0 {
		return 0
	}
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		if p.maxDelay > 0 && delay > p.maxDelay/2 {
			return p.maxDelay
		}
		delay *= 2
	}
	return p.clamp(delay)
}

func (p retryPolicy) clamp(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.maxDelay > 0 && delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

func (p retryPolicy) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type retryAfter struct {
	delay time.Duration
	ok    bool
}

// parseRetryAfter reads a Retry-After header in either seconds or HTTP-date
// form. A zero delay is still honoured.
func parseRetryAfter(value string) retryAfter {
	value = strings.TrimSpace(value)
	if value == "" {
		return retryAfter{}
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return retryAfter{}
		}
		return retryAfter{delay: time.Duration(seconds) * time.Second, ok: true}
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay >= 0 {
			return retryAfter{delay: delay, ok: true}
		}
	}
	return retryAfter{}
}
