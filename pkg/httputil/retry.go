package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// RetryableError marks a failure worth another attempt. After, when set,
// is the delay the server asked for through Retry-After.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff is a retry policy with exponentially growing delays.
type Backoff struct {
	// Attempts is the total number of calls, including the first.
	Attempts int

	// Delay is the wait after the first failure. It doubles after each
	// further failure up to MaxDelay.
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultBackoff is the policy used by [NewClient].
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 10 * time.Second}

// Do calls fn until it succeeds, fails with an error that is not a
// [RetryableError], or the attempts run out. The last error is returned;
// ctx.Err() is returned when ctx ends during a wait.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for i := range max(b.Attempts, 1) {
		if i > 0 {
			if serr := sleep(ctx, b.wait(delay, err)); serr != nil {
				return serr
			}
			delay = min(delay*2, b.maxDelay())
		}
		if err = fn(); err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
	}
	return err
}

// wait returns the delay before the next attempt: the server's request when
// it made one, capped at MaxDelay, otherwise delay.
func (b Backoff) wait(delay time.Duration, err error) time.Duration {
	var re *RetryableError
	if errors.As(err, &re) && re.After > 0 {
		return min(re.After, b.maxDelay())
	}
	return delay
}

func (b Backoff) maxDelay() time.Duration {
	if b.MaxDelay <= 0 {
		return b.Delay
	}
	return b.MaxDelay
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryAfter parses a Retry-After header given in seconds. HTTP dates and
// malformed values yield zero.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
