package vertex

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RetryableError marks a provider failure worth retrying with backoff
// (rate limits, transient 5xx). Everything else fails the attempt outright.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryableSignal reports whether the combined status/body text carries one
// of the provider's transient failure markers.
func retryableSignal(msg string) bool {
	for _, marker := range []string{"429", "RESOURCE_EXHAUSTED", "503", "UNAVAILABLE", "500", "INTERNAL"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// backoffWait computes the exponential wait before the next attempt:
// multiplier * 2^(attempt-1), clamped to [min, max].
func backoffWait(attempt int, multiplier, min, max time.Duration) time.Duration {
	wait := multiplier
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= max {
			return max
		}
	}
	if wait < min {
		return min
	}
	if wait > max {
		return max
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
