package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// RetryAction is what a classifier decides for a failed attempt
type RetryAction int

const (
	RetryStop  RetryAction = iota // permanent error, abort immediately
	RetryAgain                    // transient error, back off and try again
)

// RetryPolicy configures Retry. Backoff starts at InitialBackoff and doubles
// after every failed attempt.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Clock          clockwork.Clock
	OnRetry        func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryPolicy is 3 attempts waiting 2s then 4s
func DefaultRetryPolicy(clock clockwork.Clock) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		Clock:          clock,
	}
}

// Retry runs op until it succeeds, the classifier says stop, or attempts run
// out. The returned error always wraps the last error op returned.
func Retry[T any](ctx context.Context, p RetryPolicy, classify func(error) RetryAction, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	backoff := p.InitialBackoff
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		if classify(err) == RetryStop {
			return zero, err
		}
		if attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		select {
		case <-clock.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w (last error: %v)", ctx.Err(), err)
		}
	}
}
