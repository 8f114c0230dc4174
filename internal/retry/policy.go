// Package retry provides backoff policies for transient contention, such as
// optimistic-concurrency conflicts and lock-file waits in the store backends.
package retry

import (
	"context"
	"time"
)

// Mode selects how the delay grows across attempts.
type Mode string

const (
	Fixed       Mode = "fixed"
	Linear      Mode = "linear"
	Exponential Mode = "exponential"
)

// Policy encapsulates backoff settings for transient failures.
// It is immutable after construction. Attempts are bounded by the caller's
// context, not by the policy.
type Policy struct {
	Mode    Mode          // fixed|linear|exponential
	Initial time.Duration // base delay
	Max     time.Duration // cap for growth
}

// Delay returns the backoff delay for the given attempt number (1-based:
// first retry => 1). Non-positive attempts yield zero.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	switch p.Mode {
	case Fixed:
		return p.Initial
	case Exponential:
		d := p.Initial * (1 << (attempt - 1))
		if d > p.Max {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(attempt) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Wait sleeps for the attempt's delay or until ctx is done, whichever comes
// first. Returns the context error on cancellation.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	d := p.Delay(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
