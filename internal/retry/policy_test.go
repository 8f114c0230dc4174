package retry

import (
	"context"
	"testing"
	"time"
)

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	fixed := Policy{Mode: Fixed, Initial: 100 * time.Millisecond, Max: 500 * time.Millisecond}
	for i := 1; i <= 3; i++ {
		if d := fixed.Delay(i); d != 100*time.Millisecond {
			t.Fatalf("fixed attempt %d expected 100ms got %v", i, d)
		}
	}

	linear := Policy{Mode: Linear, Initial: 100 * time.Millisecond, Max: 250 * time.Millisecond}
	// attempts: 1->100ms,2->200ms,3->cap 250ms,4->cap 250ms
	cases := []struct {
		attempt int
		want    time.Duration
	}{{1, 100 * time.Millisecond}, {2, 200 * time.Millisecond}, {3, 250 * time.Millisecond}, {4, 250 * time.Millisecond}}
	for _, c := range cases {
		if got := linear.Delay(c.attempt); got != c.want {
			t.Fatalf("linear attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}

	exp := Policy{Mode: Exponential, Initial: 50 * time.Millisecond, Max: 160 * time.Millisecond}
	// 1->50,2->100,3->160 (cap),4->160
	expCases := []struct {
		attempt int
		want    time.Duration
	}{{1, 50 * time.Millisecond}, {2, 100 * time.Millisecond}, {3, 160 * time.Millisecond}, {4, 160 * time.Millisecond}}
	for _, c := range expCases {
		if got := exp.Delay(c.attempt); got != c.want {
			t.Fatalf("exp attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}
}

// TestDelayEdgeCases ensures non-positive attempts yield zero and negative attempts don't panic.
func TestDelayEdgeCases(t *testing.T) {
	p := Policy{Mode: Linear, Initial: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	if d := p.Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected 0 got %v", d)
	}
	if d := p.Delay(-1); d != 0 {
		t.Fatalf("attempt -1 expected 0 got %v", d)
	}
}

// TestWaitHonorsCancellation verifies a cancelled context cuts the sleep short.
func TestWaitHonorsCancellation(t *testing.T) {
	p := Policy{Mode: Fixed, Initial: time.Minute, Max: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx, 1); err == nil {
		t.Fatalf("expected context error from cancelled wait")
	}
}

// TestWaitZeroAttemptReturnsImmediately checks attempt 0 never sleeps.
func TestWaitZeroAttemptReturnsImmediately(t *testing.T) {
	p := Policy{Mode: Fixed, Initial: time.Minute, Max: time.Minute}
	start := time.Now()
	if err := p.Wait(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("wait for attempt 0 took %v, expected immediate return", elapsed)
	}
}

// TestWaitSleepsForShortDelay confirms Wait actually blocks for the delay.
func TestWaitSleepsForShortDelay(t *testing.T) {
	p := Policy{Mode: Fixed, Initial: 20 * time.Millisecond, Max: 20 * time.Millisecond}
	start := time.Now()
	if err := p.Wait(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("wait returned after %v, expected at least 20ms", elapsed)
	}
}
