// Package retry implements exponential backoff for transient transport
// failures.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy describes an exponential backoff schedule.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
	Jitter       bool
}

// DefaultPolicy suits short API calls: up to 3 attempts, 250ms initial
// delay, doubled each round with jitter.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       true,
	}
}

// Do runs the operation until it succeeds, attempts run out, or the context
// is done. The last operation error is returned; context cancellation wins
// over it.
func (p Policy) Do(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}

	return lastErr
}

// delay computes the wait before the next attempt, capped at MaxDelay, with
// up to ±25% jitter when enabled.
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	if p.Jitter {
		d += d * 0.25 * (rand.Float64()*2 - 1)
		if d < 0 {
			d = float64(p.InitialDelay)
		}
		if d > float64(p.MaxDelay) {
			d = float64(p.MaxDelay)
		}
	}

	return time.Duration(d)
}
