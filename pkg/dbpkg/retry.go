package dbpkg

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff computes a jittered exponential delay for the given 1-based attempt.
//
// The delay is base*2^(attempt-1) plus or minus 12.5%, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}

	delay := base * time.Duration(math.Pow(2, float64(attempt-1)))

	if spread := int64(delay / 4); spread > 0 {
		delay += time.Duration(rand.Int63n(spread)) - delay/8
	}

	if delay > max {
		delay = max
	}

	return delay
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
