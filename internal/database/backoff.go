package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Backoff retries an operation with exponentially growing delays.
type Backoff struct {
	MaxRetries int
	Base       time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter adds up to 25% to each delay.
	Jitter bool
}

// DefaultBackoff retries five times, from 100ms up to 30s.
func DefaultBackoff() Backoff {
	return Backoff{
		MaxRetries: 5,
		Base:       100 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2,
		Jitter:     true,
	}
}

// Retry calls fn until it succeeds, the retries are used up or ctx is done.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == b.MaxRetries {
			break
		}

		wait := b.delay(attempt)
		slog.DebugContext(ctx, "Database retry scheduled",
			"attempt", attempt+1, "max_attempts", b.MaxRetries+1,
			"delay_ms", wait.Milliseconds(), "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", b.MaxRetries+1, lastErr)
}

func (b Backoff) delay(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(b.Multiplier, float64(attempt))
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter {
		d += rand.Float64() * d * 0.25
	}
	return time.Duration(d)
}
