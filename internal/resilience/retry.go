// Package resilience implements the backoff-retry helper and circuit
// breaker. The queue processor (internal/processor) uses
// BackoffConfig.Delay for its retry schedule and internal/optimizer
// uses the circuit breaker. The retry algorithm is the
// spec's own formula (base * 2^(retry_count-1) + jitter, capped); the
// engine underneath is github.com/cenkalti/backoff/v5 rather than a
// hand-rolled loop.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffConfig mirrors the retry formula from the queue processor's
// tick algorithm.
type BackoffConfig struct {
	Base        time.Duration
	JitterRatio float64 // jitter added is uniform in [0, JitterRatio*Base]
	Cap         time.Duration
	MaxRetries  int
}

// DefaultBackoffConfig matches the processor's documented defaults:
// base=500ms, jitter in [0, base/2], cap=30s, max_retries=3.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Base:        500 * time.Millisecond,
		JitterRatio: 0.5,
		Cap:         30 * time.Second,
		MaxRetries:  3,
	}
}

// Delay computes the backoff delay for the given 1-based retry_count,
// per base * 2^(retry_count-1) + jitter, capped.
func (c BackoffConfig) Delay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := float64(c.Base) * float64(int64(1)<<uint(retryCount-1))
	if d > float64(c.Cap) {
		d = float64(c.Cap)
	}
	jitter := rand.Float64() * c.JitterRatio * float64(c.Base)
	total := time.Duration(d + jitter)
	if total > c.Cap {
		total = c.Cap
	}
	return total
}

// Retry runs fn, retrying up to cfg.MaxRetries additional times (so
// MaxRetries+1 attempts total) using the backoff/v5 engine configured
// with our own delay function so the jitter formula matches Delay
// exactly rather than backoff/v5's default exponential curve.
func Retry(ctx context.Context, cfg BackoffConfig, fn func() error) error {
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := fn()
		if err == nil {
			return struct{}{}, nil
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&specBackoff{cfg: cfg}),
		backoff.WithMaxTries(uint(cfg.MaxRetries+1)),
	)
	return err
}

// specBackoff adapts BackoffConfig.Delay to the backoff.BackOff
// interface expected by backoff/v5.
type specBackoff struct {
	cfg   BackoffConfig
	count int
}

func (b *specBackoff) NextBackOff() time.Duration {
	b.count++
	return b.cfg.Delay(b.count)
}

// Reset satisfies the broader backoff.BackOff shape some versions of
// the library expect; it sets the attempt count back to zero so the
// next delay starts again from Base.
func (b *specBackoff) Reset() { b.count = 0 }
