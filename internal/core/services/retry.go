package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// RetryPolicy retries transient failures with exponential backoff and jitter.
type RetryPolicy struct {
	// MaxAttempts bounds the number of calls, including the first.
	MaxAttempts int

	// Base is the delay before the first retry. It doubles per attempt.
	Base time.Duration

	// Max caps the delay.
	Max time.Duration

	// sleep waits between attempts; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the policy used for ingest jobs.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 20,
		Base:        time.Second,
		Max:         10 * time.Minute,
	}
}

// Delay returns the backoff before retry number attempt (1-based), before jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.Base <= 0 {
		return 0
	}
	d := p.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Do calls op until it succeeds, fails with a non-transient error, or the
// attempt budget runs out. On exhaustion the last error is first passed to
// confirm (when non-nil), which may turn it into a terminal error, and is
// then wrapped in domain.ErrRetriesExhausted.
func (p RetryPolicy) Do(
	ctx context.Context,
	name string,
	op func(ctx context.Context) error,
	confirm func(ctx context.Context, err error) error,
	onRetry func(),
) error {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil || !domain.IsTransient(err) {
			return err
		}
		if attempt >= attempts {
			break
		}

		d := jitter(p.Delay(attempt))
		logger.Warn("%s: attempt %d/%d failed, retrying in %s: %v", name, attempt, attempts, d, err)
		if onRetry != nil {
			onRetry()
		}
		if serr := sleep(ctx, d); serr != nil {
			return fmt.Errorf("%s: %w (last error: %w)", name, serr, err)
		}
	}

	if confirm != nil {
		err = confirm(ctx, err)
	}
	return fmt.Errorf("%s: %w after %d attempts: %w", name, domain.ErrRetriesExhausted, attempts, err)
}

// jitter returns a duration in [d/2, d).
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(d-half)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
