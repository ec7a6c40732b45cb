// Package retry wraps remote operations with bounded exponential backoff and
// unbounded, provider-paced retries for rate limiting.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/douhashi/labelbulk/internal/logger"
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// rateLimited is implemented by errors that carry a provider-requested delay
type rateLimited interface {
	RateLimitDelay() (time.Duration, bool)
}

// retryable is implemented by errors that know whether a retry can help
type retryable interface {
	Retryable() bool
}

// Policy defines the retry behavior for remote operations
type Policy struct {
	// MaxRetries is the number of retries after the first attempt for
	// non-rate-limit failures. Rate-limit retries are not counted.
	MaxRetries int
	// BasePause is the first backoff wait; retry i waits BasePause * 2^i
	BasePause time.Duration
	Sleep     Sleeper
	Logger    logger.Logger
}

// newBackOff returns a fresh schedule: BasePause, 2*BasePause, 4*BasePause, ...
func (p Policy) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BasePause
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = time.Duration(math.MaxInt64)
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

func (p Policy) sleeper() Sleeper {
	if p.Sleep != nil {
		return p.Sleep
	}
	return sleepContext
}

func (p Policy) log() logger.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logger.NewNop()
}

// Do runs op until it succeeds, fails permanently, or exhausts MaxRetries.
// A rate-limited failure sleeps for the provider's delay and tries again
// without consuming the retry budget, so a provider that keeps answering
// 429 will stall the caller indefinitely.
func Do[T any](ctx context.Context, p Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	bo := p.newBackOff()
	sleep := p.sleeper()
	log := p.log()
	retries := 0

	for {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return zero, permanent.Err
		}

		var rl rateLimited
		if errors.As(err, &rl) {
			if delay, ok := rl.RateLimitDelay(); ok {
				log.Warn("Rate limit hit, waiting before retry", "operation", name, "wait", delay.String())
				if err := sleep(ctx, delay); err != nil {
					return zero, err
				}
				continue
			}
		}

		var r retryable
		if errors.As(err, &r) && !r.Retryable() {
			return zero, err
		}

		if retries >= p.MaxRetries {
			if p.MaxRetries == 0 {
				return zero, err
			}
			log.Error("Operation failed after retries", "operation", name, "retries", retries, "error", err.Error())
			return zero, fmt.Errorf("%s failed after %d retries: %w", name, retries, err)
		}

		wait := bo.NextBackOff()
		log.Warn("Operation failed, retrying", "operation", name, "attempt", retries+1, "max_retries", p.MaxRetries, "wait", wait.String(), "error", err.Error())
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
		retries++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
