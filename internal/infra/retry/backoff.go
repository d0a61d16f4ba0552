// Package retry implements the exponential backoff executor used around
// every logical upstream operation.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/metrics"
)

// Policy defines backoff behavior for one logical operation.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// InitialDelay is the wait after the first failure; it doubles each attempt.
	InitialDelay time.Duration
	// MaxDelay caps a single wait. Zero means maxBackoffDelay.
	MaxDelay time.Duration
}

// maxBackoffDelay bounds a single wait when the policy sets no cap.
const maxBackoffDelay = 24 * time.Hour

// DefaultPolicy mirrors three attempts starting at one second.
var DefaultPolicy = Policy{
	MaxAttempts:  3,
	InitialDelay: 1 * time.Second,
}

// Retryable is implemented by errors that know whether repeating the
// request can help.
type Retryable interface {
	Retryable() bool
}

// ShouldRetry classifies err. Context errors and explicit negative results
// are final; errors implementing Retryable decide for themselves; anything
// else is assumed transient.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrUpstreamNotFound) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Delay returns the wait before attempt index+1: InitialDelay * 2^index.
func (p Policy) Delay(index int) time.Duration {
	if p.InitialDelay <= 0 || index < 0 {
		return 0
	}
	ceiling := p.MaxDelay
	if ceiling <= 0 {
		ceiling = maxBackoffDelay
	}
	if p.InitialDelay >= ceiling {
		return ceiling
	}
	// Doubling stops at the ceiling so large indexes never overflow.
	d := p.InitialDelay
	for i := 0; i < index; i++ {
		if d > ceiling/2 {
			return ceiling
		}
		d *= 2
	}
	return d
}

func (p Policy) backoff() goretry.Backoff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	index := 0
	next := goretry.BackoffFunc(func() (time.Duration, bool) {
		d := p.Delay(index)
		index++
		return d, false
	})
	return goretry.WithMaxRetries(uint64(attempts-1), next)
}

// Do invokes op until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. On exhaustion the error from the final attempt
// is returned. name labels logs and metrics.
func Do[T any](ctx context.Context, name string, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result  T
		attempt int
	)

	err := goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		if attempt > 0 {
			metrics.RetriesTotal.WithLabelValues(name, "backoff").Inc()
		}
		attempt++

		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		if !ShouldRetry(err) {
			return err
		}
		if attempt < p.MaxAttempts {
			slog.Warn("Operation failed, backing off",
				"operation", name,
				"attempt", attempt,
				"delay", p.Delay(attempt-1),
				"error", err,
			)
		}
		return goretry.RetryableError(err)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
