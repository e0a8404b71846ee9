// Package retry provides the exponential backoff policy applied to network
// calls against the PDS.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how a network operation is retried. Delays grow by
// Multiplier from BaseDelay up to MaxDelay; MaxAttempts counts the first try.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultPolicy returns the policy used for feed pagination and record
// deletion: 3 attempts, 1s initial delay doubling up to 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

// Do runs op, retrying per the policy until it succeeds, returns a permanent
// error, the attempts are exhausted, or ctx is cancelled. Backoff sleeps
// block the caller.
func (p Policy) Do(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.MaxInterval = p.MaxDelay
	bo.Multiplier = p.Multiplier
	bo.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
}

// Permanent marks err as non-retryable so Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
