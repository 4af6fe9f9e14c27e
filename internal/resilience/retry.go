// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy holds retry configuration.
type RetryPolicy struct {
	MaxRetries      int                          // Attempts after the first one
	InitialInterval time.Duration                // Delay before the first retry
	MaxInterval     time.Duration                // Upper bound for any single delay
	Multiplier      float64                      // Backoff growth per attempt
	Jitter          bool                         // Add up to 25% random jitter
	OnRetry         func(attempt int, err error) // Optional callback invoked before each retry
}

// DefaultRetryPolicy suits a single interactive collaborator call that has
// to fit inside a request timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		Jitter:          true,
	}
}

// Operation is a unit of work that can be retried.
type Operation func(ctx context.Context) error

// Retry runs op until it succeeds, returns a non-retryable error, the
// policy is exhausted or ctx is done.
// The delay before attempt n is InitialInterval * Multiplier^(n-1), capped
// at MaxInterval.
func Retry(ctx context.Context, policy RetryPolicy, op Operation) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(policy.delay(attempt)):
			}
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, lastErr)
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialInterval)
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d *= mult
	}
	if p.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	if p.MaxInterval > 0 && time.Duration(d) > p.MaxInterval {
		return p.MaxInterval
	}
	return time.Duration(d)
}

// RetryValue is Retry for operations that produce a result.
func RetryValue[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Retry(ctx, policy, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
